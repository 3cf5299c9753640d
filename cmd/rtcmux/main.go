// Package main 提供 rtcmux 命令行入口
//
// 两种模式：
//
//	# 终端 1：监听并回显每个通道上的消息
//	rtcmux -mode listen -addr 127.0.0.1:5000
//
//	# 终端 2：拨号，打开通道并发送标准输入的每一行
//	rtcmux -mode dial -addr 127.0.0.1:5000 -label chat
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-rtcmux"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
)

var logger = log.Logger("rtcmux/cmd")

var (
	mode        = flag.String("mode", "listen", "运行模式: listen 或 dial")
	addr        = flag.String("addr", "127.0.0.1:5000", "监听或拨号地址")
	label       = flag.String("label", "chat", "dial 模式下创建的通道标签")
	configFile  = flag.String("config", "", "配置文件路径（JSON）")
	preset      = flag.String("preset", "", "预设 (lowlatency/bulk/legacy/websocket)")
	framingMode = flag.String("framing", "", "分帧方式 (varint/websocket)，为空沿用配置")
	secure      = flag.Bool("secure", false, "启用 Noise 安全层")
	logLevel    = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	metricsAddr = flag.String("metrics", "", "Prometheus 指标监听地址，为空不启用")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	reg := prometheus.NewRegistry()
	opts := []rtcmux.Option{
		rtcmux.WithConfig(cfg),
		rtcmux.WithPreset(*preset),
		rtcmux.WithMetricsRegisterer(reg),
	}
	if isFlagSet("secure") {
		opts = append(opts, rtcmux.WithSecurity(*secure))
	}
	if *framingMode != "" {
		opts = append(opts, rtcmux.WithFramingMode(*framingMode))
	}
	if *logLevel != "" {
		opts = append(opts, rtcmux.WithLogLevel(*logLevel))
	}

	ep, err := rtcmux.New(opts...)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = ep.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *metricsAddr != "" {
		srv := serveMetrics(*metricsAddr, reg)
		defer func() { _ = srv.Close() }()
	}

	switch *mode {
	case "listen":
		return runListen(ctx, ep)
	case "dial":
		return runDial(ctx, ep)
	default:
		return fmt.Errorf("未知模式: %s", *mode)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("指标服务退出", "error", err)
		}
	}()
	fmt.Printf("指标: http://%s/metrics\n", addr)
	return srv
}

func runListen(ctx context.Context, ep *rtcmux.Endpoint) error {
	l, err := ep.Listen("tcp", *addr)
	if err != nil {
		return err
	}
	fmt.Printf("正在监听 %s，按 Ctrl+C 退出\n", l.Addr())

	for {
		conn, err := l.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println("\n正在关闭...")
				return nil
			}
			return err
		}
		fmt.Printf("新连接 %s\n", conn.ID())
		conn.OnChannel(echo)
		conn.OnClosed(func() {
			fmt.Printf("连接 %s 已关闭\n", conn.ID())
		})
	}
}

// echo 把通道上的每条消息原样发回
func echo(ch *rtcmux.Channel) {
	fmt.Printf("通道 %q (id=%d) 已打开\n", ch.Label(), ch.ID())
	ch.OnAvailable(func() {
		for m := ch.Receive(); m != nil; m = ch.Receive() {
			if _, err := ch.Send(m); err != nil {
				logger.Warn("回显失败", "channel", ch.Label(), "error", err)
				return
			}
		}
	})
}

func runDial(ctx context.Context, ep *rtcmux.Endpoint) error {
	conn, err := ep.Dial(ctx, "tcp", *addr)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.CreateChannel(*label, rtcmux.ChannelInit{})
	if err != nil {
		return err
	}
	opened := make(chan struct{})
	ch.OnOpen(func() { close(opened) })
	ch.OnAvailable(func() {
		for m := ch.Receive(); m != nil; m = ch.Receive() {
			fmt.Printf("< %s\n", m.Data)
		}
	})

	select {
	case <-opened:
	case <-ctx.Done():
		return nil
	}
	fmt.Printf("已连接 %s，输入消息后回车发送\n", *addr)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if _, err := ch.SendString(line); err != nil {
				return err
			}
		case <-conn.Done():
			return conn.Err()
		case <-ctx.Done():
			return nil
		}
	}
}
