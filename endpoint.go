package rtcmux

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-rtcmux/config"
	"github.com/dep2p/go-rtcmux/internal/core/datachannel"
	"github.com/dep2p/go-rtcmux/internal/core/transport/stream"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

var logger = log.Logger("rtcmux")

const (
	startTimeout = 10 * time.Second
	closeTimeout = 10 * time.Second
)

// Endpoint 连接的工厂与宿主
//
// 端点持有工作池、指标与传输链工厂，所有连接共享它们。
type Endpoint struct {
	cfg       *config.Config
	streamCfg stream.Config
	chanCfg   datachannel.Config

	app  *fx.App
	deps components

	mu        sync.Mutex
	conns     map[uuid.UUID]*Conn
	listeners map[*Listener]struct{}
	closed    bool
}

// New 创建并启动端点
//
// 示例：
//
//	ep, err := rtcmux.New(
//	    rtcmux.WithSecurity(true),
//	    rtcmux.WithLogLevel("debug"),
//	)
func New(opts ...Option) (*Endpoint, error) {
	o := newOptions()
	if err := o.apply(opts); err != nil {
		return nil, err
	}
	if lvl, err := parseLevel(o.cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ep := &Endpoint{
		cfg:       o.cfg,
		streamCfg: stream.ConfigFromUnified(o.cfg),
		chanCfg:   datachannel.ConfigFromUnified(o.cfg),
		conns:     make(map[uuid.UUID]*Conn),
		listeners: make(map[*Listener]struct{}),
	}

	app, err := buildFxApp(o, &ep.deps)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	ep.app = app

	logger.Debug("端点已启动",
		"security", o.cfg.Security.Enable,
		"framing", o.cfg.Framing.Enable,
		"metrics", ep.deps.Collector != nil)
	return ep, nil
}

// Config 返回端点使用的配置副本
func (e *Endpoint) Config() *config.Config {
	return config.CloneConfig(e.cfg)
}

// Dial 拨号并等待连接打开
//
// ctx 只约束等待打开的过程；拨号本身受配置中的 DialTimeout 约束。
func (e *Endpoint) Dial(ctx context.Context, network, addr string) (*Conn, error) {
	c, err := e.open(stream.Dial(network, addr, e.streamCfg), types.RoleClient)
	if err != nil {
		return nil, err
	}
	if err := c.WaitOpen(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return c, nil
}

// NewConn 在已建立的连接上创建 rtcmux 连接，不等待打开
func (e *Endpoint) NewConn(nc net.Conn, role Role) (*Conn, error) {
	return e.open(stream.FromConn(nc, e.streamCfg), role)
}

// Listen 在 addr 上监听
func (e *Endpoint) Listen(network, addr string) (*Listener, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEndpointClosed
	}

	sl, err := stream.Listen(network, addr, e.streamCfg)
	if err != nil {
		return nil, err
	}
	l := &Listener{ep: e, inner: sl}
	e.listeners[l] = struct{}{}
	logger.Info("开始监听", "addr", sl.Addr())
	return l, nil
}

func (e *Endpoint) open(raw pkgif.Transport, role Role) (*Conn, error) {
	ch, err := e.deps.Chains.New(role)
	if err != nil {
		return nil, err
	}
	c := newConn(e, role, ch, datachannel.NewManager(role, e.chanCfg))

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		_ = raw.Stop()
		return nil, ErrEndpointClosed
	}
	e.conns[c.id] = c
	e.mu.Unlock()

	if err := ch.Open(raw); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Endpoint) remove(c *Conn) {
	e.mu.Lock()
	delete(e.conns, c.id)
	e.mu.Unlock()
}

func (e *Endpoint) removeListener(l *Listener) {
	e.mu.Lock()
	delete(e.listeners, l)
	e.mu.Unlock()
}

// Conns 返回当前连接的快照
func (e *Endpoint) Conns() []*Conn {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Conn, 0, len(e.conns))
	for _, c := range e.conns {
		out = append(out, c)
	}
	return out
}

// Bandwidth 返回所有连接的累计流量；指标关闭时为零值
func (e *Endpoint) Bandwidth() Bandwidth {
	if e.deps.Collector == nil {
		return Bandwidth{}
	}
	st := e.deps.Collector.Counter().GetBandwidthTotals()
	return Bandwidth{
		TotalIn:  st.TotalIn,
		TotalOut: st.TotalOut,
		RateIn:   st.RateIn,
		RateOut:  st.RateOut,
	}
}

// Close 关闭所有监听器和连接，然后停止端点
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	listeners := make([]*Listener, 0, len(e.listeners))
	for l := range e.listeners {
		listeners = append(listeners, l)
	}
	conns := make([]*Conn, 0, len(e.conns))
	for _, c := range e.conns {
		conns = append(conns, c)
	}
	e.mu.Unlock()

	var err error
	for _, l := range listeners {
		err = multierr.Append(err, l.Close())
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var g errgroup.Group
	for _, c := range conns {
		g.Go(func() error {
			_ = c.Close()
			return c.wait(ctx)
		})
	}
	err = multierr.Append(err, g.Wait())
	err = multierr.Append(err, e.app.Stop(ctx))

	logger.Debug("端点已关闭", "conns", len(conns))
	return err
}
