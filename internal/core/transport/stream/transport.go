package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/dep2p/go-rtcmux/internal/core/transport"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

var logger = log.Logger("core/transport/stream")

// Transport 原始字节流传输
type Transport struct {
	transport.Base

	cfg     Config
	network string
	addr    string

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conn    net.Conn
	started bool
	stopped bool

	writeMu sync.Mutex

	wg       sync.WaitGroup
	stopOnce sync.Once
}

var _ pkgif.Transport = (*Transport)(nil)

// Dial 创建主动拨号的传输，拨号在 Start 之后异步进行
func Dial(network, addr string, cfg Config) *Transport {
	t := newTransport(cfg)
	t.network = network
	t.addr = addr
	return t
}

// FromConn 包装已建立的连接
func FromConn(conn net.Conn, cfg Config) *Transport {
	t := newTransport(cfg)
	t.conn = conn
	return t
}

func newTransport(cfg Config) *Transport {
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultConfig().ReadBufferSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{cfg: cfg, ctx: ctx, cancel: cancel}
}

// Start 启动传输
func (t *Transport) Start() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return ErrStopped
	}
	if t.started {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.started = true
	conn := t.conn
	t.mu.Unlock()

	t.ChangeState(types.StateConnecting)

	t.wg.Add(1)
	if conn != nil {
		go t.run(conn)
		return nil
	}
	go t.dialAndRun()
	return nil
}

func (t *Transport) dialAndRun() {
	ctx := t.ctx
	if t.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.DialTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, t.network, t.addr)
	if err != nil {
		logger.Debug("拨号失败", "network", t.network, "addr", t.addr, "error", err)
		t.wg.Done()
		t.ChangeState(types.StateFailed)
		return
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		_ = conn.Close()
		t.wg.Done()
		return
	}
	t.conn = conn
	t.mu.Unlock()

	t.run(conn)
}

func (t *Transport) run(conn net.Conn) {
	defer t.wg.Done()

	t.cfg.applyTCP(conn)
	logger.Debug("原始连接已建立", "local", conn.LocalAddr(), "remote", conn.RemoteAddr())
	t.ChangeState(types.StateConnected)

	buf := make([]byte, t.cfg.ReadBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			t.Recv(types.NewBinary(0, data))
		}
		if err != nil {
			if t.isStopped() {
				return
			}
			if errors.Is(err, io.EOF) {
				logger.Debug("对端关闭连接", "remote", conn.RemoteAddr())
				t.ChangeState(types.StateDisconnected)
			} else {
				logger.Debug("读取失败", "remote", conn.RemoteAddr(), "error", err)
				t.ChangeState(types.StateFailed)
			}
			return
		}
	}
}

func (t *Transport) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Send 写入消息数据
//
// 写入是同步的，返回 true 表示数据已交给内核。
func (t *Transport) Send(msg *types.Message) (bool, error) {
	if msg == nil {
		return true, nil
	}
	if t.State() != types.StateConnected {
		return false, types.ErrNotConnected
	}

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return false, types.ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := conn.Write(msg.Data); err != nil {
		return false, fmt.Errorf("write: %w", err)
	}
	return true, nil
}

// Stop 关闭连接并等待读循环退出
func (t *Transport) Stop() error {
	var err error
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.stopped = true
		conn := t.conn
		t.mu.Unlock()

		t.cancel()
		if conn != nil {
			err = conn.Close()
		}
		t.wg.Wait()
		t.ChangeState(types.StateDisconnected)
	})
	return err
}

// LocalAddr 本地地址，未连接时为 nil
func (t *Transport) LocalAddr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// RemoteAddr 远端地址，未连接时为 nil
func (t *Transport) RemoteAddr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.RemoteAddr()
}
