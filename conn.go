package rtcmux

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dep2p/go-rtcmux/internal/core/chain"
	"github.com/dep2p/go-rtcmux/internal/core/datachannel"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
)

// Conn 一条 rtcmux 连接
type Conn struct {
	id       uuid.UUID
	role     Role
	ep       *Endpoint
	chain    *chain.Chain
	channels *datachannel.Manager

	opened    chan struct{}
	openOnce  sync.Once
	closed    chan struct{}
	closeOnce sync.Once
	err       atomic.Pointer[error]

	cbMu     sync.RWMutex
	onOpen   func()
	onClosed func()
	onError  func(error)
}

func newConn(ep *Endpoint, role Role, ch *chain.Chain, channels *datachannel.Manager) *Conn {
	c := &Conn{
		id:       uuid.New(),
		role:     role,
		ep:       ep,
		chain:    ch,
		channels: channels,
		opened:   make(chan struct{}),
		closed:   make(chan struct{}),
	}

	ch.OnOpen(c.handleOpen)
	ch.OnRecv(channels.HandleMessage)
	ch.OnBufferedAmount(channels.HandleBufferedAmount)
	ch.OnError(c.handleError)
	ch.OnClosed(c.handleClosed)
	return c
}

// ID 返回连接 ID
func (c *Conn) ID() uuid.UUID { return c.id }

// Role 返回本端角色
func (c *Conn) Role() Role { return c.role }

// State 返回连接状态
func (c *Conn) State() ConnState {
	return c.chain.State()
}

// Stats 返回多路复用层统计，连接打开前为零值
func (c *Conn) Stats() ConnStats {
	mux, ok := c.chain.Mux()
	if !ok {
		return ConnStats{}
	}
	return mux.Stats()
}

// Err 返回导致连接关闭的错误
func (c *Conn) Err() error {
	if p := c.err.Load(); p != nil {
		return *p
	}
	return nil
}

// CreateChannel 创建数据通道
//
// 连接打开前创建的通道在打开后自动协商。
func (c *Conn) CreateChannel(label string, init ChannelInit) (*Channel, error) {
	if c.State() == StateClosed {
		return nil, ErrConnClosed
	}
	return c.channels.CreateChannel(label, init)
}

// Channel 按流 ID 查找通道
func (c *Conn) Channel(id uint16) (*Channel, bool) {
	return c.channels.Channel(id)
}

// OnChannel 设置对端创建通道的回调
//
// 回调注册前到达的通道在注册时依次交付。
func (c *Conn) OnChannel(cb func(*Channel)) {
	c.channels.OnChannel(cb)
}

// OnOpen 设置连接打开回调，已打开时立即触发
func (c *Conn) OnOpen(cb func()) {
	c.cbMu.Lock()
	c.onOpen = cb
	c.cbMu.Unlock()

	select {
	case <-c.opened:
		if cb != nil {
			cb()
		}
	default:
	}
}

// OnClosed 设置连接关闭回调
func (c *Conn) OnClosed(cb func()) {
	c.cbMu.Lock()
	c.onClosed = cb
	c.cbMu.Unlock()
}

// OnError 设置错误回调
func (c *Conn) OnError(cb func(error)) {
	c.cbMu.Lock()
	c.onError = cb
	c.cbMu.Unlock()
}

// WaitOpen 等待连接打开
//
// 连接在打开前关闭时返回关闭原因，没有原因时返回 ErrConnClosed。
func (c *Conn) WaitOpen(ctx context.Context) error {
	select {
	case <-c.opened:
		return nil
	case <-c.closed:
		if err := c.Err(); err != nil {
			return err
		}
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done 在连接关闭且所有层停止后关闭
func (c *Conn) Done() <-chan struct{} {
	return c.chain.Done()
}

// Close 优雅关闭连接
func (c *Conn) Close() error {
	c.channels.CloseAll()
	return c.chain.Close()
}

func (c *Conn) wait(ctx context.Context) error {
	select {
	case <-c.chain.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) handleOpen(mux pkgif.MuxTransport) {
	if mux != nil {
		c.channels.Open(mux)
	}
	c.openOnce.Do(func() { close(c.opened) })
	logger.Debug("连接已打开", "id", c.id, "role", c.role)

	c.cbMu.RLock()
	cb := c.onOpen
	c.cbMu.RUnlock()
	if cb != nil {
		cb()
	}
}

func (c *Conn) handleError(err error) {
	c.err.CompareAndSwap(nil, &err)
	logger.Debug("连接出错", "id", c.id, "error", err)

	c.cbMu.RLock()
	cb := c.onError
	c.cbMu.RUnlock()
	if cb != nil {
		cb(err)
	}
}

func (c *Conn) handleClosed() {
	c.channels.RemoteCloseAll()
	c.closeOnce.Do(func() { close(c.closed) })
	c.ep.remove(c)
	logger.Debug("连接已关闭", "id", c.id)

	c.cbMu.RLock()
	cb := c.onClosed
	c.cbMu.RUnlock()
	if cb != nil {
		cb()
	}
}
