package chain

import (
	"fmt"
	"sync"
	"sync/atomic"
	"weak"

	"go.uber.org/multierr"

	"github.com/dep2p/go-rtcmux/internal/util/slot"
	"github.com/dep2p/go-rtcmux/internal/util/worker"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

var logger = log.Logger("core/chain")

// Builder 在 lower 之上构造一层
type Builder func(lower pkgif.Transport) (pkgif.Transport, error)

// MuxBuilder 在 lower 之上构造多路复用层
type MuxBuilder func(lower pkgif.Transport) (pkgif.MuxTransport, error)

// Layers 各层的构造函数，nil 表示该层禁用
type Layers struct {
	Security Builder
	Framing  Builder
	Mux      MuxBuilder
}

// Chain 传输链
type Chain struct {
	layers Layers
	pool   *worker.Pool

	slots [types.NumLayers]slot.Slot[pkgif.Transport]
	state atomic.Int32

	cbMu       sync.RWMutex
	onOpen     func(pkgif.MuxTransport)
	onClosed   func()
	onError    func(error)
	onRecv     pkgif.RecvCallback
	onBuffered pkgif.BufferedAmountCallback

	done chan struct{}
}

// New 创建传输链，pool 为 nil 时使用 worker.Default()
func New(layers Layers, pool *worker.Pool) *Chain {
	return &Chain{
		layers: layers,
		pool:   pool,
		done:   make(chan struct{}),
	}
}

// State 返回链状态
func (c *Chain) State() types.ChainState {
	return types.ChainState(c.state.Load())
}

// Done 在所有层停止后关闭
func (c *Chain) Done() <-chan struct{} {
	return c.done
}

// Layer 返回某一层
func (c *Chain) Layer(kind types.LayerKind) (pkgif.Transport, bool) {
	return c.slots[kind].Load()
}

// Mux 返回多路复用层
func (c *Chain) Mux() (pkgif.MuxTransport, bool) {
	t, ok := c.slots[types.LayerMux].Load()
	if !ok {
		return nil, false
	}
	mux, ok := t.(pkgif.MuxTransport)
	return mux, ok
}

// OnOpen 设置链打开回调，参数为多路复用层
func (c *Chain) OnOpen(cb func(pkgif.MuxTransport)) {
	c.cbMu.Lock()
	c.onOpen = cb
	c.cbMu.Unlock()
}

// OnClosed 设置链关闭回调，只触发一次
func (c *Chain) OnClosed(cb func()) {
	c.cbMu.Lock()
	c.onClosed = cb
	c.cbMu.Unlock()
}

// OnError 设置错误回调
func (c *Chain) OnError(cb func(error)) {
	c.cbMu.Lock()
	c.onError = cb
	c.cbMu.Unlock()
}

// OnRecv 设置多路复用层入站消息回调
func (c *Chain) OnRecv(cb pkgif.RecvCallback) {
	c.cbMu.Lock()
	c.onRecv = cb
	c.cbMu.Unlock()
}

// OnBufferedAmount 设置多路复用层缓冲量回调
func (c *Chain) OnBufferedAmount(cb pkgif.BufferedAmountCallback) {
	c.cbMu.Lock()
	c.onBuffered = cb
	c.cbMu.Unlock()
}

func (c *Chain) resetCallbacks() {
	c.cbMu.Lock()
	c.onOpen = nil
	c.onClosed = nil
	c.onError = nil
	c.onRecv = nil
	c.onBuffered = nil
	c.cbMu.Unlock()
}

// Open 挂载并启动最内层传输
func (c *Chain) Open(raw pkgif.Transport) error {
	return c.startLayer(types.LayerStream, raw)
}

// Attach 挂载一层但不启动
//
// 槽已占用时返回 ErrLayerAttached，已有的层不受影响；
// 链已关闭时该层被取下并停止，返回 ErrChainClosed。
func (c *Chain) Attach(kind types.LayerKind, t pkgif.Transport) error {
	if !c.slots[kind].Attach(t) {
		return fmt.Errorf("%w: %s", ErrLayerAttached, kind)
	}
	if c.State() == types.ChainClosed {
		c.discard(kind, t)
		return ErrChainClosed
	}

	wp := weak.Make(c)
	t.OnStateChange(func(s types.TransportState) {
		if c := wp.Value(); c != nil {
			c.onLayerState(kind, s)
		}
	})
	if mux, ok := t.(pkgif.MuxTransport); ok && kind == types.LayerMux {
		mux.OnRecv(func(m *types.Message) {
			if c := wp.Value(); c != nil {
				c.recv(m)
			}
		})
		mux.OnBufferedAmount(func(stream uint16, amount int) {
			if c := wp.Value(); c != nil {
				c.bufferedAmount(stream, amount)
			}
		})
	}

	// 注册回调期间链可能已被拆除，teardown 清掉的回调又被装了回去
	if c.State() == types.ChainClosed {
		c.discard(kind, t)
		return ErrChainClosed
	}
	return nil
}

// discard 摘掉链关闭后才挂上的层
//
// 槽里仍有该层时由这里停止它，否则 teardown 已经接手。
func (c *Chain) discard(kind types.LayerKind, t pkgif.Transport) {
	detach(t)
	if taken, ok := c.slots[kind].Take(); ok {
		c.stopAsync([]pkgif.Transport{taken}, nil)
	}
}

func detach(t pkgif.Transport) {
	t.OnStateChange(nil)
	t.OnRecv(nil)
	if mux, ok := t.(pkgif.MuxTransport); ok {
		mux.OnBufferedAmount(nil)
	}
}

func (c *Chain) startLayer(kind types.LayerKind, t pkgif.Transport) error {
	if err := c.Attach(kind, t); err != nil {
		return err
	}
	logger.Debug("启动传输层", "layer", kind)
	// Attach 之后被拆除时该层已交给 teardown 停止，已停止的层拒绝 Start
	if err := t.Start(); err != nil {
		if c.State() == types.ChainClosed {
			logger.Debug("链已关闭，放弃启动", "layer", kind, "error", err)
			return ErrChainClosed
		}
		err = fmt.Errorf("start %s: %w", kind, err)
		c.fail(err)
		return err
	}
	return nil
}

func (c *Chain) onLayerState(kind types.LayerKind, s types.TransportState) {
	switch s {
	case types.StateConnected:
		c.buildNext(kind)
	case types.StateFailed:
		c.fail(fmt.Errorf("%w: %s", ErrLayerFailed, kind))
	case types.StateDisconnected:
		logger.Debug("传输层断开", "layer", kind)
		c.teardown()
	}
}

// buildNext 在 kind 之上构造下一个启用的层，kind 为最上层时打开链
func (c *Chain) buildNext(kind types.LayerKind) {
	lower, ok := c.slots[kind].Load()
	if !ok {
		return
	}

	for next := kind + 1; next < types.NumLayers; next++ {
		t, err := c.build(next, lower)
		if err != nil {
			c.fail(fmt.Errorf("build %s: %w", next, err))
			return
		}
		if t == nil {
			continue
		}
		if err := c.startLayer(next, t); err != nil {
			logger.Debug("启动传输层失败", "layer", next, "error", err)
		}
		return
	}
	c.open()
}

func (c *Chain) build(kind types.LayerKind, lower pkgif.Transport) (pkgif.Transport, error) {
	switch kind {
	case types.LayerSecurity:
		if c.layers.Security != nil {
			return c.layers.Security(lower)
		}
	case types.LayerFraming:
		if c.layers.Framing != nil {
			return c.layers.Framing(lower)
		}
	case types.LayerMux:
		if c.layers.Mux != nil {
			return c.layers.Mux(lower)
		}
	}
	return nil, nil
}

func (c *Chain) open() {
	if !c.state.CompareAndSwap(int32(types.ChainConnecting), int32(types.ChainOpen)) {
		return
	}
	mux, _ := c.Mux()
	logger.Debug("传输链已打开")

	c.cbMu.RLock()
	cb := c.onOpen
	c.cbMu.RUnlock()
	if cb != nil {
		cb(mux)
	}
}

func (c *Chain) recv(m *types.Message) {
	c.cbMu.RLock()
	cb := c.onRecv
	c.cbMu.RUnlock()
	if cb != nil {
		cb(m)
	}
}

func (c *Chain) bufferedAmount(stream uint16, amount int) {
	c.cbMu.RLock()
	cb := c.onBuffered
	c.cbMu.RUnlock()
	if cb != nil {
		cb(stream, amount)
	}
}

func (c *Chain) fail(err error) {
	if c.State() == types.ChainClosed {
		return
	}
	logger.Warn("传输链失败", "error", err)

	c.cbMu.RLock()
	cb := c.onError
	c.cbMu.RUnlock()
	if cb != nil {
		cb(err)
	}
	c.teardown()
}

// Close 优雅关闭：在线程池上关闭多路复用层，随后拆除整条链
func (c *Chain) Close() error {
	for {
		st := c.State()
		if st == types.ChainClosing || st == types.ChainClosed {
			return nil
		}
		if c.state.CompareAndSwap(int32(st), int32(types.ChainClosing)) {
			break
		}
	}

	mux, ok := c.Mux()
	if !ok {
		c.teardown()
		return nil
	}
	c.submit(func() {
		if err := mux.Close(); err != nil {
			logger.Debug("关闭多路复用层", "error", err)
		}
		c.teardown()
	})
	return nil
}

// teardown 拆除整条链，只生效一次
func (c *Chain) teardown() {
	for {
		st := c.State()
		if st == types.ChainClosed {
			return
		}
		if c.state.CompareAndSwap(int32(st), int32(types.ChainClosed)) {
			break
		}
	}

	c.cbMu.RLock()
	onClosed := c.onClosed
	c.cbMu.RUnlock()
	c.resetCallbacks()

	var taken []pkgif.Transport
	for kind := types.NumLayers - 1; kind >= 0; kind-- {
		t, ok := c.slots[kind].Take()
		if !ok {
			continue
		}
		detach(t)
		taken = append(taken, t)
	}

	logger.Debug("拆除传输链", "layers", len(taken))
	c.stopAsync(taken, c.done)

	if onClosed != nil {
		onClosed()
	}
}

// stopAsync 在线程池上按顺序停止 layers，完成后关闭 done
func (c *Chain) stopAsync(layers []pkgif.Transport, done chan struct{}) {
	c.submit(func() {
		var err error
		for _, t := range layers {
			err = multierr.Append(err, t.Stop())
		}
		if err != nil {
			logger.Warn("停止传输层出错", "error", err)
		}
		if done != nil {
			close(done)
		}
	})
}

func (c *Chain) submit(task func()) {
	pool := c.pool
	if pool == nil {
		pool = worker.Default()
	}
	if err := pool.Submit(task); err != nil {
		go task()
	}
}
