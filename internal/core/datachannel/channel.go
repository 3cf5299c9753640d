package datachannel

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pion/datachannel"

	"github.com/dep2p/go-rtcmux/internal/util/queue"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// Init 创建通道的参数
type Init struct {
	// ID 指定流 ID，nil 表示按角色自动分配
	ID *uint16

	// Negotiated 通道由应用在带外协商，不发送 DCEP
	Negotiated bool

	// Protocol 子协议
	Protocol string

	// Reliability 可靠性参数
	Reliability types.Reliability

	// Priority DCEP 优先级，0 表示 ChannelPriorityNormal
	Priority uint16
}

// Channel 逻辑数据通道
type Channel struct {
	m  *Manager
	id uint16

	// 对端发起的通道在收到 OPEN 后才确定以下字段
	mu       sync.RWMutex
	label    string
	protocol string
	rel      types.Reliability
	priority uint16

	negotiated bool

	recvQueue *queue.Queue[*types.Message]

	// opening 已发起打开（本端发送了 OPEN 或通道由对端发起）
	opening atomic.Bool
	open    atomic.Bool
	closed  atomic.Bool

	buffered     atomic.Int64
	lowThreshold atomic.Int64

	cbMu          sync.RWMutex
	onOpen        func()
	onClosed      func()
	onError       func(error)
	onAvailable   func()
	onBufferedLow func()
}

var _ pkgif.Channel = (*Channel)(nil)

func newChannel(m *Manager, id uint16, label string, init Init) *Channel {
	prio := init.Priority
	if prio == 0 {
		prio = datachannel.ChannelPriorityNormal
	}
	c := &Channel{
		m:          m,
		id:         id,
		label:      label,
		protocol:   init.Protocol,
		rel:        init.Reliability,
		priority:   prio,
		negotiated: init.Negotiated,
		recvQueue:  queue.New[*types.Message](m.cfg.RecvQueueLimit, types.MessageSize),
	}
	c.lowThreshold.Store(int64(m.cfg.BufferedAmountLowThreshold))
	return c
}

// ID 返回底层流 ID
func (c *Channel) ID() uint16 { return c.id }

// Label 返回通道标签
func (c *Channel) Label() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.label
}

// Protocol 返回子协议
func (c *Channel) Protocol() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.protocol
}

// Reliability 返回可靠性参数
func (c *Channel) Reliability() types.Reliability {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rel
}

// Negotiated 是否为带外协商通道
func (c *Channel) Negotiated() bool { return c.negotiated }

// Send 发送消息，消息的流 ID 和可靠性参数由通道决定
func (c *Channel) Send(msg *types.Message) (bool, error) {
	if c.closed.Load() {
		return false, ErrChannelClosed
	}
	if !c.open.Load() {
		return false, ErrNotOpen
	}
	mux := c.m.mux()
	if mux == nil {
		return false, ErrNotOpen
	}
	rel := c.Reliability()
	out := &types.Message{
		Type:        msg.Type,
		Stream:      c.id,
		Data:        msg.Data,
		Reliability: &rel,
	}
	return mux.Send(out)
}

// SendBinary 发送二进制数据
func (c *Channel) SendBinary(data []byte) (bool, error) {
	return c.Send(types.NewBinary(c.id, data))
}

// SendString 发送文本
func (c *Channel) SendString(s string) (bool, error) {
	return c.Send(types.NewString(c.id, s))
}

// Receive 取出下一条应用消息，没有时返回 nil
func (c *Channel) Receive() *types.Message {
	for {
		msg, ok := c.recvQueue.TryPop()
		if !ok {
			return nil
		}
		if msg.Type != types.MessageControl {
			return msg
		}
	}
}

// Peek 查看下一条应用消息但不取出，丢弃排在前面的控制消息
func (c *Channel) Peek() *types.Message {
	for {
		msg, ok := c.recvQueue.Peek()
		if !ok {
			return nil
		}
		if msg.Type != types.MessageControl {
			return msg
		}
		c.recvQueue.TryPop()
	}
}

// AvailableAmount 返回接收队列中待读取的字节数
func (c *Channel) AvailableAmount() int {
	return c.recvQueue.Amount()
}

// BufferedAmount 返回多路复用层中该通道已缓冲的字节数
func (c *Channel) BufferedAmount() int {
	return int(c.buffered.Load())
}

// SetBufferedAmountLowThreshold 设置低水位
func (c *Channel) SetBufferedAmountLowThreshold(amount int) {
	c.lowThreshold.Store(int64(amount))
}

// IsOpen 是否已打开
func (c *Channel) IsOpen() bool { return c.open.Load() }

// IsClosed 是否已关闭
func (c *Channel) IsClosed() bool { return c.closed.Load() }

// Close 关闭通道并重置底层流
func (c *Channel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	var err error
	if c.open.Swap(false) {
		if mux := c.m.mux(); mux != nil {
			err = mux.CloseStream(c.id)
		}
	}
	c.recvQueue.Stop()
	c.m.remove(c)
	c.triggerClosed()
	return err
}

// OnOpen 设置打开回调
func (c *Channel) OnOpen(cb func()) {
	c.cbMu.Lock()
	c.onOpen = cb
	c.cbMu.Unlock()
	if cb != nil && c.open.Load() {
		cb()
	}
}

// OnClosed 设置关闭回调
func (c *Channel) OnClosed(cb func()) {
	c.cbMu.Lock()
	c.onClosed = cb
	c.cbMu.Unlock()
}

// OnError 设置错误回调
func (c *Channel) OnError(cb func(error)) {
	c.cbMu.Lock()
	c.onError = cb
	c.cbMu.Unlock()
}

// OnAvailable 设置有新消息可读的回调
func (c *Channel) OnAvailable(cb func()) {
	c.cbMu.Lock()
	c.onAvailable = cb
	c.cbMu.Unlock()
}

// OnBufferedAmountLow 设置缓冲量降到低水位的回调
func (c *Channel) OnBufferedAmountLow(cb func()) {
	c.cbMu.Lock()
	c.onBufferedLow = cb
	c.cbMu.Unlock()
}

func (c *Channel) callback(pick func(*Channel) func()) func() {
	c.cbMu.RLock()
	defer c.cbMu.RUnlock()
	return pick(c)
}

func (c *Channel) triggerOpen() {
	if cb := c.callback(func(c *Channel) func() { return c.onOpen }); cb != nil {
		cb()
	}
}

func (c *Channel) triggerClosed() {
	if cb := c.callback(func(c *Channel) func() { return c.onClosed }); cb != nil {
		cb()
	}
}

func (c *Channel) triggerAvailable() {
	if cb := c.callback(func(c *Channel) func() { return c.onAvailable }); cb != nil {
		cb()
	}
}

func (c *Channel) triggerError(err error) {
	c.cbMu.RLock()
	cb := c.onError
	c.cbMu.RUnlock()
	if cb != nil {
		cb(err)
	} else {
		logger.Warn("通道错误", "stream", c.id, "error", err)
	}
}

// updateBufferedAmount 多路复用层报告新的缓冲量
func (c *Channel) updateBufferedAmount(amount int) {
	prev := c.buffered.Swap(int64(amount))
	low := c.lowThreshold.Load()
	if prev > low && int64(amount) <= low {
		if cb := c.callback(func(c *Channel) func() { return c.onBufferedLow }); cb != nil {
			cb()
		}
	}
}

// openOn 多路复用层可用后打开通道
func (c *Channel) openOn(mux pkgif.MuxTransport) {
	if c.closed.Load() || !c.opening.CompareAndSwap(false, true) {
		return
	}
	if c.negotiated {
		c.open.Store(true)
		c.triggerOpen()
		return
	}

	c.mu.RLock()
	ct, param := channelType(c.rel)
	msg := &openMessage{
		ChannelType:          ct,
		Priority:             c.priority,
		ReliabilityParameter: param,
		Label:                c.label,
		Protocol:             c.protocol,
	}
	c.mu.RUnlock()

	if _, err := mux.Send(types.NewMessage(types.MessageControl, c.id, msg.marshal())); err != nil {
		c.triggerError(fmt.Errorf("send open: %w", err))
	}
}

// incoming 处理路由到本通道的消息
func (c *Channel) incoming(mux pkgif.MuxTransport, msg *types.Message) {
	switch msg.Type {
	case types.MessageControl:
		c.handleControl(mux, msg.Data)
	case types.MessageReset:
		c.remoteClose()
	case types.MessageBinary, types.MessageString:
		if c.closed.Load() {
			return
		}
		// 队列满时阻塞，背压传回多路复用层的接收任务
		c.recvQueue.Push(msg)
		if !c.closed.Load() {
			c.triggerAvailable()
		}
	}
}

func (c *Channel) handleControl(mux pkgif.MuxTransport, raw []byte) {
	if len(raw) == 0 {
		c.triggerError(fmt.Errorf("%w: empty", ErrInvalidControl))
		return
	}
	switch raw[0] {
	case dcepOpen:
		open, err := parseOpen(raw)
		if err != nil {
			c.triggerError(err)
			return
		}
		c.mu.Lock()
		c.label = open.Label
		c.protocol = open.Protocol
		c.rel = reliabilityOf(open.ChannelType, open.ReliabilityParameter)
		c.priority = open.Priority
		c.mu.Unlock()

		if _, err := mux.Send(types.NewMessage(types.MessageControl, c.id, marshalAck())); err != nil {
			c.triggerError(fmt.Errorf("send ack: %w", err))
			return
		}
		if !c.open.Swap(true) {
			c.triggerOpen()
		}
	case dcepAck:
		if !c.closed.Load() && !c.open.Swap(true) {
			c.triggerOpen()
		}
	default:
		logger.Debug("忽略未知控制消息", "stream", c.id, "type", raw[0])
	}
}

// remoteClose 对端关闭或连接失败，已收到的消息仍可读取
func (c *Channel) remoteClose() {
	c.open.Store(false)
	if c.closed.Swap(true) {
		return
	}
	// 释放阻塞在满队列上的投递，队列中剩余消息不受影响
	c.recvQueue.Stop()
	c.m.remove(c)
	c.triggerClosed()
}
