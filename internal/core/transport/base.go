package transport

import (
	"sync/atomic"

	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// Base 单层传输的公共部分
//
// 嵌入到具体传输中使用。零值可用，表示没有下层的最内层传输。
type Base struct {
	lower pkgif.Transport

	state   atomic.Int32
	stateCb atomic.Pointer[pkgif.StateCallback]
	recvCb  atomic.Pointer[pkgif.RecvCallback]
}

// Init 设置下层传输，必须在传输启动前调用
func (b *Base) Init(lower pkgif.Transport) {
	b.lower = lower
}

// Lower 返回下层传输
func (b *Base) Lower() pkgif.Transport {
	return b.lower
}

// State 返回当前状态
func (b *Base) State() types.TransportState {
	return types.TransportState(b.state.Load())
}

// ChangeState 切换状态，状态确实变化时触发回调并返回 true
func (b *Base) ChangeState(s types.TransportState) bool {
	if types.TransportState(b.state.Swap(int32(s))) == s {
		return false
	}
	if cb := b.stateCb.Load(); cb != nil && *cb != nil {
		(*cb)(s)
	}
	return true
}

// OnStateChange 设置状态回调
func (b *Base) OnStateChange(cb pkgif.StateCallback) {
	if cb == nil {
		b.stateCb.Store(nil)
		return
	}
	b.stateCb.Store(&cb)
}

// OnRecv 设置入站消息回调
func (b *Base) OnRecv(cb pkgif.RecvCallback) {
	if cb == nil {
		b.recvCb.Store(nil)
		return
	}
	b.recvCb.Store(&cb)
}

// Recv 向上层递交消息，没有回调时丢弃
func (b *Base) Recv(msg *types.Message) {
	if cb := b.recvCb.Load(); cb != nil && *cb != nil {
		(*cb)(msg)
	}
}

// HasRecvCallback 是否设置了入站回调
func (b *Base) HasRecvCallback() bool {
	cb := b.recvCb.Load()
	return cb != nil && *cb != nil
}

// RegisterIncoming 把 handler 挂到下层的入站回调
func (b *Base) RegisterIncoming(handler pkgif.RecvCallback) {
	if b.lower != nil {
		b.lower.OnRecv(handler)
	}
}

// UnregisterIncoming 解除下层的入站回调
func (b *Base) UnregisterIncoming() {
	if b.lower != nil {
		b.lower.OnRecv(nil)
	}
}

// Outgoing 把消息交给下层发送
func (b *Base) Outgoing(msg *types.Message) (bool, error) {
	if b.lower == nil {
		return false, types.ErrNoLowerTransport
	}
	return b.lower.Send(msg)
}

// ResetCallbacks 清除本层的所有回调
func (b *Base) ResetCallbacks() {
	b.stateCb.Store(nil)
	b.recvCb.Store(nil)
}
