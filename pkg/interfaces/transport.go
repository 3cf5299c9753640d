package interfaces

import "github.com/dep2p/go-rtcmux/pkg/types"

// StateCallback 状态变化回调
type StateCallback func(types.TransportState)

// RecvCallback 入站消息回调
type RecvCallback func(*types.Message)

// Transport 传输链中的一层
//
// 每一层持有其下层的引用，通过 OnRecv 接收下层的入站消息，
// 通过下层的 Send 发送出站消息。
type Transport interface {
	// Start 启动传输，完成后通过状态回调报告 Connected 或 Failed
	Start() error

	// Stop 停止传输并解除与下层的绑定，可重复调用
	Stop() error

	// Send 发送消息
	//
	// 返回 true 表示已立即交给下层；false 表示已缓冲等待发送。
	Send(msg *types.Message) (bool, error)

	// State 返回当前状态
	State() types.TransportState

	// OnStateChange 设置状态变化回调，nil 表示清除
	OnStateChange(cb StateCallback)

	// OnRecv 设置入站消息回调，nil 表示清除
	OnRecv(cb RecvCallback)
}
