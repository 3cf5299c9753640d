package interfaces

import "github.com/dep2p/go-rtcmux/pkg/types"

// BufferedAmountCallback 流缓冲量变化回调
type BufferedAmountCallback func(stream uint16, amount int)

// MuxTransport 多路复用层
//
// 在单一关联上承载多个 16 位 ID 的逻辑流。
type MuxTransport interface {
	Transport

	// OnBufferedAmount 设置缓冲量变化回调，每次净变化都会触发
	OnBufferedAmount(cb BufferedAmountCallback)

	// CloseStream 重置流，排在该流已入队数据之后
	CloseStream(stream uint16) error

	// Flush 尝试发送队列中的消息，返回队列是否已清空
	Flush() (bool, error)

	// MaxStream 返回可用的流数量上限
	MaxStream() int

	// Close 优雅关闭关联
	Close() error

	// Stats 返回统计信息
	Stats() types.MuxStats

	// ClearStats 清零字节计数
	ClearStats()
}
