package interfaces

import "github.com/dep2p/go-rtcmux/pkg/types"

// Channel 逻辑数据通道
type Channel interface {
	// ID 返回底层流 ID
	ID() uint16

	// Label 返回通道标签
	Label() string

	// Protocol 返回子协议
	Protocol() string

	// Send 发送消息，返回 false 表示已缓冲
	Send(msg *types.Message) (bool, error)

	// SendBinary 发送二进制数据
	SendBinary(data []byte) (bool, error)

	// SendString 发送文本
	SendString(s string) (bool, error)

	// Receive 取出下一条应用消息，没有时返回 nil
	Receive() *types.Message

	// Peek 查看下一条应用消息但不取出
	Peek() *types.Message

	// AvailableAmount 返回接收队列中待读取的字节数
	AvailableAmount() int

	// BufferedAmount 返回发送方向已缓冲的字节数
	BufferedAmount() int

	// SetBufferedAmountLowThreshold 设置低水位
	SetBufferedAmountLowThreshold(amount int)

	// IsOpen 是否已打开
	IsOpen() bool

	// IsClosed 是否已关闭
	IsClosed() bool

	// Close 关闭通道
	Close() error
}
