package types

import (
	"fmt"
	"time"
)

// ============================================================================
//                              MessageType - 消息类型
// ============================================================================

// MessageType 消息类型
type MessageType int

const (
	// MessageBinary 二进制消息
	MessageBinary MessageType = iota
	// MessageString 文本消息
	MessageString
	// MessageControl 控制消息（通道信令）
	MessageControl
	// MessageReset 流重置请求或通知，仅在内部使用
	MessageReset
)

// String 返回消息类型的字符串表示
func (t MessageType) String() string {
	switch t {
	case MessageBinary:
		return "binary"
	case MessageString:
		return "string"
	case MessageControl:
		return "control"
	case MessageReset:
		return "reset"
	default:
		return fmt.Sprintf("MessageType(%d)", int(t))
	}
}

// ============================================================================
//                              Reliability - 可靠性参数
// ============================================================================

// ReliabilityType 可靠性类型
type ReliabilityType int

const (
	// ReliabilityReliable 完全可靠
	ReliabilityReliable ReliabilityType = iota
	// ReliabilityRexmit 限制重传次数
	ReliabilityRexmit
	// ReliabilityTimed 限制报文生存时间
	ReliabilityTimed
)

// Reliability 发送可靠性参数
type Reliability struct {
	// Unordered 是否允许乱序递交
	Unordered bool

	// Type 可靠性类型
	Type ReliabilityType

	// Rexmit 最大重传次数（Type == ReliabilityRexmit）
	Rexmit uint32

	// MaxPacketLifeTime 最大生存时间（Type == ReliabilityTimed）
	MaxPacketLifeTime time.Duration
}

// ============================================================================
//                              Message - 消息
// ============================================================================

// Message 在各层传输之间传递的消息
//
// 消息创建后只读，可在多个 goroutine 之间共享。
type Message struct {
	Type   MessageType
	Stream uint16
	Data   []byte

	// Reliability 为 nil 表示使用流的默认可靠性
	Reliability *Reliability
}

// NewMessage 创建消息
func NewMessage(typ MessageType, stream uint16, data []byte) *Message {
	return &Message{Type: typ, Stream: stream, Data: data}
}

// NewBinary 创建二进制消息
func NewBinary(stream uint16, data []byte) *Message {
	return &Message{Type: MessageBinary, Stream: stream, Data: data}
}

// NewString 创建文本消息
func NewString(stream uint16, s string) *Message {
	return &Message{Type: MessageString, Stream: stream, Data: []byte(s)}
}

// IsData 是否为应用数据消息
func (m *Message) IsData() bool {
	return m.Type == MessageBinary || m.Type == MessageString
}

// String 返回消息摘要
func (m *Message) String() string {
	return fmt.Sprintf("%s(stream=%d, len=%d)", m.Type, m.Stream, len(m.Data))
}

// MessageSize 返回消息计入缓冲量的大小
//
// 只有二进制和文本消息计入大小，控制与重置消息为 0。
func MessageSize(m *Message) int {
	if m == nil || !m.IsData() {
		return 0
	}
	return len(m.Data)
}
