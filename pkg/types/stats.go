package types

import "time"

// MuxStats 多路复用层统计
type MuxStats struct {
	// BytesSent 自上次清零以来发送的字节数
	BytesSent uint64

	// BytesReceived 自上次清零以来接收的字节数
	BytesReceived uint64

	// RTT 平滑往返时延，HasRTT 为 false 时尚未采样
	RTT    time.Duration
	HasRTT bool
}
