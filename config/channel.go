package config

import "errors"

// ChannelConfig 数据通道配置
type ChannelConfig struct {
	// RecvQueueLimit 每个通道接收队列的消息条数上限
	RecvQueueLimit int `json:"recv_queue_limit"`

	// BufferedAmountLowThreshold 默认低水位（字节）
	BufferedAmountLowThreshold int `json:"buffered_amount_low_threshold"`
}

// DefaultChannelConfig 返回默认通道配置
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		RecvQueueLimit:             1024,
		BufferedAmountLowThreshold: 0,
	}
}

// Validate 验证通道配置
func (c ChannelConfig) Validate() error {
	if c.RecvQueueLimit < 0 {
		return errors.New("recv queue limit must not be negative")
	}
	if c.BufferedAmountLowThreshold < 0 {
		return errors.New("buffered amount low threshold must not be negative")
	}
	return nil
}
