package config

import (
	"errors"
	"time"
)

// SCTPConfig 多路复用层配置
type SCTPConfig struct {
	// LocalPort / RemotePort 关联端口，仅作为元数据
	LocalPort  uint16 `json:"local_port"`
	RemotePort uint16 `json:"remote_port"`

	// MaxStreams 可用流数量上限（不超过 65535）
	MaxStreams int `json:"max_streams"`

	// MaxMessageSize 单条消息最大字节数
	MaxMessageSize uint32 `json:"max_message_size"`

	// MaxReceiveBufferSize 关联接收缓冲区
	MaxReceiveBufferSize uint32 `json:"max_receive_buffer_size"`

	// SendHighWater 单个流在协议栈中的缓冲量高水位，超过即视为写阻塞
	SendHighWater int `json:"send_high_water"`

	// SendLowWater 低于该值时通知可写
	SendLowWater int `json:"send_low_water"`

	// FragmentSize 发送端分片大小，0 表示不分片（兼容旧实现时使用）
	FragmentSize int `json:"fragment_size"`

	// InboxSize 入站分片收件箱容量（条）
	InboxSize int `json:"inbox_size"`

	// MTU 路径 MTU，0 使用协议栈默认
	MTU uint32 `json:"mtu,omitempty"`

	// ShutdownTimeout 优雅关闭超时
	ShutdownTimeout Duration `json:"shutdown_timeout"`
}

// DefaultSCTPConfig 返回默认多路复用配置
func DefaultSCTPConfig() SCTPConfig {
	return SCTPConfig{
		LocalPort:            5000,
		RemotePort:           5000,
		MaxStreams:           1024,
		MaxMessageSize:       256 * 1024,                // 256 KB
		MaxReceiveBufferSize: 1024 * 1024,               // 1 MB
		SendHighWater:        1024 * 1024,               // 1 MB
		SendLowWater:         256 * 1024,                // 256 KB
		FragmentSize:         0,                         // 不分片
		InboxSize:            1024,                      // 1024 个分片
		ShutdownTimeout:      Duration(5 * time.Second), // 5 秒
	}
}

// Validate 验证多路复用配置
func (c SCTPConfig) Validate() error {
	if c.MaxStreams <= 0 || c.MaxStreams > 65535 {
		return errors.New("max streams must be in (0, 65535]")
	}
	if c.MaxMessageSize == 0 {
		return errors.New("max message size must be positive")
	}
	if c.SendHighWater <= 0 {
		return errors.New("send high water must be positive")
	}
	if c.SendLowWater < 0 || c.SendLowWater > c.SendHighWater {
		return errors.New("send low water must be in [0, high water]")
	}
	if c.FragmentSize < 0 {
		return errors.New("fragment size must not be negative")
	}
	if c.InboxSize <= 0 {
		return errors.New("inbox size must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}

// WithFragmentSize 设置发送端分片大小
func (c SCTPConfig) WithFragmentSize(n int) SCTPConfig {
	c.FragmentSize = n
	return c
}
