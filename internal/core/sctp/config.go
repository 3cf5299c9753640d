package sctp

import (
	"time"

	"github.com/dep2p/go-rtcmux/config"
)

// maxStreamID 流 ID 上限（65535 保留）
const maxStreamID = 65535

// Config 多路复用层配置
type Config struct {
	// LocalPort / RemotePort 关联端口，仅记录，不参与握手
	LocalPort  uint16
	RemotePort uint16

	// MaxStreams 可用流数量
	MaxStreams int

	// MaxMessageSize 单条消息上限，同时作为协议栈的最大消息长度
	MaxMessageSize uint32

	// MaxReceiveBufferSize 协议栈接收缓冲区
	MaxReceiveBufferSize uint32

	// SendHighWater 单流在协议栈中的缓冲量超过该值视为写阻塞
	SendHighWater int

	// SendLowWater 协议栈缓冲量低于该值时触发刷新
	SendLowWater int

	// FragmentSize 发送端分片大小，0 表示整条发送
	FragmentSize int

	// InboxSize 入站收件箱容量（条）
	InboxSize int

	// MTU 路径 MTU，0 使用协议栈默认
	MTU uint32

	// ShutdownTimeout Close 的优雅关闭超时
	ShutdownTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg *config.Config) Config {
	c := config.DefaultSCTPConfig()
	if cfg != nil {
		c = cfg.SCTP
	}
	return Config{
		LocalPort:            c.LocalPort,
		RemotePort:           c.RemotePort,
		MaxStreams:           c.MaxStreams,
		MaxMessageSize:       c.MaxMessageSize,
		MaxReceiveBufferSize: c.MaxReceiveBufferSize,
		SendHighWater:        c.SendHighWater,
		SendLowWater:         c.SendLowWater,
		FragmentSize:         c.FragmentSize,
		InboxSize:            c.InboxSize,
		MTU:                  c.MTU,
		ShutdownTimeout:      c.ShutdownTimeout.Duration(),
	}
}

// normalize 填充缺省值
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.MaxStreams <= 0 {
		c.MaxStreams = d.MaxStreams
	}
	if c.MaxStreams > maxStreamID {
		c.MaxStreams = maxStreamID
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.SendHighWater <= 0 {
		c.SendHighWater = d.SendHighWater
	}
	if c.SendLowWater < 0 || c.SendLowWater > c.SendHighWater {
		c.SendLowWater = c.SendHighWater / 4
	}
	if c.FragmentSize < 0 {
		c.FragmentSize = 0
	}
	if c.InboxSize <= 0 {
		c.InboxSize = d.InboxSize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}
