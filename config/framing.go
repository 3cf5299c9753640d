package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// 分帧方式
const (
	// FramingVarint uvarint 长度前缀
	FramingVarint = "varint"

	// FramingWebSocket WebSocket 消息（RFC 6455），需要一次 HTTP 升级握手
	FramingWebSocket = "websocket"
)

// FramingConfig 分帧层配置
type FramingConfig struct {
	// Enable 是否在传输链中启用分帧层
	//
	// 多路复用层需要保留消息边界，字节流传输（TCP）之上必须启用。
	Enable bool `json:"enable"`

	// Mode 分帧方式：varint 或 websocket
	Mode string `json:"mode"`

	// MaxFrameSize 单帧最大字节数
	MaxFrameSize int `json:"max_frame_size"`

	// WebSocket 握手参数，仅 Mode 为 websocket 时使用
	WebSocketHost    string   `json:"websocket_host"`
	WebSocketPath    string   `json:"websocket_path"`
	HandshakeTimeout Duration `json:"handshake_timeout"`
}

// DefaultFramingConfig 返回默认分帧配置
func DefaultFramingConfig() FramingConfig {
	return FramingConfig{
		Enable:           true,
		Mode:             FramingVarint,
		MaxFrameSize:     1 << 20, // 1 MB
		WebSocketHost:    "localhost",
		WebSocketPath:    "/",
		HandshakeTimeout: Duration(10 * time.Second),
	}
}

// Validate 验证分帧配置
func (c FramingConfig) Validate() error {
	if c.MaxFrameSize <= 0 {
		return errors.New("max frame size must be positive")
	}
	switch c.Mode {
	case "", FramingVarint:
	case FramingWebSocket:
		if !strings.HasPrefix(c.WebSocketPath, "/") {
			return fmt.Errorf("websocket path must start with '/': %q", c.WebSocketPath)
		}
		if c.HandshakeTimeout < 0 {
			return errors.New("handshake timeout must not be negative")
		}
	default:
		return fmt.Errorf("unknown framing mode %q", c.Mode)
	}
	return nil
}
