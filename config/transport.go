package config

import (
	"errors"
	"time"
)

// TransportConfig 原始字节流传输配置
type TransportConfig struct {
	// DialTimeout 拨号超时，0 表示不限制
	DialTimeout Duration `json:"dial_timeout"`

	// ReadBufferSize 读循环缓冲区大小
	ReadBufferSize int `json:"read_buffer_size"`

	// TCP TCP 参数
	TCP TCPConfig `json:"tcp,omitempty"`
}

// TCPConfig TCP 传输配置
type TCPConfig struct {
	// KeepAlive 是否启用 TCP KeepAlive
	KeepAlive bool `json:"keep_alive"`

	// KeepAlivePeriod KeepAlive 周期
	KeepAlivePeriod Duration `json:"keep_alive_period"`

	// NoDelay 是否禁用 Nagle 算法
	NoDelay bool `json:"no_delay"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		DialTimeout:    Duration(10 * time.Second), // 拨号超时：10 秒
		ReadBufferSize: 64 * 1024,                  // 读缓冲：64 KB
		TCP: TCPConfig{
			KeepAlive:       true,                       // 检测死连接
			KeepAlivePeriod: Duration(15 * time.Second), // KeepAlive 间隔：15 秒
			NoDelay:         true,                       // 减少小消息延迟
		},
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if c.DialTimeout < 0 {
		return errors.New("dial timeout must not be negative")
	}
	if c.ReadBufferSize <= 0 {
		return errors.New("read buffer size must be positive")
	}
	if c.TCP.KeepAlive && c.TCP.KeepAlivePeriod <= 0 {
		return errors.New("tcp keep alive period must be positive")
	}
	return nil
}

// WithDialTimeout 设置拨号超时
func (c TransportConfig) WithDialTimeout(d time.Duration) TransportConfig {
	c.DialTimeout = Duration(d)
	return c
}
