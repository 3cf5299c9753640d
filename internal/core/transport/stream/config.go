package stream

import (
	"net"
	"time"

	"github.com/dep2p/go-rtcmux/config"
)

// Config 原始传输配置
type Config struct {
	DialTimeout     time.Duration
	ReadBufferSize  int
	KeepAlive       bool
	KeepAlivePeriod time.Duration
	NoDelay         bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg *config.Config) Config {
	tc := config.DefaultTransportConfig()
	if cfg != nil {
		tc = cfg.Transport
	}
	return Config{
		DialTimeout:     tc.DialTimeout.Duration(),
		ReadBufferSize:  tc.ReadBufferSize,
		KeepAlive:       tc.TCP.KeepAlive,
		KeepAlivePeriod: tc.TCP.KeepAlivePeriod.Duration(),
		NoDelay:         tc.TCP.NoDelay,
	}
}

// applyTCP 设置 TCP 选项，非 TCP 连接忽略
func (c Config) applyTCP(conn net.Conn) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tcpConn.SetNoDelay(c.NoDelay)
	if c.KeepAlive {
		_ = tcpConn.SetKeepAlive(true)
		if c.KeepAlivePeriod > 0 {
			_ = tcpConn.SetKeepAlivePeriod(c.KeepAlivePeriod)
		}
	}
}
