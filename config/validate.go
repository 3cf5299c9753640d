package config

import (
	"errors"
	"fmt"
)

// ValidateAll 验证整个配置的有效性
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并修复常见问题
//
// 可修复的问题：
//   - 低水位大于高水位 -> 交换值
//   - 流数量超过 65535 -> 截断
//   - 分片大小大于最大消息 -> 关闭分片
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	if c.SCTP.SendLowWater > c.SCTP.SendHighWater {
		c.SCTP.SendLowWater, c.SCTP.SendHighWater = c.SCTP.SendHighWater, c.SCTP.SendLowWater
	}
	if c.SCTP.MaxStreams > 65535 {
		c.SCTP.MaxStreams = 65535
	}
	if c.SCTP.FragmentSize > 0 && uint32(c.SCTP.FragmentSize) >= c.SCTP.MaxMessageSize {
		c.SCTP.FragmentSize = 0
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

func validateLogLevel(level string) error {
	switch level {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
}
