package config

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// SecurityConfig 安全层配置
//
// 安全层使用 Noise XX（25519 / ChaChaPoly / SHA256）。
type SecurityConfig struct {
	// Enable 是否在传输链中启用安全层
	Enable bool `json:"enable"`

	// Prologue 双方必须一致的握手前言
	Prologue string `json:"prologue,omitempty"`

	// RemoteStaticKey 期望的对端静态公钥（hex），为空表示不校验
	RemoteStaticKey string `json:"remote_static_key,omitempty"`
}

// DefaultSecurityConfig 返回默认安全配置
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		Enable:   false, // 默认关闭：通常由外层（如 DTLS/TLS）提供安全
		Prologue: "rtcmux/1",
	}
}

// Validate 验证安全配置
func (c SecurityConfig) Validate() error {
	if c.RemoteStaticKey != "" {
		key, err := hex.DecodeString(c.RemoteStaticKey)
		if err != nil {
			return fmt.Errorf("remote static key: %w", err)
		}
		if len(key) != 32 {
			return errors.New("remote static key must be 32 bytes")
		}
	}
	return nil
}

// WithEnable 设置是否启用安全层
func (c SecurityConfig) WithEnable(enabled bool) SecurityConfig {
	c.Enable = enabled
	return c
}
