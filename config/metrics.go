package config

import "errors"

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enable 是否注册 Prometheus 指标
	Enable bool `json:"enable"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enable:    true,
		Namespace: "rtcmux",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enable && c.Namespace == "" {
		return errors.New("metrics namespace must not be empty")
	}
	return nil
}
