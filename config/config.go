// Package config 提供 rtcmux 的统一配置
//
// Config 按传输链的层次组织：
//   - Transport: 原始字节流（TCP/UDP/任意 net.Conn）
//   - Security:  Noise 安全层
//   - Framing:   长度前缀分帧层
//   - SCTP:      多路复用层
//   - Channel:   逻辑数据通道
//   - Worker:    后台工作池
//   - Metrics:   Prometheus 指标
//
// 各组件包通过 ConfigFromUnified 从 *Config 派生自己的配置。
package config

// Config 统一配置
type Config struct {
	// Transport 原始传输配置
	Transport TransportConfig `json:"transport"`

	// Security 安全层配置
	Security SecurityConfig `json:"security"`

	// Framing 分帧层配置
	Framing FramingConfig `json:"framing"`

	// SCTP 多路复用层配置
	SCTP SCTPConfig `json:"sctp"`

	// Channel 数据通道配置
	Channel ChannelConfig `json:"channel"`

	// Worker 工作池配置
	Worker WorkerConfig `json:"worker"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// LogLevel 日志级别: "debug", "info", "warn", "error"
	LogLevel string `json:"log_level,omitempty"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Transport: DefaultTransportConfig(),
		Security:  DefaultSecurityConfig(),
		Framing:   DefaultFramingConfig(),
		SCTP:      DefaultSCTPConfig(),
		Channel:   DefaultChannelConfig(),
		Worker:    DefaultWorkerConfig(),
		Metrics:   DefaultMetricsConfig(),
		LogLevel:  "info",
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	if err := c.Framing.Validate(); err != nil {
		return err
	}
	if err := c.SCTP.Validate(); err != nil {
		return err
	}
	if err := c.Channel.Validate(); err != nil {
		return err
	}
	if err := c.Worker.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return validateLogLevel(c.LogLevel)
}
