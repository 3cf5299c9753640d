package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
//	{
//	  "framing": {"enable": true, "max_frame_size": 65536},
//	  "sctp": {"max_streams": 256, "shutdown_timeout": "2s"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToJSON 序列化配置
func ToJSON(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	return json.MarshalIndent(cfg, "", "  ")
}

// LoadFile 从文件加载并验证配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyPreset 应用预设
//
// 支持的预设：
//   - "lowlatency": 小缓冲、小接收队列
//   - "bulk": 大缓冲，适合大文件传输
//   - "legacy": 发送端分片，兼容不支持大消息的旧对端
//   - "websocket": 以 WebSocket 消息分帧，便于穿过 HTTP 代理
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "lowlatency":
		cfg.SCTP.SendHighWater = 64 * 1024
		cfg.SCTP.SendLowWater = 16 * 1024
		cfg.Channel.RecvQueueLimit = 128
		cfg.Transport.TCP.NoDelay = true
	case "bulk":
		cfg.SCTP.SendHighWater = 4 * 1024 * 1024
		cfg.SCTP.SendLowWater = 1024 * 1024
		cfg.SCTP.MaxReceiveBufferSize = 4 * 1024 * 1024
		cfg.Transport.ReadBufferSize = 256 * 1024
	case "legacy":
		cfg.SCTP.FragmentSize = 16 * 1024
	case "websocket":
		cfg.Framing.Enable = true
		cfg.Framing.Mode = FramingWebSocket
	case "":
		return nil
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}

// CloneConfig 克隆配置
//
// 所有子配置都是值类型，浅拷贝即为深拷贝。
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	cloned := *cfg
	return &cloned
}
