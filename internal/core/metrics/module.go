package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-rtcmux/config"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool

	// Namespace Prometheus 命名空间
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	d := config.DefaultMetricsConfig()
	return Config{Enabled: d.Enable, Namespace: d.Namespace}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:   cfg.Metrics.Enable,
		Namespace: cfg.Metrics.Namespace,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config       `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(NewCollectorFromParams),
)

// NewCollectorFromParams 从参数创建 Collector
//
// 禁用时返回 nil；提供了 Registerer 时自动注册。
func NewCollectorFromParams(p Params) (*Collector, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		return nil, nil
	}
	c := NewCollector(cfg.Namespace, nil)
	if p.Registerer != nil {
		if err := p.Registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
