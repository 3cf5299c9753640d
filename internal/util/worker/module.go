package worker

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-rtcmux/config"
)

// Config 工作池配置
type Config struct {
	Workers int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{Workers: config.DefaultWorkerConfig().Workers}
}

// ConfigFromUnified 从统一配置创建工作池配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{Workers: cfg.Worker.Workers}
}

// Params 工作池依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Lifecycle  fx.Lifecycle
}

// Module 是工作池的 Fx 模块
var Module = fx.Module("worker",
	fx.Provide(NewPoolFromParams),
)

// NewPoolFromParams 从参数创建工作池，并在应用停止时关闭
func NewPoolFromParams(p Params) *Pool {
	pool := NewPool(ConfigFromUnified(p.UnifiedCfg).Workers)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pool.Close()
		},
	})
	return pool
}
