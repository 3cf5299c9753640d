package sctp

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-rtcmux/config"
	"github.com/dep2p/go-rtcmux/internal/core/metrics"
	"github.com/dep2p/go-rtcmux/internal/util/worker"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// Factory 按统一配置创建多路复用层
type Factory struct {
	cfg      Config
	pool     *worker.Pool
	reporter metrics.Reporter
}

// NewFactory 创建工厂，pool 为 nil 时使用进程级默认线程池
func NewFactory(cfg Config, pool *worker.Pool, reporter metrics.Reporter) *Factory {
	return &Factory{cfg: cfg, pool: pool, reporter: reporter}
}

// New 在 lower 之上创建多路复用层
func (f *Factory) New(lower pkgif.Transport, role types.Role) *Transport {
	opts := []Option{WithPool(f.pool)}
	if f.reporter != nil {
		opts = append(opts, WithReporter(f.reporter))
	}
	return New(lower, role, f.cfg, opts...)
}

// Config 返回工厂使用的配置
func (f *Factory) Config() Config {
	return f.cfg
}

// Params sctp 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config     `optional:"true"`
	Pool       *worker.Pool       `optional:"true"`
	Collector  *metrics.Collector `optional:"true"`
}

// Module 是 sctp 的 Fx 模块
var Module = fx.Module("sctp",
	fx.Provide(NewFactoryFromParams),
)

// NewFactoryFromParams 从参数创建 Factory
func NewFactoryFromParams(p Params) *Factory {
	var reporter metrics.Reporter
	if p.Collector != nil {
		reporter = p.Collector
	}
	return NewFactory(ConfigFromUnified(p.UnifiedCfg), p.Pool, reporter)
}
