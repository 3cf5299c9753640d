package chain

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-rtcmux/config"
	"github.com/dep2p/go-rtcmux/internal/core/framing"
	"github.com/dep2p/go-rtcmux/internal/core/sctp"
	"github.com/dep2p/go-rtcmux/internal/core/security/noise"
	"github.com/dep2p/go-rtcmux/internal/util/worker"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// Factory 按统一配置组装传输链
type Factory struct {
	cfg  *config.Config
	pool *worker.Pool
	mux  *sctp.Factory
}

// NewFactory 创建工厂
func NewFactory(cfg *config.Config, pool *worker.Pool, mux *sctp.Factory) *Factory {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if mux == nil {
		mux = sctp.NewFactory(sctp.ConfigFromUnified(cfg), pool, nil)
	}
	return &Factory{cfg: cfg, pool: pool, mux: mux}
}

// Layers 返回 role 角色下各层的构造函数
func (f *Factory) Layers(role types.Role) (Layers, error) {
	var layers Layers

	if f.cfg.Security.Enable {
		sc, err := noise.ConfigFromUnified(f.cfg, role)
		if err != nil {
			return Layers{}, err
		}
		layers.Security = func(lower pkgif.Transport) (pkgif.Transport, error) {
			return noise.New(lower, sc)
		}
	}

	if f.cfg.Framing.Enable {
		fc := framing.ConfigFromUnified(f.cfg)
		layers.Framing = func(lower pkgif.Transport) (pkgif.Transport, error) {
			return framing.NewFromConfig(lower, role, fc)
		}
	}

	layers.Mux = func(lower pkgif.Transport) (pkgif.MuxTransport, error) {
		return f.mux.New(lower, role), nil
	}
	return layers, nil
}

// New 创建 role 角色的传输链
func (f *Factory) New(role types.Role) (*Chain, error) {
	layers, err := f.Layers(role)
	if err != nil {
		return nil, err
	}
	return New(layers, f.pool), nil
}

// Params chain 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Pool       *worker.Pool   `optional:"true"`
	SCTP       *sctp.Factory  `optional:"true"`
}

// Module 是 chain 的 Fx 模块
var Module = fx.Module("chain",
	fx.Provide(NewFactoryFromParams),
)

// NewFactoryFromParams 从参数创建 Factory
func NewFactoryFromParams(p Params) *Factory {
	return NewFactory(p.UnifiedCfg, p.Pool, p.SCTP)
}
