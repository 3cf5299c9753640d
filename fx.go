package rtcmux

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-rtcmux/internal/core/chain"
	"github.com/dep2p/go-rtcmux/internal/core/metrics"
	"github.com/dep2p/go-rtcmux/internal/core/sctp"
	"github.com/dep2p/go-rtcmux/internal/util/worker"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
)

var fxLogger = log.Logger("rtcmux/fx")

// components 由 Fx 注入到端点的组件
type components struct {
	fx.In

	Chains    *chain.Factory
	Pool      *worker.Pool
	Collector *metrics.Collector `optional:"true"`
}

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：worker → metrics → sctp → chain
func buildFxApp(o *options, out *components) (*fx.App, error) {
	reg := o.registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	modules := []fx.Option{
		fx.Supply(o.cfg),
		fx.Provide(func() prometheus.Registerer { return reg }),

		worker.Module,
		metrics.Module,
		sctp.Module,
		chain.Module,

		fx.Populate(out),
	}
	modules = append(modules, o.fxOpts...)

	if o.cfg.LogLevel == "debug" {
		zl, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("create fx logger: %w", err)
		}
		modules = append(modules, fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zl}
		}))
	} else {
		modules = append(modules, fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}))
	}

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		fxLogger.Error("构建 Fx 应用失败", "error", err)
		return nil, err
	}
	return app, nil
}
