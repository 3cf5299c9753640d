package rtcmux

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-rtcmux/config"
)

// Option 端点配置选项
type Option func(*options) error

type options struct {
	cfg        *config.Config
	registerer prometheus.Registerer
	fxOpts     []fx.Option

	// 先于 cfg 之外的覆盖项记录，New 中统一应用
	security    *bool
	framing     *bool
	framingMode string
	logLevel    string
}

func newOptions() *options {
	return &options{cfg: config.NewConfig()}
}

func (o *options) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return fmt.Errorf("apply option: %w", err)
		}
	}
	if o.security != nil {
		o.cfg.Security.Enable = *o.security
	}
	if o.framing != nil {
		o.cfg.Framing.Enable = *o.framing
	}
	if o.framingMode != "" {
		o.cfg.Framing.Enable = true
		o.cfg.Framing.Mode = o.framingMode
	}
	if o.logLevel != "" {
		o.cfg.LogLevel = o.logLevel
	}
	return o.cfg.Validate()
}

// WithConfig 使用完整的统一配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		o.cfg = config.CloneConfig(cfg)
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		o.cfg = cfg
		return nil
	}
}

// WithPreset 应用预设，见 config.ApplyPreset
func WithPreset(name string) Option {
	return func(o *options) error {
		return config.ApplyPreset(o.cfg, name)
	}
}

// WithSecurity 启用或关闭 Noise 安全层
func WithSecurity(enable bool) Option {
	return func(o *options) error {
		o.security = &enable
		return nil
	}
}

// WithFraming 启用或关闭分帧层
//
// 只有底层传输本身保留消息边界时才能关闭。
func WithFraming(enable bool) Option {
	return func(o *options) error {
		o.framing = &enable
		return nil
	}
}

// WithFramingMode 选择分帧方式并启用分帧层
//
// mode 取 config.FramingVarint 或 config.FramingWebSocket，两端必须一致。
func WithFramingMode(mode string) Option {
	return func(o *options) error {
		o.framingMode = mode
		return nil
	}
}

// WithMetricsRegisterer 把指标注册到 reg
//
// 未设置时使用端点私有的 Registry。
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithLogLevel 设置日志级别："debug", "info", "warn", "error"
func WithLogLevel(level string) Option {
	return func(o *options) error {
		if _, err := parseLevel(level); err != nil {
			return err
		}
		o.logLevel = strings.ToLower(level)
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOpts = append(o.fxOpts, opts...)
		return nil
	}
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
