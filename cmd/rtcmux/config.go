package main

import (
	"flag"
	"os"
	"strconv"

	"github.com/dep2p/go-rtcmux/config"
)

// 环境变量，优先级高于配置文件，低于命令行参数
const (
	envPrefix      = "RTCMUX_"
	envMaxStreams  = "MAX_STREAMS"
	envFramingOff  = "NO_FRAMING"
	envFraming     = "FRAMING"
	envPrologue    = "PROLOGUE"
	envMetricsName = "METRICS_NAMESPACE"
)

// loadConfig 加载配置文件并应用环境变量
func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(*configFile)
		if err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)
	return cfg, cfg.Validate()
}

func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv(envPrefix + envMaxStreams); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SCTP.MaxStreams = n
		}
	}
	if v := os.Getenv(envPrefix + envFramingOff); v != "" {
		if off, err := strconv.ParseBool(v); err == nil {
			cfg.Framing.Enable = !off
		}
	}
	if v := os.Getenv(envPrefix + envFraming); v != "" {
		cfg.Framing.Mode = v
	}
	if v := os.Getenv(envPrefix + envPrologue); v != "" {
		cfg.Security.Prologue = v
	}
	if v := os.Getenv(envPrefix + envMetricsName); v != "" {
		cfg.Metrics.Namespace = v
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
