package config

import "errors"

// WorkerConfig 后台工作池配置
type WorkerConfig struct {
	// Workers 工作 goroutine 数量
	Workers int `json:"workers"`
}

// DefaultWorkerConfig 返回默认工作池配置
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{Workers: 4}
}

// Validate 验证工作池配置
func (c WorkerConfig) Validate() error {
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	return nil
}
