// Package log 提供 rtcmux 统一日志接口
//
// 基于 Go 标准库 log/slog 封装。各组件通过 Logger("core/xxx") 获取
// 带组件名的懒加载 logger，运行时切换默认 handler 后立即生效。
// pion 系列库的日志通过 PionLoggerFactory 桥接到同一输出。
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// 当前级别，供 pion 桥接判断是否需要格式化
var level = func() *slog.LevelVar {
	v := new(slog.LevelVar)
	v.Set(slog.LevelInfo)
	return v
}()

var installed atomic.Bool

// SetDefault 设置默认 logger
func SetDefault(l *slog.Logger) {
	installed.Store(true)
	slog.SetDefault(l)
}

// New 创建文本格式 logger
func New(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: level}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetOutput 将默认 logger 输出重定向到 w，沿用当前级别
func SetOutput(w io.Writer) {
	SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// SetLevel 设置日志级别
//
// 如果尚未通过 SetDefault/SetOutput 安装 logger，会安装一个输出到
// stderr 的文本 logger。
func SetLevel(l slog.Level) {
	level.Set(l)
	if !installed.Load() {
		SetOutput(os.Stderr)
	}
}

// Level 返回当前日志级别
func Level() slog.Level {
	return level.Level()
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时都从 slog.Default() 获取最新的 handler。
//
//	var logger = log.Logger("core/sctp")
//	logger.Debug("关联已建立", "role", role)
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) get() *slog.Logger {
	return slog.Default().With("component", l.component)
}

// Component 返回组件名
func (l *LazyLogger) Component() string {
	return l.component
}

// Enabled 判断级别是否输出
func (l *LazyLogger) Enabled(lvl slog.Level) bool {
	return slog.Default().Enabled(context.Background(), lvl)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.get().Debug(msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.get().Info(msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.get().Warn(msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.get().Error(msg, args...)
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return l.get().With(args...)
}
