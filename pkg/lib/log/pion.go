package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pion/logging"
)

// pion 的 Trace 级别映射到低于 Debug 的 slog 级别
const levelTrace = slog.LevelDebug - 4

// PionLoggerFactory 返回将 pion 日志桥接到 slog 的工厂
//
// prefix 会作为组件名前缀，例如 prefix="core/sctp" 时，
// pion 的 "sctp" scope 输出为组件 "core/sctp.sctp"。
func PionLoggerFactory(prefix string) logging.LoggerFactory {
	return &pionFactory{prefix: prefix}
}

type pionFactory struct {
	prefix string
}

func (f *pionFactory) NewLogger(scope string) logging.LeveledLogger {
	name := scope
	if f.prefix != "" {
		name = f.prefix + "." + scope
	}
	return &pionLogger{l: Logger(name)}
}

type pionLogger struct {
	l *LazyLogger
}

var _ logging.LeveledLogger = (*pionLogger)(nil)

func (p *pionLogger) logf(lvl slog.Level, format string, args ...any) {
	if !p.l.Enabled(lvl) {
		return
	}
	p.l.get().Log(context.Background(), lvl, fmt.Sprintf(format, args...))
}

func (p *pionLogger) Trace(msg string)                  { p.logf(levelTrace, "%s", msg) }
func (p *pionLogger) Tracef(format string, args ...any) { p.logf(levelTrace, format, args...) }
func (p *pionLogger) Debug(msg string)                  { p.logf(slog.LevelDebug, "%s", msg) }
func (p *pionLogger) Debugf(format string, args ...any) { p.logf(slog.LevelDebug, format, args...) }
func (p *pionLogger) Info(msg string)                   { p.logf(slog.LevelInfo, "%s", msg) }
func (p *pionLogger) Infof(format string, args ...any)  { p.logf(slog.LevelInfo, format, args...) }
func (p *pionLogger) Warn(msg string)                   { p.logf(slog.LevelWarn, "%s", msg) }
func (p *pionLogger) Warnf(format string, args ...any)  { p.logf(slog.LevelWarn, format, args...) }
func (p *pionLogger) Error(msg string)                  { p.logf(slog.LevelError, "%s", msg) }
func (p *pionLogger) Errorf(format string, args ...any) { p.logf(slog.LevelError, format, args...) }
