package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLazyLogger_FollowsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l := Logger("core/test")
	l.Debug("hello", "k", 1)

	out := buf.String()
	assert.Contains(t, out, "component=core/test")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "k=1")
}

func TestPionLoggerFactory(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	pl := PionLoggerFactory("core/sctp").NewLogger("sctp")
	pl.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	pl.Warnf("stream %d reset", 7)
	out := buf.String()
	assert.Contains(t, out, "component=core/sctp.sctp")
	assert.Contains(t, out, "stream 7 reset")
	assert.Contains(t, out, "level=WARN")
}
