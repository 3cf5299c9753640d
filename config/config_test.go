package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 默认配置有效
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, uint16(5000), cfg.SCTP.LocalPort)
	assert.Equal(t, uint16(5000), cfg.SCTP.RemotePort)
	assert.True(t, cfg.Framing.Enable)
	assert.False(t, cfg.Security.Enable)
}

func TestSCTPConfig_Validate(t *testing.T) {
	t.Run("TooManyStreams", func(t *testing.T) {
		cfg := DefaultSCTPConfig()
		cfg.MaxStreams = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("LowAboveHigh", func(t *testing.T) {
		cfg := DefaultSCTPConfig()
		cfg.SendLowWater = cfg.SendHighWater + 1
		assert.Error(t, cfg.Validate())
	})

	t.Run("NegativeFragment", func(t *testing.T) {
		cfg := DefaultSCTPConfig().WithFragmentSize(-1)
		assert.Error(t, cfg.Validate())
	})
}

func TestSecurityConfig_RemoteKey(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.RemoteStaticKey = "zz"
	assert.Error(t, cfg.Validate())

	cfg.RemoteStaticKey = "00112233"
	assert.Error(t, cfg.Validate(), "长度必须为 32 字节")

	cfg.RemoteStaticKey = "0000000000000000000000000000000000000000000000000000000000000000"
	assert.NoError(t, cfg.Validate())
}

func TestFramingConfig_Validate(t *testing.T) {
	cfg := DefaultFramingConfig()
	assert.Equal(t, FramingVarint, cfg.Mode)
	assert.NoError(t, cfg.Validate())

	cfg.Mode = "xml"
	assert.Error(t, cfg.Validate())

	cfg.Mode = FramingWebSocket
	assert.NoError(t, cfg.Validate())
	cfg.WebSocketPath = "rtc"
	assert.Error(t, cfg.Validate())
}

func TestConfig_LogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidateAndFix(t *testing.T) {
	cfg := NewConfig()
	cfg.SCTP.SendLowWater, cfg.SCTP.SendHighWater = 100, 10
	cfg.SCTP.MaxStreams = 100000
	cfg.SCTP.FragmentSize = int(cfg.SCTP.MaxMessageSize)

	fixed, err := ValidateAndFix(cfg)
	require.NoError(t, err)
	assert.Equal(t, 10, fixed.SCTP.SendLowWater)
	assert.Equal(t, 100, fixed.SCTP.SendHighWater)
	assert.Equal(t, 65535, fixed.SCTP.MaxStreams)
	assert.Zero(t, fixed.SCTP.FragmentSize)
}

func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{
		"framing": {"enable": false, "max_frame_size": 4096},
		"sctp": {"max_streams": 16, "shutdown_timeout": "2s"}
	}`))
	require.NoError(t, err)

	assert.False(t, cfg.Framing.Enable)
	assert.Equal(t, 4096, cfg.Framing.MaxFrameSize)
	assert.Equal(t, 16, cfg.SCTP.MaxStreams)
	assert.Equal(t, 2*time.Second, cfg.SCTP.ShutdownTimeout.Duration())
	// 未给出的字段保留默认值
	assert.Equal(t, DefaultSCTPConfig().MaxMessageSize, cfg.SCTP.MaxMessageSize)

	_, err = FromJSON([]byte(`{"sctp": {"shutdown_timeout": "soon"}}`))
	assert.Error(t, err)
}

func TestToJSON_RoundTripFile(t *testing.T) {
	cfg := NewConfig()
	cfg.SCTP.MaxStreams = 42
	data, err := ToJSON(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"shutdown_timeout": "5s"`)

	path := filepath.Join(t.TempDir(), "rtcmux.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.SCTP.MaxStreams)
}

func TestApplyPreset(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, ApplyPreset(cfg, "legacy"))
	assert.Equal(t, 16*1024, cfg.SCTP.FragmentSize)
	assert.NoError(t, cfg.Validate())

	require.NoError(t, ApplyPreset(cfg, "bulk"))
	assert.NoError(t, cfg.Validate())

	require.NoError(t, ApplyPreset(cfg, "websocket"))
	assert.Equal(t, FramingWebSocket, cfg.Framing.Mode)
	assert.NoError(t, cfg.Validate())

	assert.Error(t, ApplyPreset(cfg, "unknown"))
	assert.Error(t, ApplyPreset(nil, "bulk"))
}

func TestCloneConfig(t *testing.T) {
	cfg := NewConfig()
	cloned := CloneConfig(cfg)
	cloned.SCTP.MaxStreams = 1
	assert.NotEqual(t, cfg.SCTP.MaxStreams, cloned.SCTP.MaxStreams)
	assert.Nil(t, CloneConfig(nil))
}
