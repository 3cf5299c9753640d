package framing

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/multiformats/go-varint"

	"github.com/dep2p/go-rtcmux/config"
	"github.com/dep2p/go-rtcmux/internal/core/transport"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

var logger = log.Logger("core/framing")

// Config 分帧配置
type Config struct {
	Mode         string
	MaxFrameSize int

	// 以下仅用于 WebSocket 分帧
	Host             string
	Path             string
	HandshakeTimeout time.Duration
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg *config.Config) Config {
	fc := config.DefaultFramingConfig()
	if cfg != nil {
		fc = cfg.Framing
	}
	return Config{
		Mode:             fc.Mode,
		MaxFrameSize:     fc.MaxFrameSize,
		Host:             fc.WebSocketHost,
		Path:             fc.WebSocketPath,
		HandshakeTimeout: fc.HandshakeTimeout.Duration(),
	}
}

// NewFromConfig 按 cfg.Mode 创建分帧层
func NewFromConfig(lower pkgif.Transport, role types.Role, cfg Config) (pkgif.Transport, error) {
	switch cfg.Mode {
	case "", config.FramingVarint:
		return New(lower, cfg), nil
	case config.FramingWebSocket:
		return NewWebSocket(lower, role, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}

// Transport 分帧层
type Transport struct {
	transport.Base

	cfg Config

	mu      sync.Mutex
	buf     []byte
	stopped bool
	failed  bool
}

var _ pkgif.Transport = (*Transport)(nil)

// New 在 lower 之上创建分帧层
func New(lower pkgif.Transport, cfg Config) *Transport {
	if cfg.MaxFrameSize <= 0 {
		cfg = ConfigFromUnified(nil)
	}
	t := &Transport{cfg: cfg}
	t.Init(lower)
	return t
}

// Start 挂到下层，立即进入 Connected
func (t *Transport) Start() error {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return ErrStopped
	}
	t.RegisterIncoming(t.incoming)
	t.ChangeState(types.StateConnected)
	return nil
}

// Send 加上长度前缀发送
func (t *Transport) Send(msg *types.Message) (bool, error) {
	if msg == nil {
		return t.Outgoing(nil)
	}
	if len(msg.Data) > t.cfg.MaxFrameSize {
		return false, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(msg.Data), t.cfg.MaxFrameSize)
	}
	return t.Outgoing(types.NewBinary(msg.Stream, Encode(msg.Data)))
}

// Encode 编码一帧
func Encode(data []byte) []byte {
	out := make([]byte, 0, varint.UvarintSize(uint64(len(data)))+len(data))
	out = append(out, varint.ToUvarint(uint64(len(data)))...)
	return append(out, data...)
}

func (t *Transport) incoming(msg *types.Message) {
	if msg == nil || !msg.IsData() {
		return
	}

	t.mu.Lock()
	if t.stopped || t.failed {
		t.mu.Unlock()
		return
	}
	t.buf = append(t.buf, msg.Data...)
	frames, err := t.split()
	if err != nil {
		t.failed = true
	}
	t.mu.Unlock()

	for _, f := range frames {
		t.Recv(types.NewBinary(0, f))
	}
	if err != nil {
		logger.Warn("分帧失败", "error", err)
		t.ChangeState(types.StateFailed)
	}
}

// split 切出缓冲区中的完整帧，调用方持有 mu
func (t *Transport) split() ([][]byte, error) {
	var frames [][]byte
	for len(t.buf) > 0 {
		size, n, err := varint.FromUvarint(t.buf)
		if err != nil {
			if errors.Is(err, varint.ErrUnderflow) {
				// 前缀尚不完整
				break
			}
			return frames, fmt.Errorf("%w: %v", ErrBadPrefix, err)
		}
		if size > uint64(t.cfg.MaxFrameSize) {
			return frames, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, t.cfg.MaxFrameSize)
		}
		end := n + int(size)
		if len(t.buf) < end {
			break
		}
		frame := make([]byte, size)
		copy(frame, t.buf[n:end])
		frames = append(frames, frame)
		t.buf = t.buf[end:]
	}
	if len(t.buf) == 0 {
		t.buf = nil
	}
	return frames, nil
}

// Stop 解除与下层的绑定
func (t *Transport) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	t.buf = nil
	t.mu.Unlock()

	t.UnregisterIncoming()
	t.ChangeState(types.StateDisconnected)
	return nil
}
