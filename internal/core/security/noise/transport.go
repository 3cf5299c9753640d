package noise

import (
	"fmt"
	"sync"

	"github.com/dep2p/go-rtcmux/internal/core/transport"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

var logger = log.Logger("core/security/noise")

// Transport Noise 安全层
type Transport struct {
	transport.Base

	cfg Config

	// mu 保护握手状态、接收缓冲和解密
	mu      sync.Mutex
	hs      *handshake
	reader  frameReader
	stopped bool
	failed  bool

	// sendMu 保证加密顺序与下层写入顺序一致
	sendMu sync.Mutex
}

var _ pkgif.Transport = (*Transport)(nil)

// New 在 lower 之上创建安全层
func New(lower pkgif.Transport, cfg Config) (*Transport, error) {
	if cfg.StaticKeypair.Private == nil {
		kp, err := GenerateKeypair()
		if err != nil {
			return nil, fmt.Errorf("generate keypair: %w", err)
		}
		cfg.StaticKeypair = kp
	}
	hs, err := newHandshake(cfg)
	if err != nil {
		return nil, err
	}

	t := &Transport{cfg: cfg, hs: hs}
	t.Init(lower)
	return t, nil
}

// LocalStatic 本端静态公钥
func (t *Transport) LocalStatic() []byte {
	return t.cfg.StaticKeypair.Public
}

// RemoteStatic 对端静态公钥，握手完成前为 nil
func (t *Transport) RemoteStatic() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hs.done() {
		return nil
	}
	return t.hs.hs.PeerStatic()
}

// Start 挂到下层并开始握手
func (t *Transport) Start() error {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return ErrStopped
	}
	t.RegisterIncoming(t.incoming)
	t.ChangeState(types.StateConnecting)

	if !t.cfg.Initiator {
		return nil
	}

	t.mu.Lock()
	msg1, err := t.hs.begin()
	t.mu.Unlock()
	if err != nil {
		t.fail(err)
		return nil
	}
	if _, err := t.Outgoing(types.NewBinary(0, appendFrame(nil, msg1))); err != nil {
		t.fail(fmt.Errorf("send message 1: %w", err))
	}
	return nil
}

// incoming 处理下层数据：切帧、推进握手或解密
func (t *Transport) incoming(msg *types.Message) {
	if msg == nil || !msg.IsData() {
		return
	}

	var (
		reply     []byte
		completed bool
		plain     [][]byte
		failure   error
	)

	t.mu.Lock()
	if t.stopped || t.failed {
		t.mu.Unlock()
		return
	}
	t.reader.write(msg.Data)
	for {
		frame, ok := t.reader.next()
		if !ok {
			break
		}
		if !t.hs.done() {
			out, err := t.hs.consume(frame)
			if err != nil {
				failure = err
				break
			}
			if out != nil {
				reply = appendFrame(reply, out)
			}
			if t.hs.done() {
				completed = true
			}
			continue
		}

		p, err := t.hs.recvCS.Decrypt(nil, nil, frame)
		if err != nil {
			failure = fmt.Errorf("decrypt: %w", err)
			break
		}
		if len(p) > 0 {
			plain = append(plain, p)
		}
	}
	if failure != nil {
		t.failed = true
	}
	t.mu.Unlock()

	if reply != nil {
		if _, err := t.Outgoing(types.NewBinary(0, reply)); err != nil && failure == nil {
			failure = fmt.Errorf("send handshake: %w", err)
		}
	}
	if completed && failure == nil {
		logger.Debug("握手完成", "initiator", t.cfg.Initiator)
		t.ChangeState(types.StateConnected)
	}
	for _, p := range plain {
		t.Recv(types.NewBinary(0, p))
	}
	if failure != nil {
		t.fail(failure)
	}
}

func (t *Transport) fail(err error) {
	t.mu.Lock()
	t.failed = true
	t.mu.Unlock()

	logger.Warn("安全层失败", "error", err)
	t.ChangeState(types.StateFailed)
}

// Send 加密并发送，超过 MaxPlaintext 的消息拆成多帧
func (t *Transport) Send(msg *types.Message) (bool, error) {
	if msg == nil {
		return t.Outgoing(nil)
	}
	if t.State() != types.StateConnected {
		return false, types.ErrNotConnected
	}

	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	data := msg.Data
	out := make([]byte, 0, len(data)+lengthPrefix+16)
	for {
		n := min(len(data), MaxPlaintext)
		ct, err := t.hs.sendCS.Encrypt(nil, nil, data[:n])
		if err != nil {
			return false, fmt.Errorf("encrypt: %w", err)
		}
		out = appendFrame(out, ct)
		data = data[n:]
		if len(data) == 0 {
			break
		}
	}
	return t.Outgoing(types.NewBinary(msg.Stream, out))
}

// Stop 解除与下层的绑定
func (t *Transport) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	t.mu.Unlock()

	t.UnregisterIncoming()
	t.ChangeState(types.StateDisconnected)
	return nil
}
