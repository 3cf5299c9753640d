package noise

import (
	"bytes"
	"crypto/rand"
	"fmt"

	"github.com/flynn/noise"
)

var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

// GenerateKeypair 生成 Curve25519 静态密钥对
func GenerateKeypair() (noise.DHKey, error) {
	return cipherSuite.GenerateKeypair(rand.Reader)
}

// handshake 单次 XX 握手的状态
//
// 调用方负责加锁。
type handshake struct {
	hs           *noise.HandshakeState
	initiator    bool
	remoteStatic []byte

	// step 已处理的握手消息数（含本端发出的）
	step int

	sendCS *noise.CipherState
	recvCS *noise.CipherState
}

func newHandshake(cfg Config) (*handshake, error) {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeXX,
		Initiator:     cfg.Initiator,
		Prologue:      cfg.Prologue,
		StaticKeypair: cfg.StaticKeypair,
	})
	if err != nil {
		return nil, fmt.Errorf("create handshake state: %w", err)
	}
	return &handshake{
		hs:           hs,
		initiator:    cfg.Initiator,
		remoteStatic: cfg.RemoteStatic,
	}, nil
}

// begin 发起者生成第一条消息 (-> e)
func (h *handshake) begin() ([]byte, error) {
	msg1, _, _, err := h.hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("write message 1: %w", err)
	}
	h.step = 1
	return msg1, nil
}

// done 握手是否完成
func (h *handshake) done() bool {
	return h.sendCS != nil
}

// consume 处理一条对端握手消息，返回需要回复的消息（可能为 nil）
func (h *handshake) consume(msg []byte) ([]byte, error) {
	if h.initiator {
		return h.consumeInitiator(msg)
	}
	return h.consumeResponder(msg)
}

// consumeInitiator 发起者：
//
//	<- e, ee, s, es
//	-> s, se
func (h *handshake) consumeInitiator(msg []byte) ([]byte, error) {
	if h.step != 1 {
		return nil, ErrUnexpectedFrame
	}
	if _, _, _, err := h.hs.ReadMessage(nil, msg); err != nil {
		return nil, fmt.Errorf("%w: read message 2: %v", ErrInvalidHandshake, err)
	}
	if err := h.verifyRemote(); err != nil {
		return nil, err
	}

	msg3, cs1, cs2, err := h.hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("write message 3: %w", err)
	}
	// cs1 = 发送密钥，cs2 = 接收密钥（对于发起者）
	h.sendCS, h.recvCS = cs1, cs2
	h.step = 3
	return msg3, nil
}

// consumeResponder 响应者：
//
//	<- e
//	-> e, ee, s, es
//	<- s, se
func (h *handshake) consumeResponder(msg []byte) ([]byte, error) {
	switch h.step {
	case 0:
		if _, _, _, err := h.hs.ReadMessage(nil, msg); err != nil {
			return nil, fmt.Errorf("%w: read message 1: %v", ErrInvalidHandshake, err)
		}
		msg2, _, _, err := h.hs.WriteMessage(nil, nil)
		if err != nil {
			return nil, fmt.Errorf("write message 2: %w", err)
		}
		h.step = 2
		return msg2, nil

	case 2:
		_, cs1, cs2, err := h.hs.ReadMessage(nil, msg)
		if err != nil {
			return nil, fmt.Errorf("%w: read message 3: %v", ErrInvalidHandshake, err)
		}
		if err := h.verifyRemote(); err != nil {
			return nil, err
		}
		// 与发起者相反
		h.sendCS, h.recvCS = cs2, cs1
		h.step = 3
		return nil, nil

	default:
		return nil, ErrUnexpectedFrame
	}
}

func (h *handshake) verifyRemote() error {
	peer := h.hs.PeerStatic()
	if len(peer) != 32 {
		return fmt.Errorf("%w: remote static key length %d", ErrInvalidHandshake, len(peer))
	}
	if len(h.remoteStatic) > 0 && !bytes.Equal(peer, h.remoteStatic) {
		return ErrRemoteKeyMismatch
	}
	return nil
}
