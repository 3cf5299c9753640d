package noise

import "errors"

var (
	// ErrInvalidHandshake 握手失败
	ErrInvalidHandshake = errors.New("noise: invalid handshake")

	// ErrRemoteKeyMismatch 对端静态公钥与期望不符
	ErrRemoteKeyMismatch = errors.New("noise: remote static key mismatch")

	// ErrStopped 层已停止
	ErrStopped = errors.New("noise: stopped")

	// ErrUnexpectedFrame 握手完成前收到多余的帧
	ErrUnexpectedFrame = errors.New("noise: unexpected frame")
)
