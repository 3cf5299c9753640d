package framing

import "errors"

var (
	// ErrFrameTooLarge 帧超过上限
	ErrFrameTooLarge = errors.New("framing: frame too large")

	// ErrBadPrefix 长度前缀非法
	ErrBadPrefix = errors.New("framing: bad length prefix")

	// ErrUnknownMode 未知的分帧方式
	ErrUnknownMode = errors.New("framing: unknown mode")

	// ErrStopped 层已停止
	ErrStopped = errors.New("framing: stopped")
)
