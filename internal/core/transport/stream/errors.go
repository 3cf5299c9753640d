package stream

import "errors"

var (
	// ErrAlreadyStarted 传输已启动
	ErrAlreadyStarted = errors.New("stream: already started")

	// ErrStopped 传输已停止
	ErrStopped = errors.New("stream: stopped")
)
