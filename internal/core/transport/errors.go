package transport

import "errors"

var (
	// ErrConnClosed 适配连接已关闭
	ErrConnClosed = errors.New("transport: conn closed")
)
