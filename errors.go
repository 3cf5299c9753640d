package rtcmux

import "errors"

var (
	// ErrEndpointClosed 端点已关闭
	ErrEndpointClosed = errors.New("rtcmux: endpoint closed")

	// ErrConnClosed 连接已关闭
	ErrConnClosed = errors.New("rtcmux: connection closed")

	// ErrListenerClosed 监听器已关闭
	ErrListenerClosed = errors.New("rtcmux: listener closed")
)
