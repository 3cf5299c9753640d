package rtcmux

import (
	"context"
	"errors"
	"net"

	"github.com/dep2p/go-rtcmux/internal/core/transport/stream"
)

// Listener 接受入站连接
type Listener struct {
	ep    *Endpoint
	inner *stream.Listener
}

// Accept 接受一个连接并等待其打开
//
// 打开失败的连接被丢弃，继续接受下一个。
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	for {
		raw, err := l.inner.Accept(ctx)
		if err != nil {
			if l.inner.IsClosed() && errors.Is(err, net.ErrClosed) {
				return nil, ErrListenerClosed
			}
			return nil, err
		}

		c, err := l.ep.open(raw, RoleServer)
		if err != nil {
			return nil, err
		}
		if err := c.WaitOpen(ctx); err != nil {
			_ = c.Close()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug("入站连接打开失败", "error", err)
			continue
		}
		return c, nil
	}
}

// Addr 返回监听地址
func (l *Listener) Addr() net.Addr {
	return l.inner.Addr()
}

// Close 停止监听，已接受的连接不受影响
func (l *Listener) Close() error {
	l.ep.removeListener(l)
	return l.inner.Close()
}
