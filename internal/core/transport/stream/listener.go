package stream

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
)

// Listener 接受入站连接并包装为 Transport
type Listener struct {
	listener net.Listener
	cfg      Config
	closed   atomic.Bool
}

// Listen 在 addr 上监听
func Listen(network, addr string, cfg Config) (*Listener, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(context.Background(), network, addr)
	if err != nil {
		return nil, fmt.Errorf("监听失败: %w", err)
	}
	return &Listener{listener: l, cfg: cfg}, nil
}

// Accept 接受一个连接
//
// ctx 取消时返回 ctx.Err()，监听器保持可用。
func (l *Listener) Accept(ctx context.Context) (*Transport, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := l.listener.Accept()
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return FromConn(r.conn, l.cfg), nil
	case <-ctx.Done():
		// 晚到的连接直接关闭
		go func() {
			if r := <-ch; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Addr 返回监听地址
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Close 关闭监听器
func (l *Listener) Close() error {
	if l.closed.CompareAndSwap(false, true) {
		return l.listener.Close()
	}
	return nil
}

// IsClosed 检查监听器是否已关闭
func (l *Listener) IsClosed() bool {
	return l.closed.Load()
}
