package sctp

import (
	"context"
	"net"

	"github.com/dep2p/go-rtcmux/pkg/types"
)

// chunk 从协议栈读出的一个入站单元
type chunk struct {
	stream uint16
	ppid   PPID
	data   []byte
	// reset 对端重置了该流，data 为空
	reset bool
}

// socketHandler 协议栈事件回调，可在任意 goroutine 上调用
type socketHandler interface {
	// onReadable 有新的入站单元可读
	onReadable()
	// onWritable 协议栈缓冲量回落，可以继续写
	onWritable()
	// onClosed 关联被对端关闭或中止
	onClosed()
}

// socket 引擎与 SCTP 协议栈之间的边界
type socket interface {
	// write 写入一条消息；协议栈拒绝时返回 errWouldBlock
	write(stream uint16, ppid PPID, data []byte, rel *types.Reliability) error

	// read 非阻塞地取出一个入站单元
	read() (chunk, bool)

	// resetStream 发起流重置
	resetStream(stream uint16) error

	// shutdown 优雅关闭关联，阻塞到完成或 ctx 结束
	shutdown(ctx context.Context) error

	// abort 立即中止关联
	abort(reason string)

	// close 释放所有资源，可重复调用
	close() error

	bytesSent() uint64
	bytesReceived() uint64

	// rtt 平滑往返时延，尚未采样时返回 false
	rtt() (float64, bool)
}

// socketFactory 在 conn 上建立关联，阻塞到握手完成
type socketFactory func(conn net.Conn, cfg Config, role types.Role, h socketHandler) (socket, error)
