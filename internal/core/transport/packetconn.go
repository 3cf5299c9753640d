package transport

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-rtcmux/internal/util/queue"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// PacketConn 把消息传输适配为 net.Conn
//
// 入站消息由持有者通过 Deliver 放入有界收件箱，收件箱满时 Deliver 阻塞，
// 背压沿下层的读循环向外传递。
type PacketConn struct {
	lower  pkgif.Transport
	stream uint16
	inbox  *queue.Queue[[]byte]
	closed atomic.Bool
}

var _ net.Conn = (*PacketConn)(nil)

// NewPacketConn 创建适配连接
//
// inboxSize 为收件箱消息条数上限，0 表示无界。
func NewPacketConn(lower pkgif.Transport, inboxSize int) *PacketConn {
	return &PacketConn{
		lower: lower,
		inbox: queue.New[[]byte](inboxSize, func(b []byte) int { return len(b) }),
	}
}

// Deliver 放入一条入站消息
func (c *PacketConn) Deliver(msg *types.Message) {
	if msg == nil || !msg.IsData() {
		return
	}
	c.inbox.Push(msg.Data)
}

// Buffered 收件箱中待读取的字节数
func (c *PacketConn) Buffered() int {
	return c.inbox.Amount()
}

// Read 读取一条消息；p 不足时截断
func (c *PacketConn) Read(p []byte) (int, error) {
	data, ok := c.inbox.Pop()
	if !ok {
		return 0, net.ErrClosed
	}
	return copy(p, data), nil
}

// Write 把 p 作为一条二进制消息发给下层
func (c *PacketConn) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrConnClosed
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	if _, err := c.lower.Send(types.NewBinary(c.stream, buf)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close 关闭连接，阻塞中的 Read 返回 net.ErrClosed
//
// 协议栈把 io.EOF 当作流重置转交给所有流，这里不能返回 io.EOF。
func (c *PacketConn) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.inbox.Stop()
	}
	return nil
}

// LocalAddr 返回占位地址
func (c *PacketConn) LocalAddr() net.Addr { return packetAddr{} }

// RemoteAddr 返回占位地址
func (c *PacketConn) RemoteAddr() net.Addr { return packetAddr{} }

// SetDeadline 不支持，始终返回 nil
func (c *PacketConn) SetDeadline(time.Time) error { return nil }

// SetReadDeadline 不支持，始终返回 nil
func (c *PacketConn) SetReadDeadline(time.Time) error { return nil }

// SetWriteDeadline 不支持，始终返回 nil
func (c *PacketConn) SetWriteDeadline(time.Time) error { return nil }

type packetAddr struct{}

func (packetAddr) Network() string { return "rtcmux" }
func (packetAddr) String() string  { return "rtcmux:packet" }
