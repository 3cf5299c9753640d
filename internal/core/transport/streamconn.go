package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-rtcmux/internal/util/queue"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// StreamConn 把字节流传输适配为 net.Conn
//
// 与 PacketConn 不同，入站字节块之间没有边界，Read 可以跨块读取，
// 也可以把一块分几次读完。
type StreamConn struct {
	lower  pkgif.Transport
	inbox  *queue.Queue[[]byte]
	closed atomic.Bool

	mu   sync.Mutex
	rest []byte
}

var _ net.Conn = (*StreamConn)(nil)

// NewStreamConn 创建字节流适配连接，inboxSize 为 0 表示无界
func NewStreamConn(lower pkgif.Transport, inboxSize int) *StreamConn {
	return &StreamConn{
		lower: lower,
		inbox: queue.New[[]byte](inboxSize, func(b []byte) int { return len(b) }),
	}
}

// Deliver 放入一块入站字节
func (c *StreamConn) Deliver(msg *types.Message) {
	if msg == nil || !msg.IsData() || len(msg.Data) == 0 {
		return
	}
	c.inbox.Push(msg.Data)
}

// Read 读取已到达的字节，没有数据时阻塞
func (c *StreamConn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.rest) == 0 {
		data, ok := c.inbox.Pop()
		if !ok {
			return 0, net.ErrClosed
		}
		c.rest = data
	}
	n := copy(p, c.rest)
	c.rest = c.rest[n:]
	return n, nil
}

// Write 把 p 作为一块二进制数据发给下层
func (c *StreamConn) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrConnClosed
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	if _, err := c.lower.Send(types.NewBinary(0, buf)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close 关闭连接，阻塞中的 Read 返回 net.ErrClosed
func (c *StreamConn) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.inbox.Stop()
	}
	return nil
}

// LocalAddr 返回占位地址
func (c *StreamConn) LocalAddr() net.Addr { return streamAddr{} }

// RemoteAddr 返回占位地址
func (c *StreamConn) RemoteAddr() net.Addr { return streamAddr{} }

// SetDeadline 不支持，始终返回 nil
func (c *StreamConn) SetDeadline(time.Time) error { return nil }

// SetReadDeadline 不支持，始终返回 nil
func (c *StreamConn) SetReadDeadline(time.Time) error { return nil }

// SetWriteDeadline 不支持，始终返回 nil
func (c *StreamConn) SetWriteDeadline(time.Time) error { return nil }

type streamAddr struct{}

func (streamAddr) Network() string { return "rtcmux" }
func (streamAddr) String() string  { return "rtcmux:stream" }
