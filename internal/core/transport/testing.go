package transport

import (
	"sync"

	"github.com/dep2p/go-rtcmux/internal/util/queue"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// MemTransport 内存传输，成对使用
//
// 每个端点有独立的投递 goroutine，Send 不会同步回调到对端，
// 行为与真实网络一致。
type MemTransport struct {
	Base

	peer    *MemTransport
	deliver *queue.Queue[*types.Message]
	done    chan struct{}

	mu      sync.Mutex
	sent    []*types.Message
	started bool
	stopped bool
}

var _ pkgif.Transport = (*MemTransport)(nil)

// NewMemPair 创建一对相连的内存传输
func NewMemPair() (*MemTransport, *MemTransport) {
	a := newMem()
	b := newMem()
	a.peer, b.peer = b, a
	return a, b
}

func newMem() *MemTransport {
	return &MemTransport{
		deliver: queue.New[*types.Message](0, nil),
		done:    make(chan struct{}),
	}
}

// Start 启动投递并进入 Connected
func (m *MemTransport) Start() error {
	m.mu.Lock()
	if m.started || m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	go m.loop()
	m.ChangeState(types.StateConnected)
	return nil
}

func (m *MemTransport) loop() {
	defer close(m.done)
	for {
		msg, ok := m.deliver.Pop()
		if !ok {
			return
		}
		m.Recv(msg)
	}
}

// Send 发送给对端
func (m *MemTransport) Send(msg *types.Message) (bool, error) {
	if msg == nil {
		return true, nil
	}
	if m.State() != types.StateConnected {
		return false, types.ErrNotConnected
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.peer.deliver.Push(msg)
	return true, nil
}

// Sent 返回已发送消息的快照
func (m *MemTransport) Sent() []*types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*types.Message(nil), m.sent...)
}

// Fail 模拟失败
func (m *MemTransport) Fail() {
	m.ChangeState(types.StateFailed)
}

// Disconnect 模拟对端断开
func (m *MemTransport) Disconnect() {
	m.ChangeState(types.StateDisconnected)
}

// Stop 停止投递并等待投递 goroutine 退出
func (m *MemTransport) Stop() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	started := m.started
	m.mu.Unlock()

	m.deliver.Stop()
	if started {
		<-m.done
	}
	m.ChangeState(types.StateDisconnected)
	return nil
}
