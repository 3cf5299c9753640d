package sctp

import (
	"sync"

	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
)

type amountEvent struct {
	stream uint16
	amount int
}

// amountNotifier 串行递交缓冲量变化
//
// 事件在 sendMu 内按发生顺序登记，在锁外递交。同一时刻只有一个
// goroutine 在递交；其他 goroutine（包括回调中重入的 Send）登记的
// 事件由正在递交的 goroutine 按序送出。
type amountNotifier struct {
	cbMu sync.RWMutex
	cb   pkgif.BufferedAmountCallback

	mu          sync.Mutex
	pending     []amountEvent
	dispatching bool
}

func (n *amountNotifier) setCallback(cb pkgif.BufferedAmountCallback) {
	n.cbMu.Lock()
	n.cb = cb
	n.cbMu.Unlock()
}

func (n *amountNotifier) callback() pkgif.BufferedAmountCallback {
	n.cbMu.RLock()
	defer n.cbMu.RUnlock()
	return n.cb
}

func (n *amountNotifier) enqueue(stream uint16, amount int) {
	n.mu.Lock()
	n.pending = append(n.pending, amountEvent{stream: stream, amount: amount})
	n.mu.Unlock()
}

func (n *amountNotifier) dispatch() {
	n.mu.Lock()
	if n.dispatching {
		n.mu.Unlock()
		return
	}
	n.dispatching = true
	for len(n.pending) > 0 {
		batch := n.pending
		n.pending = nil
		n.mu.Unlock()

		if cb := n.callback(); cb != nil {
			for _, ev := range batch {
				cb(ev.stream, ev.amount)
			}
		}

		n.mu.Lock()
	}
	n.dispatching = false
	n.mu.Unlock()
}
