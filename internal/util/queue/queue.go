package queue

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Option 队列选项
type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock 设置 WaitTimeout 使用的时钟
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Queue 有界并发 FIFO 队列
type Queue[T any] struct {
	mu       sync.Mutex
	popCond  *sync.Cond
	pushCond *sync.Cond

	items   []T
	limit   int
	amount  int
	weight  func(T) int
	stopped bool

	clock clock.Clock
}

// New 创建队列
//
// limit 为 0 表示无界。weight 为 nil 时每个元素权重为 1。
func New[T any](limit int, weight func(T) int, opts ...Option) *Queue[T] {
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	if limit < 0 {
		limit = 0
	}
	if weight == nil {
		weight = func(T) int { return 1 }
	}

	q := &Queue[T]{
		limit:  limit,
		weight: weight,
		clock:  o.clock,
	}
	q.popCond = sync.NewCond(&q.mu)
	q.pushCond = sync.NewCond(&q.mu)
	return q
}

// Push 将元素追加到队尾
//
// 有界且已满时阻塞，直到有空间或队列停止。
// 队列停止后调用 Push 会静默丢弃元素。
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.limit > 0 && len(q.items) >= q.limit && !q.stopped {
		q.pushCond.Wait()
	}
	if q.stopped {
		return
	}

	q.items = append(q.items, v)
	q.amount += q.weight(v)
	q.popCond.Broadcast()
}

// Pop 取出队首元素
//
// 队列为空时阻塞，直到有元素或队列停止。
// 停止且为空时返回 false。
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.stopped {
		q.popCond.Wait()
	}
	return q.popLocked()
}

// TryPop 非阻塞地取出队首元素
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	q.amount -= q.weight(v)
	q.pushCond.Broadcast()
	return v, true
}

// Peek 返回队首元素但不取出
func (q *Queue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// Exchange 原地替换队首元素，返回被替换的元素
//
// 队列为空时不做任何事并返回 false。顺序不变，Amount 随权重差调整。
func (q *Queue[T]) Exchange(v T) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	old := q.items[0]
	q.items[0] = v
	q.amount += q.weight(v) - q.weight(old)
	return old, true
}

// Wait 阻塞直到有元素可取或队列停止，返回是否有元素
func (q *Queue[T]) Wait() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.stopped {
		q.popCond.Wait()
	}
	return len(q.items) > 0
}

// WaitTimeout 与 Wait 相同，但最多等待 d
//
// 超时不会改变队列状态。
func (q *Queue[T]) WaitTimeout(d time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) > 0 || q.stopped {
		return len(q.items) > 0
	}
	if d <= 0 {
		return false
	}

	expired := false
	timer := q.clock.AfterFunc(d, func() {
		q.mu.Lock()
		expired = true
		q.popCond.Broadcast()
		q.mu.Unlock()
	})
	defer timer.Stop()

	for len(q.items) == 0 && !q.stopped && !expired {
		q.popCond.Wait()
	}
	return len(q.items) > 0
}

// Stop 停止队列并唤醒所有等待者
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stopped = true
	q.popCond.Broadcast()
	q.pushCond.Broadcast()
}

// Running 未停止或仍有剩余元素时返回 true
func (q *Queue[T]) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.stopped || len(q.items) > 0
}

// Stopped 是否已停止
func (q *Queue[T]) Stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}

// Empty 是否为空
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Full 有界且已达上限时返回 true
func (q *Queue[T]) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.limit > 0 && len(q.items) >= q.limit
}

// Size 元素个数
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Amount 所有元素的权重之和
func (q *Queue[T]) Amount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.amount
}
