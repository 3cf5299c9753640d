package worker

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/dep2p/go-rtcmux/internal/util/queue"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
)

var logger = log.Logger("util/worker")

// Pool 固定数量 goroutine 的工作池
type Pool struct {
	tasks *queue.Queue[func()]
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
}

// NewPool 创建并启动工作池
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		tasks: queue.New[func()](0, nil),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		task, ok := p.tasks.Pop()
		if !ok {
			return
		}
		execute(task)
	}
}

func execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("任务 panic", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	task()
}

// Submit 提交任务
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.tasks.Push(task)
	return nil
}

// Pending 待执行任务数
func (p *Pool) Pending() int {
	return p.tasks.Size()
}

// Close 停止接收新任务，执行完已提交的任务后返回
//
// 不能在池内任务中调用。
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		p.tasks.Stop()
		p.wg.Wait()
	})
	return nil
}

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default 返回进程级共享工作池
//
// 未通过依赖注入获得 Pool 的组件使用它，它不会被关闭。
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool = NewPool(4)
	})
	return defaultPool
}
