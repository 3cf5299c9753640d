package worker

import "sync"

// Processor 在工作池上串行执行任务
//
// 任务按提交顺序执行，同一时刻最多一个任务在运行。
type Processor struct {
	pool *Pool

	mu      sync.Mutex
	idle    *sync.Cond
	tasks   []func()
	running bool
}

// NewProcessor 创建处理器，pool 为 nil 时在首次调度时使用 Default()
func NewProcessor(pool *Pool) *Processor {
	p := &Processor{pool: pool}
	p.idle = sync.NewCond(&p.mu)
	return p
}

// Enqueue 提交任务
func (p *Processor) Enqueue(task func()) {
	p.mu.Lock()
	p.tasks = append(p.tasks, task)
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.schedule()
}

func (p *Processor) schedule() {
	pool := p.pool
	if pool == nil {
		pool = Default()
	}
	if err := pool.Submit(p.runOne); err != nil {
		// 池已关闭，改用独立 goroutine 排空
		go p.runOne()
	}
}

func (p *Processor) runOne() {
	p.mu.Lock()
	if len(p.tasks) == 0 {
		p.running = false
		p.idle.Broadcast()
		p.mu.Unlock()
		return
	}
	task := p.tasks[0]
	p.tasks[0] = nil
	p.tasks = p.tasks[1:]
	p.mu.Unlock()

	execute(task)

	p.mu.Lock()
	if len(p.tasks) == 0 {
		p.running = false
		p.idle.Broadcast()
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.schedule()
}

// Join 等待所有已提交的任务执行完毕
//
// 不能在本处理器的任务中调用。
func (p *Processor) Join() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.running || len(p.tasks) > 0 {
		p.idle.Wait()
	}
}
