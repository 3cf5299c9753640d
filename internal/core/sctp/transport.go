package sctp

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-rtcmux/internal/core/metrics"
	"github.com/dep2p/go-rtcmux/internal/core/transport"
	"github.com/dep2p/go-rtcmux/internal/util/queue"
	"github.com/dep2p/go-rtcmux/internal/util/worker"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

var logger = log.Logger("core/sctp")

// Option 构造选项
type Option func(*Transport)

// WithPool 指定执行接收和刷新任务的线程池
func WithPool(p *worker.Pool) Option {
	return func(t *Transport) { t.pool = p }
}

// WithReporter 指定指标上报
func WithReporter(r metrics.Reporter) Option {
	return func(t *Transport) { t.reporter = r }
}

// withSocketFactory 替换协议栈实现，测试使用
func withSocketFactory(f socketFactory) Option {
	return func(t *Transport) { t.newSocket = f }
}

// Transport 多路复用层
type Transport struct {
	transport.Base

	cfg       Config
	role      types.Role
	newSocket socketFactory
	pool      *worker.Pool
	reporter  metrics.Reporter
	proc      *worker.Processor

	conn *transport.PacketConn

	sockMu sync.RWMutex
	sock   socket

	started     atomic.Bool
	stopped     atomic.Bool
	stopOnce    sync.Once
	connectDone chan struct{}

	// 发送侧，sendMu 保护队列出队顺序与缓冲量表
	sendMu    sync.Mutex
	sendQueue *queue.Queue[*types.Message]
	buffered  map[uint16]int
	notifier  amountNotifier

	pendingRecv  atomic.Bool
	pendingFlush atomic.Bool

	// 接收侧，只在 proc 上访问
	partials [2]partial

	statsMu  sync.Mutex
	baseSent uint64
	baseRecv uint64
}

var _ pkgif.MuxTransport = (*Transport)(nil)

// New 在 lower 之上创建多路复用层
//
// role 决定关联握手中的角色：客户端主动发起 INIT。
func New(lower pkgif.Transport, role types.Role, cfg Config, opts ...Option) *Transport {
	t := &Transport{
		cfg:         cfg.normalize(),
		role:        role,
		newSocket:   newPionSocket,
		connectDone: make(chan struct{}),
		sendQueue:   queue.New[*types.Message](0, types.MessageSize),
		buffered:    make(map[uint16]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Init(lower)
	t.proc = worker.NewProcessor(t.pool)
	return t
}

// Start 挂到下层并在后台建立关联
func (t *Transport) Start() error {
	if t.stopped.Load() {
		return ErrStopped
	}
	if !t.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	t.conn = transport.NewPacketConn(t.Lower(), t.cfg.InboxSize)
	t.RegisterIncoming(t.conn.Deliver)
	t.ChangeState(types.StateConnecting)

	logger.Debug("建立关联",
		"role", t.role,
		"localPort", t.cfg.LocalPort,
		"remotePort", t.cfg.RemotePort)

	go t.connect()
	return nil
}

func (t *Transport) connect() {
	defer close(t.connectDone)

	sock, err := t.newSocket(t.conn, t.cfg, t.role, t)
	if err != nil {
		if !t.stopped.Load() {
			logger.Warn("关联建立失败", "error", err)
			t.ChangeState(types.StateFailed)
		}
		return
	}

	t.sockMu.Lock()
	if t.stopped.Load() {
		t.sockMu.Unlock()
		_ = sock.close()
		return
	}
	t.sock = sock
	t.sockMu.Unlock()

	if t.reporter != nil {
		t.reporter.AssociationOpened()
	}
	logger.Debug("关联已建立", "role", t.role)
	t.ChangeState(types.StateConnected)

	// 握手期间可能已有入站数据
	t.onReadable()
}

func (t *Transport) socket() socket {
	t.sockMu.RLock()
	defer t.sockMu.RUnlock()
	return t.sock
}

// MaxStream 返回可用的流数量上限
func (t *Transport) MaxStream() int {
	return t.cfg.MaxStreams
}

// OnBufferedAmount 设置缓冲量变化回调
func (t *Transport) OnBufferedAmount(cb pkgif.BufferedAmountCallback) {
	t.notifier.setCallback(cb)
}

// BufferedAmount 返回流在发送队列中的字节数
func (t *Transport) BufferedAmount(stream uint16) int {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.buffered[stream]
}

// CloseStream 重置流，排在该流已入队的数据之后
func (t *Transport) CloseStream(stream uint16) error {
	_, err := t.Send(&types.Message{Type: types.MessageReset, Stream: stream})
	return err
}

// Close 刷新队列后优雅关闭关联
//
// 超时或失败时中止关联并进入 Failed，成功时进入 Disconnected。
func (t *Transport) Close() error {
	sock := t.socket()
	if sock == nil || t.stopped.Load() {
		return t.Stop()
	}

	if _, err := t.Flush(); err != nil {
		logger.Debug("关闭前刷新失败", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.ShutdownTimeout)
	defer cancel()
	if err := sock.shutdown(ctx); err != nil {
		logger.Warn("优雅关闭失败，中止关联", "error", err)
		sock.abort("shutdown failed")
		t.ChangeState(types.StateFailed)
		_ = t.Stop()
		return err
	}
	return t.Stop()
}

// Stop 立即释放关联并解除与下层的绑定，可重复调用
//
// 已处于 Failed 时保持 Failed，否则进入 Disconnected。
//
// 不能在本层的回调中调用：Stop 会等待建立关联的 goroutine 退出。
func (t *Transport) Stop() error {
	t.stopOnce.Do(func() {
		t.stopped.Store(true)
		t.sendQueue.Stop()
		t.UnregisterIncoming()

		if t.started.Load() {
			_ = t.conn.Close()
			<-t.connectDone
		}

		t.sockMu.Lock()
		sock := t.sock
		t.sock = nil
		t.sockMu.Unlock()

		if sock != nil {
			if err := sock.close(); err != nil {
				logger.Debug("关闭关联", "error", err)
			}
			if t.reporter != nil {
				t.reporter.AssociationClosed()
			}
		}

		t.sendMu.Lock()
		var total int
		for _, n := range t.buffered {
			total += n
		}
		t.buffered = make(map[uint16]int)
		t.sendMu.Unlock()
		if t.reporter != nil && total > 0 {
			t.reporter.AddBuffered(-int64(total))
		}

		if t.State() != types.StateFailed {
			t.ChangeState(types.StateDisconnected)
		}
	})
	return nil
}

// Stats 返回关联统计
func (t *Transport) Stats() types.MuxStats {
	sock := t.socket()
	if sock == nil {
		return types.MuxStats{}
	}

	t.statsMu.Lock()
	sent, recv := t.baseSent, t.baseRecv
	t.statsMu.Unlock()

	st := types.MuxStats{
		BytesSent:     sock.bytesSent() - sent,
		BytesReceived: sock.bytesReceived() - recv,
	}
	if ms, ok := sock.rtt(); ok {
		st.RTT = time.Duration(ms * float64(time.Millisecond))
		st.HasRTT = true
	}
	return st
}

// ClearStats 清零字节计数
func (t *Transport) ClearStats() {
	sock := t.socket()
	if sock == nil {
		return
	}
	t.statsMu.Lock()
	t.baseSent = sock.bytesSent()
	t.baseRecv = sock.bytesReceived()
	t.statsMu.Unlock()
}

// onReadable 实现 socketHandler，合并为至多一个排队的接收任务
func (t *Transport) onReadable() {
	if t.stopped.Load() || !t.pendingRecv.CompareAndSwap(false, true) {
		return
	}
	t.proc.Enqueue(func() {
		t.pendingRecv.Store(false)
		t.doRecv()
	})
}

// onClosed 实现 socketHandler
func (t *Transport) onClosed() {
	if t.stopped.Load() {
		return
	}
	logger.Debug("关联已被对端关闭")
	t.ChangeState(types.StateDisconnected)
}

// onWritable 实现 socketHandler，合并为至多一个排队的刷新任务
func (t *Transport) onWritable() {
	if t.stopped.Load() || !t.pendingFlush.CompareAndSwap(false, true) {
		return
	}
	t.proc.Enqueue(func() {
		t.pendingFlush.Store(false)
		if _, err := t.Flush(); err != nil {
			logger.Debug("刷新失败", "error", err)
		}
	})
}
