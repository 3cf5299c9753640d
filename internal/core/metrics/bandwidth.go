package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// BandwidthCounter 带宽计数器
//
// 跟踪多路复用层发送和接收的应用数据，按流 ID 细分。
// 全局计数使用原子操作，按流计数由读写锁保护的表维护。
type BandwidthCounter struct {
	clk clock.Clock

	totalIn  atomic.Int64
	totalOut atomic.Int64

	totalInRate  *RateMeter
	totalOutRate *RateMeter

	mu      sync.RWMutex
	streams map[uint16]*streamCounter
}

type streamCounter struct {
	in, out         atomic.Int64
	inRate, outRate *RateMeter
}

// NewBandwidthCounter 创建新的 BandwidthCounter
func NewBandwidthCounter() *BandwidthCounter {
	return NewBandwidthCounterWithClock(nil)
}

// NewBandwidthCounterWithClock 使用指定时钟创建，测试中传入 clock.NewMock()
func NewBandwidthCounterWithClock(clk clock.Clock) *BandwidthCounter {
	if clk == nil {
		clk = clock.New()
	}
	return &BandwidthCounter{
		clk:          clk,
		totalInRate:  NewRateMeter(clk),
		totalOutRate: NewRateMeter(clk),
		streams:      make(map[uint16]*streamCounter),
	}
}

func (bwc *BandwidthCounter) stream(id uint16) *streamCounter {
	bwc.mu.RLock()
	sc := bwc.streams[id]
	bwc.mu.RUnlock()
	if sc != nil {
		return sc
	}

	bwc.mu.Lock()
	defer bwc.mu.Unlock()
	if sc = bwc.streams[id]; sc == nil {
		sc = &streamCounter{
			inRate:  NewRateMeter(bwc.clk),
			outRate: NewRateMeter(bwc.clk),
		}
		bwc.streams[id] = sc
	}
	return sc
}

// LogSentMessage 记录流上发出的消息大小
func (bwc *BandwidthCounter) LogSentMessage(stream uint16, size int64) {
	bwc.totalOut.Add(size)
	bwc.totalOutRate.Add(size)

	sc := bwc.stream(stream)
	sc.out.Add(size)
	sc.outRate.Add(size)
}

// LogRecvMessage 记录流上收到的消息大小
func (bwc *BandwidthCounter) LogRecvMessage(stream uint16, size int64) {
	bwc.totalIn.Add(size)
	bwc.totalInRate.Add(size)

	sc := bwc.stream(stream)
	sc.in.Add(size)
	sc.inRate.Add(size)
}

// GetBandwidthForStream 返回单个流的带宽统计
func (bwc *BandwidthCounter) GetBandwidthForStream(stream uint16) Stats {
	bwc.mu.RLock()
	sc := bwc.streams[stream]
	bwc.mu.RUnlock()
	if sc == nil {
		return Stats{}
	}
	return sc.snapshot()
}

// GetBandwidthTotals 返回总带宽统计
func (bwc *BandwidthCounter) GetBandwidthTotals() Stats {
	return Stats{
		TotalIn:  bwc.totalIn.Load(),
		TotalOut: bwc.totalOut.Load(),
		RateIn:   bwc.totalInRate.Rate(),
		RateOut:  bwc.totalOutRate.Rate(),
	}
}

// GetBandwidthByStream 返回所有流的带宽统计
func (bwc *BandwidthCounter) GetBandwidthByStream() map[uint16]Stats {
	bwc.mu.RLock()
	defer bwc.mu.RUnlock()

	result := make(map[uint16]Stats, len(bwc.streams))
	for id, sc := range bwc.streams {
		result[id] = sc.snapshot()
	}
	return result
}

func (sc *streamCounter) snapshot() Stats {
	return Stats{
		TotalIn:  sc.in.Load(),
		TotalOut: sc.out.Load(),
		RateIn:   sc.inRate.Rate(),
		RateOut:  sc.outRate.Rate(),
	}
}

// Reset 清除所有统计
func (bwc *BandwidthCounter) Reset() {
	bwc.totalIn.Store(0)
	bwc.totalOut.Store(0)
	bwc.totalInRate.Reset()
	bwc.totalOutRate.Reset()

	bwc.mu.Lock()
	bwc.streams = make(map[uint16]*streamCounter)
	bwc.mu.Unlock()
}

// TrimIdle 清理 since 之后没有流量的流
func (bwc *BandwidthCounter) TrimIdle(since time.Time) {
	bwc.mu.Lock()
	defer bwc.mu.Unlock()

	for id, sc := range bwc.streams {
		if sc.inRate.LastUpdate().Before(since) && sc.outRate.LastUpdate().Before(since) {
			delete(bwc.streams, id)
		}
	}
}
