package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const rateBuckets = 60

// RateMeter 速率计算器（基于滑动窗口）
//
// 使用 60 个 1 秒桶计算最近 60 秒的平均速率。
type RateMeter struct {
	clk clock.Clock

	mu       sync.RWMutex
	buckets  [rateBuckets]int64
	lastIdx  int
	lastTime time.Time
	lastAdd  time.Time
}

// NewRateMeter 创建速率计算器，clk 为 nil 时使用系统时钟
func NewRateMeter(clk clock.Clock) *RateMeter {
	if clk == nil {
		clk = clock.New()
	}
	now := clk.Now()
	return &RateMeter{clk: clk, lastTime: now, lastAdd: now}
}

// Add 添加字节数到当前桶
func (r *RateMeter) Add(bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	r.advanceLocked(now)
	r.buckets[r.lastIdx] += bytes
	r.lastAdd = now
}

// advanceLocked 把窗口推进到 now，清空经过的桶
func (r *RateMeter) advanceLocked(now time.Time) {
	elapsed := now.Sub(r.lastTime)
	if elapsed < time.Second {
		return
	}
	seconds := int(elapsed / time.Second)
	if seconds >= rateBuckets {
		r.buckets = [rateBuckets]int64{}
		r.lastIdx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.lastIdx = (r.lastIdx + 1) % rateBuckets
			r.buckets[r.lastIdx] = 0
		}
	}
	r.lastTime = r.lastTime.Add(time.Duration(seconds) * time.Second)
}

// Rate 返回平均速率（字节/秒）
func (r *RateMeter) Rate() float64 {
	return float64(r.Total()) / rateBuckets
}

// Total 返回窗口内的总量
func (r *RateMeter) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advanceLocked(r.clk.Now())
	var total int64
	for _, v := range r.buckets {
		total += v
	}
	return total
}

// Reset 重置速率计算器
func (r *RateMeter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buckets = [rateBuckets]int64{}
	r.lastIdx = 0
	r.lastTime = r.clk.Now()
	r.lastAdd = r.lastTime
}

// LastUpdate 返回最后一次 Add 的时间
func (r *RateMeter) LastUpdate() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastAdd
}
