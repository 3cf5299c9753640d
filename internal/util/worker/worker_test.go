package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"

	"github.com/dep2p/go-rtcmux/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_RunsTasks(t *testing.T) {
	p := NewPool(2)

	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			n.Add(1)
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(100), n.Load())
	require.NoError(t, p.Close())
}

func TestPool_CloseDrains(t *testing.T) {
	p := NewPool(1)

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(func() {
			time.Sleep(time.Millisecond)
			n.Add(1)
		}))
	}
	require.NoError(t, p.Close())
	assert.Equal(t, int32(10), n.Load(), "Close 应执行完已提交的任务")
	assert.Zero(t, p.Pending())

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
	assert.NoError(t, p.Close())
}

func TestPool_RecoversPanic(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	require.NoError(t, p.Submit(func() { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panic 之后工作池应继续运行")
	}
}

func TestProcessor_Serializes(t *testing.T) {
	p := NewPool(4)
	defer p.Close()
	proc := NewProcessor(p)

	var active, maxActive atomic.Int32
	var order []int
	var mu sync.Mutex
	for i := 0; i < 50; i++ {
		proc.Enqueue(func() {
			cur := active.Add(1)
			for {
				m := maxActive.Load()
				if cur <= m || maxActive.CompareAndSwap(m, cur) {
					break
				}
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			active.Add(-1)
		})
	}
	proc.Join()

	assert.Equal(t, int32(1), maxActive.Load())
	require.Len(t, order, 50)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestProcessor_ClosedPoolFallback(t *testing.T) {
	p := NewPool(1)
	require.NoError(t, p.Close())

	proc := NewProcessor(p)
	var ran atomic.Bool
	proc.Enqueue(func() { ran.Store(true) })
	proc.Join()
	assert.True(t, ran.Load())
}

func TestModule(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Worker.Workers = 2

	var pool *Pool
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module,
		fx.Populate(&pool),
	)
	app.RequireStart()
	require.NotNil(t, pool)

	done := make(chan struct{})
	require.NoError(t, pool.Submit(func() { close(done) }))
	<-done

	require.NoError(t, app.Stop(context.Background()))
	assert.ErrorIs(t, pool.Submit(func() {}), ErrPoolClosed)
}
