package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func byteLen(b []byte) int { return len(b) }

// ============================================================================
//                              基本操作
// ============================================================================

func TestQueue_FIFO(t *testing.T) {
	q := New[int](0, nil)
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	assert.Equal(t, 5, q.Size())
	assert.Equal(t, 5, q.Amount())

	for i := 0; i < 5; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.Empty())

	_, ok := q.TryPop()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
}

func TestQueue_AmountMatchesWeights(t *testing.T) {
	q := New[[]byte](0, byteLen)

	q.Push([]byte("abc"))
	q.Push(nil)
	q.Push([]byte("hello"))
	assert.Equal(t, 8, q.Amount())

	v, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), v)
	assert.Equal(t, 8, q.Amount(), "Peek 不应改变 Amount")

	_, _ = q.TryPop()
	assert.Equal(t, 5, q.Amount())
	_, _ = q.TryPop()
	assert.Equal(t, 5, q.Amount())
	_, _ = q.TryPop()
	assert.Equal(t, 0, q.Amount())
}

func TestQueue_Exchange(t *testing.T) {
	q := New[[]byte](0, byteLen)

	_, ok := q.Exchange([]byte("x"))
	assert.False(t, ok, "空队列 Exchange 应失败")
	assert.True(t, q.Empty())

	q.Push([]byte("abcdef"))
	q.Push([]byte("gh"))

	old, ok := q.Exchange([]byte("ef"))
	require.True(t, ok)
	assert.Equal(t, []byte("abcdef"), old)
	assert.Equal(t, 2, q.Size())
	assert.Equal(t, 4, q.Amount())

	v, _ := q.Pop()
	assert.Equal(t, []byte("ef"), v)
	v, _ = q.Pop()
	assert.Equal(t, []byte("gh"), v)
}

func TestQueue_Full(t *testing.T) {
	q := New[int](2, nil)
	assert.False(t, q.Full())
	q.Push(1)
	q.Push(2)
	assert.True(t, q.Full())

	unbounded := New[int](0, nil)
	for i := 0; i < 100; i++ {
		unbounded.Push(i)
	}
	assert.False(t, unbounded.Full())
}

// ============================================================================
//                              阻塞与停止
// ============================================================================

func TestQueue_PushBlocksUntilRoom(t *testing.T) {
	q := New[int](1, nil)
	q.Push(1)

	done := make(chan struct{})
	go func() {
		q.Push(2)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Push 不应在队列满时返回")
	case <-time.After(50 * time.Millisecond):
	}

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pop 之后 Push 应返回")
	}
	assert.Equal(t, 1, q.Size())
}

func TestQueue_StopReleasesBlocked(t *testing.T) {
	full := New[int](1, nil)
	full.Push(1)
	empty := New[int](0, nil)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		full.Push(2)
	}()
	var popOK bool
	go func() {
		defer wg.Done()
		_, popOK = empty.Pop()
	}()
	var waitOK bool
	go func() {
		defer wg.Done()
		waitOK = empty.Wait()
	}()

	time.Sleep(20 * time.Millisecond)
	full.Stop()
	empty.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop 应唤醒所有阻塞调用")
	}

	assert.False(t, popOK)
	assert.False(t, waitOK)
	assert.Equal(t, 1, full.Size(), "被唤醒的 Push 应丢弃元素")
}

func TestQueue_PushAfterStop(t *testing.T) {
	q := New[[]byte](0, byteLen)
	q.Push([]byte("keep"))
	q.Stop()
	q.Stop()

	q.Push([]byte("dropped"))
	assert.Equal(t, 1, q.Size())
	assert.Equal(t, 4, q.Amount())
	assert.True(t, q.Running(), "停止后仍有元素时 Running 为 true")

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, []byte("keep"), v)

	_, ok = q.Pop()
	assert.False(t, ok)
	assert.False(t, q.Running())
	assert.True(t, q.Stopped())
}

// ============================================================================
//                              WaitTimeout
// ============================================================================

func TestQueue_WaitTimeoutExpires(t *testing.T) {
	mock := clock.NewMock()
	q := New[int](0, nil, WithClock(mock))

	result := make(chan bool, 1)
	go func() {
		result <- q.WaitTimeout(time.Second)
	}()

	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		select {
		case r := <-result:
			assert.False(t, r)
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	assert.True(t, q.Empty())
	assert.False(t, q.Stopped(), "超时不应改变队列状态")
}

func TestQueue_WaitTimeoutWakesOnPush(t *testing.T) {
	mock := clock.NewMock()
	q := New[int](0, nil, WithClock(mock))

	result := make(chan bool, 1)
	go func() {
		result <- q.WaitTimeout(time.Hour)
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42)

	select {
	case r := <-result:
		assert.True(t, r)
	case <-time.After(time.Second):
		t.Fatal("Push 应唤醒 WaitTimeout")
	}
	assert.Equal(t, 1, q.Size(), "WaitTimeout 不应取出元素")
}

func TestQueue_WaitTimeoutImmediate(t *testing.T) {
	q := New[int](0, nil)
	assert.False(t, q.WaitTimeout(0))
	q.Push(1)
	assert.True(t, q.WaitTimeout(0))
	assert.True(t, q.Wait())
}

// ============================================================================
//                              并发
// ============================================================================

func TestQueue_ConcurrentProducersConsumers(t *testing.T) {
	const producers, perProducer = 4, 250
	q := New[[]byte](8, byteLen)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push([]byte{byte(i)})
			}
		}()
	}

	got := make(chan int, 1)
	go func() {
		n := 0
		for {
			if _, ok := q.Pop(); !ok {
				got <- n
				return
			}
			n++
		}
	}()

	wg.Wait()
	require.Eventually(t, q.Empty, time.Second, time.Millisecond)
	q.Stop()

	assert.Equal(t, producers*perProducer, <-got)
	assert.Equal(t, 0, q.Amount())
}
