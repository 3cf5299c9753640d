package slot

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot_AttachOnce(t *testing.T) {
	var s Slot[string]
	assert.True(t, s.Empty())

	require.True(t, s.Attach("first"))
	assert.False(t, s.Attach("second"), "非空槽不应被覆盖")

	v, ok := s.Load()
	require.True(t, ok)
	assert.Equal(t, "first", v)

	v, ok = s.Take()
	require.True(t, ok)
	assert.Equal(t, "first", v)

	_, ok = s.Take()
	assert.False(t, ok)
	assert.True(t, s.Attach("third"))
}

func TestSlot_Store(t *testing.T) {
	var s Slot[int]
	_, ok := s.Store(1)
	assert.False(t, ok)
	old, ok := s.Store(2)
	require.True(t, ok)
	assert.Equal(t, 1, old)
}

func TestSlot_TakeRacesAttach(t *testing.T) {
	var s Slot[*int]
	var taken atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		v := i
		go func() {
			defer wg.Done()
			s.Attach(&v)
		}()
		go func() {
			defer wg.Done()
			if _, ok := s.Take(); ok {
				taken.Add(1)
			}
		}()
	}
	wg.Wait()

	// 每个成功挂载的值恰好被取出一次
	if _, ok := s.Take(); ok {
		taken.Add(1)
	}
	assert.GreaterOrEqual(t, taken.Load(), int32(1))
	assert.True(t, s.Empty())
}
