package framing

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/multiformats/go-varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dep2p/go-rtcmux/internal/core/transport"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chunkedLower 记录 Send 并允许测试手动注入任意切分的字节块
type chunkedLower struct {
	transport.Base

	mu   sync.Mutex
	sent [][]byte
}

func (l *chunkedLower) Start() error { l.ChangeState(types.StateConnected); return nil }
func (l *chunkedLower) Stop() error  { return nil }
func (l *chunkedLower) Send(m *types.Message) (bool, error) {
	if m == nil {
		return true, nil
	}
	l.mu.Lock()
	l.sent = append(l.sent, m.Data)
	l.mu.Unlock()
	return true, nil
}

func (l *chunkedLower) inject(data []byte) {
	l.Recv(types.NewBinary(0, data))
}

func newFraming(max int) (*Transport, *chunkedLower, *[][]byte) {
	lower := &chunkedLower{}
	f := New(lower, Config{MaxFrameSize: max})
	var got [][]byte
	f.OnRecv(func(m *types.Message) { got = append(got, m.Data) })
	return f, lower, &got
}

func TestFraming_ConnectedOnStart(t *testing.T) {
	f, _, _ := newFraming(16)
	var states []types.TransportState
	f.OnStateChange(func(s types.TransportState) { states = append(states, s) })
	require.NoError(t, f.Start())
	assert.Equal(t, []types.TransportState{types.StateConnected}, states)
}

func TestFraming_SendEncodes(t *testing.T) {
	f, lower, _ := newFraming(1024)
	require.NoError(t, f.Start())

	_, err := f.Send(types.NewBinary(0, []byte("hello")))
	require.NoError(t, err)
	_, err = f.Send(types.NewBinary(0, nil))
	require.NoError(t, err)

	require.Len(t, lower.sent, 2)
	assert.Equal(t, append([]byte{5}, "hello"...), lower.sent[0])
	assert.Equal(t, []byte{0}, lower.sent[1])

	_, err = f.Send(types.NewBinary(0, make([]byte, 1025)))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestFraming_ReassemblesArbitraryChunks(t *testing.T) {
	f, lower, got := newFraming(1 << 16)
	require.NoError(t, f.Start())

	msgs := [][]byte{
		[]byte("a"),
		bytes.Repeat([]byte("b"), 300), // 两字节前缀
		{},
		[]byte("tail"),
	}
	var wire []byte
	for _, m := range msgs {
		wire = append(wire, Encode(m)...)
	}

	// 每次一个字节地喂入
	for i := range wire {
		lower.inject(wire[i : i+1])
	}

	require.Len(t, *got, len(msgs))
	for i, m := range msgs {
		assert.Equal(t, len(m), len((*got)[i]))
		assert.True(t, bytes.Equal(m, (*got)[i]))
	}
}

func TestFraming_OversizeFails(t *testing.T) {
	f, lower, got := newFraming(8)
	require.NoError(t, f.Start())

	lower.inject(append(Encode([]byte("ok")), varint.ToUvarint(9)...))
	assert.Len(t, *got, 1, "越界前的完整帧仍应递交")
	assert.Equal(t, types.StateFailed, f.State())

	lower.inject(Encode([]byte("ignored")))
	assert.Len(t, *got, 1)
}

func TestFraming_BadPrefixFails(t *testing.T) {
	f, lower, _ := newFraming(8)
	require.NoError(t, f.Start())

	// 非最简编码
	lower.inject([]byte{0x80, 0x00})
	assert.Equal(t, types.StateFailed, f.State())
}

func TestFraming_OverMemTransport(t *testing.T) {
	la, lb := transport.NewMemPair()
	defer la.Stop()
	defer lb.Stop()

	fa := New(la, Config{MaxFrameSize: 64})
	fb := New(lb, Config{MaxFrameSize: 64})

	var mu sync.Mutex
	var got []string
	fb.OnRecv(func(m *types.Message) {
		mu.Lock()
		got = append(got, string(m.Data))
		mu.Unlock()
	})

	require.NoError(t, la.Start())
	require.NoError(t, lb.Start())
	require.NoError(t, fa.Start())
	require.NoError(t, fb.Start())

	for _, s := range []string{"one", "two", "three"} {
		_, err := fa.Send(types.NewString(0, s))
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"one", "two", "three"}, got)

	require.NoError(t, fb.Stop())
	assert.False(t, lb.HasRecvCallback())
}
