package transport

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dep2p/go-rtcmux/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
//                              Base
// ============================================================================

func TestBase_ChangeStateFiresOnlyOnChange(t *testing.T) {
	var b Base
	var got []types.TransportState
	b.OnStateChange(func(s types.TransportState) {
		got = append(got, s)
	})

	assert.True(t, b.ChangeState(types.StateConnecting))
	assert.False(t, b.ChangeState(types.StateConnecting))
	assert.True(t, b.ChangeState(types.StateConnected))
	assert.Equal(t, types.StateConnected, b.State())
	assert.Equal(t, []types.TransportState{types.StateConnecting, types.StateConnected}, got)

	b.ResetCallbacks()
	b.ChangeState(types.StateFailed)
	assert.Len(t, got, 2, "ResetCallbacks 之后不应再触发回调")
}

func TestBase_OutgoingWithoutLower(t *testing.T) {
	var b Base
	_, err := b.Outgoing(types.NewBinary(0, []byte("x")))
	assert.ErrorIs(t, err, types.ErrNoLowerTransport)
}

func TestBase_RegisterIncoming(t *testing.T) {
	a, b := NewMemPair()
	defer a.Stop()
	defer b.Stop()

	var upper Base
	upper.Init(b)

	got := make(chan *types.Message, 1)
	upper.OnRecv(func(m *types.Message) { got <- m })
	upper.RegisterIncoming(upper.Recv)

	require.NoError(t, a.Start())
	require.NoError(t, b.Start())

	_, err := a.Send(types.NewString(3, "hi"))
	require.NoError(t, err)

	select {
	case m := <-got:
		assert.Equal(t, "hi", string(m.Data))
		assert.Equal(t, uint16(3), m.Stream)
	case <-time.After(time.Second):
		t.Fatal("未收到消息")
	}

	upper.UnregisterIncoming()
	assert.False(t, b.HasRecvCallback())
}

// ============================================================================
//                              MemTransport
// ============================================================================

func TestMemTransport_NotConnected(t *testing.T) {
	a, b := NewMemPair()
	defer b.Stop()

	_, err := a.Send(types.NewBinary(0, nil))
	assert.ErrorIs(t, err, types.ErrNotConnected)
	require.NoError(t, a.Stop())
	require.NoError(t, a.Stop())
	assert.Equal(t, types.StateDisconnected, a.State())
}

func TestMemTransport_Order(t *testing.T) {
	a, b := NewMemPair()
	defer a.Stop()
	defer b.Stop()

	var mu sync.Mutex
	var got []byte
	b.OnRecv(func(m *types.Message) {
		mu.Lock()
		got = append(got, m.Data...)
		mu.Unlock()
	})
	require.NoError(t, a.Start())
	require.NoError(t, b.Start())

	for i := 0; i < 100; i++ {
		_, err := a.Send(types.NewBinary(0, []byte{byte(i)}))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 100
	}, time.Second, time.Millisecond)
	for i, v := range got {
		assert.Equal(t, byte(i), v)
	}
	assert.Len(t, a.Sent(), 100)
}

// ============================================================================
//                              PacketConn
// ============================================================================

func TestPacketConn_ReadWrite(t *testing.T) {
	a, b := NewMemPair()
	defer a.Stop()
	defer b.Stop()

	ca := NewPacketConn(a, 16)
	cb := NewPacketConn(b, 16)
	a.OnRecv(ca.Deliver)
	b.OnRecv(cb.Deliver)
	require.NoError(t, a.Start())
	require.NoError(t, b.Start())

	n, err := ca.Write([]byte("packet-1"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	_, err = ca.Write([]byte("p2"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err = cb.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "packet-1", string(buf[:n]), "一次 Read 对应一条消息")
	n, err = cb.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "p2", string(buf[:n]))

	require.NoError(t, ca.Close())
	require.NoError(t, cb.Close())
}

func TestPacketConn_CloseUnblocksRead(t *testing.T) {
	a, _ := NewMemPair()
	c := NewPacketConn(a, 1)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Read(make([]byte, 8))
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Close 应唤醒 Read")
	}

	_, err := c.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrConnClosed)
}

func TestPacketConn_IgnoresControl(t *testing.T) {
	a, _ := NewMemPair()
	c := NewPacketConn(a, 0)
	c.Deliver(&types.Message{Type: types.MessageReset, Stream: 1})
	c.Deliver(nil)
	assert.Zero(t, c.Buffered())
	c.Deliver(types.NewBinary(0, []byte("abc")))
	assert.Equal(t, 3, c.Buffered())
	_ = c.Close()
}

// ============================================================================
//                              StreamConn
// ============================================================================

func TestStreamConn_ReadAcrossChunks(t *testing.T) {
	a, _ := NewMemPair()
	c := NewStreamConn(a, 0)
	defer c.Close()

	c.Deliver(types.NewBinary(0, []byte("hel")))
	c.Deliver(types.NewBinary(0, []byte("lo wor")))
	c.Deliver(types.NewBinary(0, nil))
	c.Deliver(types.NewBinary(0, []byte("ld")))

	buf := make([]byte, 4)
	var got []byte
	for len(got) < len("hello world") {
		n, err := c.Read(buf)
		require.NoError(t, err)
		assert.LessOrEqual(t, n, 4)
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, "hello world", string(got))
}

func TestStreamConn_WriteAndClose(t *testing.T) {
	a, b := NewMemPair()
	defer a.Stop()
	defer b.Stop()

	ca := NewStreamConn(a, 0)
	cb := NewStreamConn(b, 0)
	b.OnRecv(cb.Deliver)
	require.NoError(t, a.Start())
	require.NoError(t, b.Start())

	_, err := ca.Write([]byte("abc"))
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, err := cb.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))

	errCh := make(chan error, 1)
	go func() {
		_, err := cb.Read(buf)
		errCh <- err
	}()
	require.NoError(t, cb.Close())
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Close 应唤醒 Read")
	}

	require.NoError(t, ca.Close())
	_, err = ca.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrConnClosed)
}
