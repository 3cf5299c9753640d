package chain

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dep2p/go-rtcmux/config"
	"github.com/dep2p/go-rtcmux/internal/core/framing"
	"github.com/dep2p/go-rtcmux/internal/core/transport"
	"github.com/dep2p/go-rtcmux/internal/util/worker"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const waitFor = 5 * time.Second

func newPool(t *testing.T) *worker.Pool {
	t.Helper()
	pool := worker.NewPool(4)
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func framingOnly() Layers {
	return Layers{
		Framing: func(lower pkgif.Transport) (pkgif.Transport, error) {
			return framing.New(lower, framing.ConfigFromUnified(nil)), nil
		},
	}
}

func waitDone(t *testing.T, c *Chain) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(waitFor):
		t.Fatal("chain teardown timed out")
	}
}

func TestChain_OpensWithoutMux(t *testing.T) {
	pool := newPool(t)
	a, b := transport.NewMemPair()
	defer b.Stop()

	c := New(framingOnly(), pool)
	var opened atomic.Int32
	c.OnOpen(func(mux pkgif.MuxTransport) {
		assert.Nil(t, mux)
		opened.Add(1)
	})

	require.NoError(t, c.Open(a))
	assert.Equal(t, types.ChainOpen, c.State())
	assert.Equal(t, int32(1), opened.Load())

	_, ok := c.Layer(types.LayerFraming)
	assert.True(t, ok)
	_, ok = c.Layer(types.LayerSecurity)
	assert.False(t, ok)
	_, ok = c.Mux()
	assert.False(t, ok)

	require.NoError(t, c.Close())
	waitDone(t, c)
	assert.Equal(t, types.ChainClosed, c.State())
}

func TestChain_LowerFailureTearsDown(t *testing.T) {
	pool := newPool(t)
	a, b := transport.NewMemPair()
	defer b.Stop()

	c := New(framingOnly(), pool)
	var errs []error
	var mu sync.Mutex
	c.OnError(func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})
	var closed atomic.Int32
	c.OnClosed(func() { closed.Add(1) })

	require.NoError(t, c.Open(a))
	a.Fail()

	waitDone(t, c)
	assert.Equal(t, types.ChainClosed, c.State())
	assert.Equal(t, int32(1), closed.Load())

	mu.Lock()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrLayerFailed)
	mu.Unlock()

	for kind := types.LayerStream; kind < types.NumLayers; kind++ {
		_, ok := c.Layer(kind)
		assert.False(t, ok, kind.String())
	}

	// 再次失败不会重复触发
	a.Fail()
	assert.Equal(t, int32(1), closed.Load())
}

// stubLayer 统计 Start/Stop 次数的传输层替身
type stubLayer struct {
	transport.Base

	connect    bool
	onRegister func()

	starts, stops atomic.Int32
}

func (s *stubLayer) Start() error {
	s.starts.Add(1)
	if s.connect {
		s.ChangeState(types.StateConnected)
	} else {
		s.ChangeState(types.StateConnecting)
	}
	return nil
}

func (s *stubLayer) Stop() error {
	s.stops.Add(1)
	s.ChangeState(types.StateDisconnected)
	return nil
}

func (s *stubLayer) Send(msg *types.Message) (bool, error) { return true, nil }

func (s *stubLayer) OnStateChange(cb pkgif.StateCallback) {
	s.Base.OnStateChange(cb)
	if cb != nil && s.onRegister != nil {
		s.onRegister()
	}
}

func TestChain_UpperFailureStopsEachLayerOnce(t *testing.T) {
	pool := newPool(t)

	lower := &stubLayer{connect: true}
	upper := &stubLayer{}
	c := New(Layers{
		Security: func(pkgif.Transport) (pkgif.Transport, error) { return upper, nil },
	}, pool)

	var errs []error
	var mu sync.Mutex
	c.OnError(func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})
	var closed atomic.Int32
	c.OnClosed(func() { closed.Add(1) })

	require.NoError(t, c.Open(lower))
	require.Equal(t, types.StateConnecting, upper.State())
	assert.Equal(t, types.ChainConnecting, c.State())

	upper.ChangeState(types.StateFailed)
	waitDone(t, c)

	assert.Equal(t, int32(1), closed.Load())
	assert.Equal(t, int32(1), lower.stops.Load())
	assert.Equal(t, int32(1), upper.stops.Load())

	mu.Lock()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrLayerFailed)
	assert.Contains(t, errs[0].Error(), types.LayerSecurity.String())
	mu.Unlock()
}

func TestChain_CloseDuringAttachDiscardsLayer(t *testing.T) {
	pool := newPool(t)
	c := New(Layers{}, pool)

	var errCount atomic.Int32
	c.OnError(func(error) { errCount.Add(1) })

	layer := &stubLayer{connect: true}
	layer.onRegister = func() { _ = c.Close() }

	err := c.Open(layer)
	assert.ErrorIs(t, err, ErrChainClosed)
	waitDone(t, c)

	assert.Zero(t, layer.starts.Load(), "已拆除的层不应被启动")
	assert.Equal(t, int32(1), layer.stops.Load())
	_, ok := c.Layer(types.LayerStream)
	assert.False(t, ok)

	// 回调已摘除
	layer.ChangeState(types.StateFailed)
	assert.Zero(t, errCount.Load())
}

func TestChain_DisconnectTearsDown(t *testing.T) {
	pool := newPool(t)
	a, b := transport.NewMemPair()
	defer b.Stop()

	c := New(framingOnly(), pool)
	var errCount atomic.Int32
	c.OnError(func(error) { errCount.Add(1) })

	require.NoError(t, c.Open(a))
	a.Disconnect()

	waitDone(t, c)
	assert.Equal(t, types.ChainClosed, c.State())
	assert.Zero(t, errCount.Load())
}

func TestChain_AttachTwiceRejected(t *testing.T) {
	pool := newPool(t)
	a, b := transport.NewMemPair()
	defer b.Stop()

	c := New(Layers{}, pool)
	require.NoError(t, c.Attach(types.LayerStream, a))

	other, peer := transport.NewMemPair()
	defer peer.Stop()
	defer other.Stop()
	err := c.Attach(types.LayerStream, other)
	assert.ErrorIs(t, err, ErrLayerAttached)

	got, ok := c.Layer(types.LayerStream)
	require.True(t, ok)
	assert.Same(t, a, got)

	require.NoError(t, c.Close())
	waitDone(t, c)
}

func TestChain_AttachAfterClose(t *testing.T) {
	pool := newPool(t)
	c := New(Layers{}, pool)
	require.NoError(t, c.Close())
	waitDone(t, c)

	a, b := transport.NewMemPair()
	defer b.Stop()
	require.NoError(t, a.Start())

	err := c.Attach(types.LayerStream, a)
	assert.ErrorIs(t, err, ErrChainClosed)

	// 被拒绝的层会被停止
	require.Eventually(t, func() bool {
		return a.State() == types.StateDisconnected
	}, waitFor, 5*time.Millisecond)
	_, ok := c.Layer(types.LayerStream)
	assert.False(t, ok)
}

func TestChain_BuilderError(t *testing.T) {
	pool := newPool(t)
	a, b := transport.NewMemPair()
	defer b.Stop()

	boom := errors.New("boom")
	c := New(Layers{
		Security: func(pkgif.Transport) (pkgif.Transport, error) { return nil, boom },
	}, pool)

	var got atomic.Value
	c.OnError(func(err error) { got.Store(err) })

	require.NoError(t, c.Open(a))
	waitDone(t, c)
	err, _ := got.Load().(error)
	assert.ErrorIs(t, err, boom)
}

// chainPair 在内存传输上组装两条完整的链
func chainPair(t *testing.T, cfg *config.Config) (client, server *Chain) {
	t.Helper()

	pool := newPool(t)
	f := NewFactory(cfg, pool, nil)

	var err error
	client, err = f.New(types.RoleClient)
	require.NoError(t, err)
	server, err = f.New(types.RoleServer)
	require.NoError(t, err)

	a, b := transport.NewMemPair()
	require.NoError(t, server.Open(b))
	require.NoError(t, client.Open(a))

	require.Eventually(t, func() bool {
		return client.State() == types.ChainOpen && server.State() == types.ChainOpen
	}, waitFor, 5*time.Millisecond)

	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
		waitDone(t, client)
		waitDone(t, server)
	})
	return client, server
}

func TestChain_FullStack(t *testing.T) {
	cases := []struct {
		name    string
		secure  bool
		framing string
	}{
		{"plain", false, config.FramingVarint},
		{"noise", true, config.FramingVarint},
		{"websocket", false, config.FramingWebSocket},
		{"noise+websocket", true, config.FramingWebSocket},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.NewConfig()
			cfg.Security.Enable = tc.secure
			cfg.Framing.Mode = tc.framing

			client, server := chainPair(t, cfg)

			recv := make(chan *types.Message, 1)
			server.OnRecv(func(m *types.Message) { recv <- m })

			_, ok := client.Layer(types.LayerSecurity)
			assert.Equal(t, tc.secure, ok)
			fl, ok := client.Layer(types.LayerFraming)
			require.True(t, ok)
			_, isWS := fl.(*framing.WebSocket)
			assert.Equal(t, tc.framing == config.FramingWebSocket, isWS)

			mux, ok := client.Mux()
			require.True(t, ok)
			_, err := mux.Send(types.NewBinary(2, []byte("ping")))
			require.NoError(t, err)

			select {
			case m := <-recv:
				assert.Equal(t, uint16(2), m.Stream)
				assert.Equal(t, "ping", string(m.Data))
			case <-time.After(waitFor):
				t.Fatal("message not delivered")
			}
		})
	}
}

func TestChain_GracefulClose(t *testing.T) {
	client, server := chainPair(t, config.NewConfig())

	var closed atomic.Int32
	server.OnClosed(func() { closed.Add(1) })

	require.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	waitDone(t, client)

	require.Eventually(t, func() bool {
		return server.State() == types.ChainClosed
	}, waitFor, 5*time.Millisecond)
	waitDone(t, server)
	assert.Equal(t, int32(1), closed.Load())
}

func TestModule_Defaults(t *testing.T) {
	f := NewFactoryFromParams(Params{})
	layers, err := f.Layers(types.RoleClient)
	require.NoError(t, err)
	assert.Nil(t, layers.Security)
	assert.NotNil(t, layers.Framing)
	assert.NotNil(t, layers.Mux)

	cfg := config.NewConfig()
	cfg.Security.Enable = true
	cfg.Security.RemoteStaticKey = "zz"
	_, err = NewFactory(cfg, nil, nil).Layers(types.RoleServer)
	assert.Error(t, err)
}
