package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-rtcmux/config"
)

// ============================================================================
//                              RateMeter
// ============================================================================

func TestRateMeter_SlidingWindow(t *testing.T) {
	clk := clock.NewMock()
	r := NewRateMeter(clk)

	r.Add(600)
	assert.Equal(t, int64(600), r.Total())
	assert.InDelta(t, 10.0, r.Rate(), 0.001)

	clk.Add(30 * time.Second)
	r.Add(600)
	assert.Equal(t, int64(1200), r.Total())

	// 第一个桶滑出窗口
	clk.Add(31 * time.Second)
	assert.Equal(t, int64(600), r.Total())

	clk.Add(2 * time.Minute)
	assert.Zero(t, r.Total())
}

func TestRateMeter_Reset(t *testing.T) {
	clk := clock.NewMock()
	r := NewRateMeter(clk)
	r.Add(100)
	r.Reset()
	assert.Zero(t, r.Total())
	assert.Equal(t, clk.Now(), r.LastUpdate())
}

// ============================================================================
//                              BandwidthCounter
// ============================================================================

func TestBandwidthCounter_Totals(t *testing.T) {
	bwc := NewBandwidthCounter()

	bwc.LogSentMessage(1, 1024)
	bwc.LogSentMessage(2, 2048)
	bwc.LogRecvMessage(1, 512)

	stats := bwc.GetBandwidthTotals()
	assert.Equal(t, int64(3072), stats.TotalOut)
	assert.Equal(t, int64(512), stats.TotalIn)

	s1 := bwc.GetBandwidthForStream(1)
	assert.Equal(t, int64(1024), s1.TotalOut)
	assert.Equal(t, int64(512), s1.TotalIn)

	assert.Equal(t, Stats{}, bwc.GetBandwidthForStream(9))
	assert.Len(t, bwc.GetBandwidthByStream(), 2)
}

func TestBandwidthCounter_Reset(t *testing.T) {
	bwc := NewBandwidthCounter()
	bwc.LogSentMessage(1, 10)
	bwc.Reset()

	assert.Equal(t, int64(0), bwc.GetBandwidthTotals().TotalOut)
	assert.Empty(t, bwc.GetBandwidthByStream())
}

func TestBandwidthCounter_TrimIdle(t *testing.T) {
	clk := clock.NewMock()
	bwc := NewBandwidthCounterWithClock(clk)

	bwc.LogSentMessage(1, 10)
	clk.Add(10 * time.Minute)
	bwc.LogRecvMessage(2, 10)

	bwc.TrimIdle(clk.Now().Add(-5 * time.Minute))

	byStream := bwc.GetBandwidthByStream()
	assert.NotContains(t, byStream, uint16(1))
	assert.Contains(t, byStream, uint16(2))
}

// ============================================================================
//                              Collector
// ============================================================================

func TestCollector_Export(t *testing.T) {
	c := NewCollector("test", nil)
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	c.LogSentMessage(1, 100)
	c.LogRecvMessage(1, 40)
	c.LogDropped("write")
	c.LogStreamReset(true)
	c.AddBuffered(64)
	c.AddBuffered(-16)
	c.AssociationOpened()

	expected := `
# HELP test_mux_bytes_total Application bytes carried by the multiplexer.
# TYPE test_mux_bytes_total counter
test_mux_bytes_total{direction="in"} 40
test_mux_bytes_total{direction="out"} 100
# HELP test_mux_buffered_bytes Gauge of bytes waiting in multiplexer send queues.
# TYPE test_mux_buffered_bytes gauge
test_mux_buffered_bytes 48
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"test_mux_bytes_total", "test_mux_buffered_bytes"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.dropped.WithLabelValues("write")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.resets.WithLabelValues("out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.assocs))

	c.AssociationClosed()
	assert.Equal(t, 0.0, testutil.ToFloat64(c.assocs))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.assocsTotal))
}

func TestModule_RegistersCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	var got *Collector

	app := fxtest.New(t,
		fx.Supply(fx.Annotate(reg, fx.As(new(prometheus.Registerer)))),
		Module,
		fx.Populate(&got),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, got)
	assert.False(t, reg.Register(got) == nil, "重复注册应失败")
}

func TestModule_Disabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Metrics.Enable = false
	var got *Collector

	app := fxtest.New(t,
		fx.Supply(cfg),
		Module,
		fx.Populate(&got),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Nil(t, got)
}
