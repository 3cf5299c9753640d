package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "mux"

// Collector 把多路复用统计导出为 Prometheus 指标
//
// 字节计数来自内部的 BandwidthCounter，在 Collect 时读取；
// 其余指标是普通的 Prometheus 向量。
type Collector struct {
	counter *BandwidthCounter

	bytesDesc   *prometheus.Desc
	dropped     *prometheus.CounterVec
	resets      *prometheus.CounterVec
	buffered    prometheus.Gauge
	assocs      prometheus.Gauge
	assocsTotal prometheus.Counter
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector 创建导出器，counter 为 nil 时新建一个
func NewCollector(namespace string, counter *BandwidthCounter) *Collector {
	if counter == nil {
		counter = NewBandwidthCounter()
	}
	return &Collector{
		counter: counter,
		bytesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "bytes_total"),
			"Application bytes carried by the multiplexer.",
			[]string{"direction"}, nil,
		),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dropped_messages_total",
			Help:      "Counter of messages dropped by the multiplexer.",
		}, []string{"reason"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_resets_total",
			Help:      "Counter of stream resets.",
		}, []string{"direction"}),
		buffered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "buffered_bytes",
			Help:      "Gauge of bytes waiting in multiplexer send queues.",
		}),
		assocs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "associations_open",
			Help:      "Gauge of established associations.",
		}),
		assocsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "associations_total",
			Help:      "Counter of associations that reached the connected state.",
		}),
	}
}

// Counter 返回内部带宽计数器
func (c *Collector) Counter() *BandwidthCounter {
	return c.counter
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesDesc
	c.dropped.Describe(ch)
	c.resets.Describe(ch)
	c.buffered.Describe(ch)
	c.assocs.Describe(ch)
	c.assocsTotal.Describe(ch)
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	totals := c.counter.GetBandwidthTotals()
	ch <- prometheus.MustNewConstMetric(c.bytesDesc, prometheus.CounterValue, float64(totals.TotalIn), "in")
	ch <- prometheus.MustNewConstMetric(c.bytesDesc, prometheus.CounterValue, float64(totals.TotalOut), "out")
	c.dropped.Collect(ch)
	c.resets.Collect(ch)
	c.buffered.Collect(ch)
	c.assocs.Collect(ch)
	c.assocsTotal.Collect(ch)
}

// LogSentMessage 实现 Reporter
func (c *Collector) LogSentMessage(stream uint16, size int64) {
	c.counter.LogSentMessage(stream, size)
}

// LogRecvMessage 实现 Reporter
func (c *Collector) LogRecvMessage(stream uint16, size int64) {
	c.counter.LogRecvMessage(stream, size)
}

// LogDropped 实现 Reporter
func (c *Collector) LogDropped(reason string) {
	c.dropped.WithLabelValues(reason).Inc()
}

// LogStreamReset 实现 Reporter
func (c *Collector) LogStreamReset(outbound bool) {
	dir := "in"
	if outbound {
		dir = "out"
	}
	c.resets.WithLabelValues(dir).Inc()
}

// AddBuffered 实现 Reporter
func (c *Collector) AddBuffered(delta int64) {
	c.buffered.Add(float64(delta))
}

// AssociationOpened 实现 Reporter
func (c *Collector) AssociationOpened() {
	c.assocs.Inc()
	c.assocsTotal.Inc()
}

// AssociationClosed 实现 Reporter
func (c *Collector) AssociationClosed() {
	c.assocs.Dec()
}
