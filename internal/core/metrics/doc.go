// Package metrics 提供多路复用层的流量指标
//
// 提供两种视图：
//   - BandwidthCounter：进程内带宽统计（总量/按流），带 60 秒滑动速率
//   - Collector：把统计导出为 Prometheus 指标
//
// # 快速开始
//
//	counter := metrics.NewBandwidthCounter()
//	counter.LogSentMessage(1, 1024)
//	counter.LogRecvMessage(1, 2048)
//
//	stats := counter.GetBandwidthTotals()
//	fmt.Printf("In: %d, Out: %d\n", stats.TotalIn, stats.TotalOut)
//
// # Prometheus
//
//	reg := prometheus.NewRegistry()
//	c := metrics.NewCollector("rtcmux", counter)
//	reg.MustRegister(c)
//
// 多路复用引擎通过 Reporter 接口上报，nil Reporter 表示不统计。
package metrics
