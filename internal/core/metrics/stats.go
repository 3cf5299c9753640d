package metrics

// Stats 带宽统计快照
type Stats struct {
	TotalIn  int64
	TotalOut int64
	RateIn   float64 // 字节/秒
	RateOut  float64 // 字节/秒
}
