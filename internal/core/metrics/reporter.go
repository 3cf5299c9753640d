package metrics

// Reporter 多路复用层的指标上报接口
type Reporter interface {
	// LogSentMessage 记录流上发出的消息大小
	LogSentMessage(stream uint16, size int64)

	// LogRecvMessage 记录流上收到的消息大小
	LogRecvMessage(stream uint16, size int64)

	// LogDropped 记录被丢弃的消息，reason 为简短原因
	LogDropped(reason string)

	// LogStreamReset 记录流重置，outbound 表示本端发起
	LogStreamReset(outbound bool)

	// AddBuffered 调整发送队列中的字节数
	AddBuffered(delta int64)

	// AssociationOpened / AssociationClosed 关联计数
	AssociationOpened()
	AssociationClosed()
}

// 确保 Collector 实现 Reporter 接口
var _ Reporter = (*Collector)(nil)
