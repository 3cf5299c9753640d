// Package sctp 实现传输链顶部的多路复用层
//
// 在下层传输之上运行一个 SCTP 关联（pion/sctp），把 16 位流 ID
// 映射为独立的逻辑流。层本身负责：
//   - 每条消息按类型选择载荷协议标识（PPID），空消息以单个零字节发送
//   - 协议栈拒绝写入时进入发送队列，保持全局 FIFO 顺序
//   - 每个流的缓冲量净变化都通知上层
//   - 可选的发送端分片与接收端重组（兼容旧实现的部分消息 PPID）
//   - 流重置：本端 CloseStream 排在已入队数据之后，对端重置上报为 Reset 消息
//
// 接收和刷新都投递到 worker.Processor 上串行执行，同一时刻最多
// 一个接收任务和一个刷新任务在排队。
package sctp
