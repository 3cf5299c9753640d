// Package queue 提供有界并发队列
//
// Queue 是整个传输栈的背压基础：
//   - 多路复用层的发送队列（无界，按消息字节计量）
//   - 数据通道的接收队列（按条数限制，按消息字节计量）
//   - 下层消息到 net.Conn 适配器的收件箱
//   - 工作池的任务队列
//
// # 语义
//
//   - limit 为 0 表示无界；Size() <= limit 只在 Push 时强制
//   - Amount() 始终等于所有元素权重之和（包括 Exchange 之后）
//   - Stop() 幂等且不可逆，唤醒所有阻塞的 Push/Pop/Wait
//   - Stop 之后 Push 静默丢弃，已入队元素仍可取出
package queue
