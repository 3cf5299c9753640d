// Package transport 提供传输链各层共用的基础设施
//
// # Base
//
// Base 是可嵌入的单层传输状态机：
//   - 原子状态，只有真正发生变化时才触发状态回调
//   - 持有下层传输的引用，RegisterIncoming 将自己挂到下层的入站回调
//   - Outgoing 将出站消息转交下层
//   - ResetCallbacks 在拆除时解除所有回调
//
// # PacketConn
//
// PacketConn 把消息传输适配为面向报文的 net.Conn（一次 Read 对应一条消息），
// 供 pion/sctp 在任意下层传输之上运行关联。
//
// # MemTransport
//
// MemTransport 是成对的内存传输，供各层测试和本地回环使用。
package transport
