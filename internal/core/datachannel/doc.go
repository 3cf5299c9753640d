// Package datachannel 在多路复用层之上实现逻辑数据通道
//
// 每个通道占用一个流 ID。非预协商通道通过 DCEP（RFC 8832）建立：
// 发起方发送 DATA_CHANNEL_OPEN，接收方回复 DATA_CHANNEL_ACK。
// 控制消息使用 PPID 50，永远不会进入应用接收队列。
//
// Manager 管理一条连接上的全部通道：按角色奇偶分配流 ID、
// 为对端发起的 OPEN 创建通道、把消息和缓冲量通知路由到对应通道。
package datachannel
