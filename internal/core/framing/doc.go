// Package framing 在字节流之上恢复消息边界
//
// 两种分帧方式，由 Config.Mode 选择（NewFromConfig）：
//
//   - varint：每条消息编码为 uvarint 长度前缀加消息体。接收端把下层递交的
//     字节块拼接后按前缀切分，每切出一帧向上递交一条 Binary 消息。
//     前缀非法或帧超过 MaxFrameSize 时进入 Failed。没有握手，Start 后
//     立即进入 Connected。
//   - websocket：客户端先发起 HTTP 升级请求，握手完成后每条消息是一条
//     二进制 WebSocket 消息（github.com/gorilla/websocket）。对端关闭帧
//     进入 Disconnected，读错误或超限进入 Failed。
package framing
