// Package stream 实现传输链最内层的原始字节流传输
//
// Transport 包装一个 net.Conn（TCP、UDP 或任意实现），可以主动拨号
// （Dial，异步进行），也可以包装已接受的连接（FromConn）。
//
// 读循环把收到的字节块作为 Binary 消息向上递交：
//   - io.EOF -> Disconnected
//   - 其他读错误 -> Failed
//
// Stop 会关闭连接并等待读循环退出，不能在读循环触发的回调中同步调用，
// 传输链通过工作池执行拆除来避免这一点。
package stream
