// Package rtcmux 在任意字节流之上提供 WebRTC 风格的数据通道
//
// 一条连接由一条传输链承载：
//
//	原始流（TCP / net.Conn）→ Noise 安全层（可选）→ 分帧层 → SCTP 多路复用层
//
// 多路复用层之上是逻辑数据通道，使用 DCEP 协商，每个通道占用一个
// 16 位流 ID，客户端使用偶数、服务端使用奇数。
//
// # 快速开始
//
//	ep, err := rtcmux.New(rtcmux.WithSecurity(true))
//	if err != nil {
//	    return err
//	}
//	defer ep.Close()
//
//	conn, err := ep.Dial(ctx, "tcp", "127.0.0.1:5000")
//	if err != nil {
//	    return err
//	}
//	ch, err := conn.CreateChannel("chat", rtcmux.ChannelInit{})
//	if err != nil {
//	    return err
//	}
//	ch.OnOpen(func() { ch.SendString("hello") })
//
// 服务端：
//
//	l, _ := ep.Listen("tcp", ":5000")
//	conn, _ := l.Accept(ctx)
//	conn.OnChannel(func(ch *rtcmux.Channel) {
//	    ch.OnAvailable(func() {
//	        for m := ch.Receive(); m != nil; m = ch.Receive() {
//	            // ...
//	        }
//	    })
//	})
//
// # 背压
//
// Channel.Send 返回 false 表示消息已进入发送队列而非立即写出；
// BufferedAmount 与 OnBufferedAmountLow 用于流控。
package rtcmux
