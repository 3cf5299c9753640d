// Package interfaces 定义 rtcmux 的公共接口
//
// 一个接口文件对应一个实现目录：
//   - transport.go - 单层传输契约（stream / security / framing 的共同基础）
//   - mux.go       - 多路复用层契约（internal/core/sctp）
//   - channel.go   - 逻辑数据通道（internal/core/datachannel）
//
// 接口只依赖 pkg/types，不依赖任何 internal 包。
package interfaces
