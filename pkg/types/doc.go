// Package types 定义 rtcmux 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各层传输之间传递数据。
//
// # 文件组织
//
//   - message.go - Message, MessageType, Reliability
//   - enums.go   - TransportState, ChainState, Role, LayerKind
//   - stats.go   - MuxStats
//   - errors.go  - 公共错误定义
package types
