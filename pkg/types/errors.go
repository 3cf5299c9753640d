// Package types 定义 rtcmux 的基础类型
//
// 本文件定义跨层共享的公共错误。
package types

import "errors"

// ============================================================================
//                              传输相关错误
// ============================================================================

var (
	// ErrNotConnected 传输未处于已连接状态
	ErrNotConnected = errors.New("not connected")

	// ErrNoLowerTransport 缺少下层传输
	ErrNoLowerTransport = errors.New("no lower transport")

	// ErrTransportStopped 传输已停止
	ErrTransportStopped = errors.New("transport stopped")
)

// ============================================================================
//                              流相关错误
// ============================================================================

var (
	// ErrInvalidStream 流 ID 超出范围
	ErrInvalidStream = errors.New("invalid stream id")

	// ErrMessageTooLarge 消息超过最大长度
	ErrMessageTooLarge = errors.New("message too large")
)
