package datachannel

import "errors"

var (
	// ErrChannelClosed 通道已关闭
	ErrChannelClosed = errors.New("datachannel: channel closed")

	// ErrNotOpen 通道尚未打开
	ErrNotOpen = errors.New("datachannel: channel not open")

	// ErrInvalidID 流 ID 不可用
	ErrInvalidID = errors.New("datachannel: invalid stream id")

	// ErrChannelExists 流 ID 已被占用
	ErrChannelExists = errors.New("datachannel: stream id in use")

	// ErrTooManyChannels 没有可分配的流 ID
	ErrTooManyChannels = errors.New("datachannel: too many channels")

	// ErrInvalidControl 控制消息格式错误
	ErrInvalidControl = errors.New("datachannel: invalid control message")
)
