package rtcmux

import (
	"github.com/dep2p/go-rtcmux/internal/core/datachannel"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// Channel 逻辑数据通道
type Channel = datachannel.Channel

// ChannelInit 创建通道的参数
type ChannelInit = datachannel.Init

// Message 通道消息
type Message = types.Message

// Reliability 可靠性参数
type Reliability = types.Reliability

// Role 连接角色
type Role = types.Role

const (
	// RoleClient 主动方，使用偶数流 ID
	RoleClient = types.RoleClient

	// RoleServer 被动方，使用奇数流 ID
	RoleServer = types.RoleServer
)

// ConnState 连接状态
type ConnState = types.ChainState

const (
	StateConnecting = types.ChainConnecting
	StateOpen       = types.ChainOpen
	StateClosing    = types.ChainClosing
	StateClosed     = types.ChainClosed
)

// ConnStats 连接统计
type ConnStats = types.MuxStats

// Bandwidth 端点的累计流量与一分钟平均速率（字节/秒）
type Bandwidth struct {
	TotalIn  int64
	TotalOut int64
	RateIn   float64
	RateOut  float64
}
