package types

// ============================================================================
//                              TransportState - 传输状态
// ============================================================================

// TransportState 单层传输的状态
type TransportState int32

const (
	// StateDisconnected 未连接或已正常断开
	StateDisconnected TransportState = iota
	// StateConnecting 连接中
	StateConnecting
	// StateConnected 已连接
	StateConnected
	// StateFailed 失败
	StateFailed
	// StateCompleted 握手类传输已完成
	StateCompleted
)

// String 返回状态的字符串表示
func (s TransportState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              ChainState - 链路整体状态
// ============================================================================

// ChainState 传输链的整体状态
type ChainState int32

const (
	// ChainConnecting 正在逐层建立
	ChainConnecting ChainState = iota
	// ChainOpen 多路复用层已连接
	ChainOpen
	// ChainClosing 正在优雅关闭
	ChainClosing
	// ChainClosed 已关闭（终态）
	ChainClosed
)

// String 返回状态的字符串表示
func (s ChainState) String() string {
	switch s {
	case ChainConnecting:
		return "connecting"
	case ChainOpen:
		return "open"
	case ChainClosing:
		return "closing"
	case ChainClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              Role - 连接角色
// ============================================================================

// Role 关联中的角色
type Role int

const (
	// RoleClient 主动发起方
	RoleClient Role = iota
	// RoleServer 被动接受方
	RoleServer
)

// String 返回角色的字符串表示
func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// ============================================================================
//                              LayerKind - 传输层类型
// ============================================================================

// LayerKind 传输链中的层类型，按由内向外排序
type LayerKind int

const (
	// LayerStream 原始字节流
	LayerStream LayerKind = iota
	// LayerSecurity 安全层
	LayerSecurity
	// LayerFraming 分帧层
	LayerFraming
	// LayerMux 多路复用层
	LayerMux

	// NumLayers 层数
	NumLayers
)

// String 返回层类型的字符串表示
func (k LayerKind) String() string {
	switch k {
	case LayerStream:
		return "stream"
	case LayerSecurity:
		return "security"
	case LayerFraming:
		return "framing"
	case LayerMux:
		return "mux"
	default:
		return "unknown"
	}
}
