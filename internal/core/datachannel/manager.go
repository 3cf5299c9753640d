package datachannel

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-rtcmux/config"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

var logger = log.Logger("core/datachannel")

// maxStreamID 65535 保留
const maxStreamID = 65535

// Config 通道配置
type Config struct {
	RecvQueueLimit             int
	BufferedAmountLowThreshold int
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg *config.Config) Config {
	c := config.DefaultChannelConfig()
	if cfg != nil {
		c = cfg.Channel
	}
	return Config{
		RecvQueueLimit:             c.RecvQueueLimit,
		BufferedAmountLowThreshold: c.BufferedAmountLowThreshold,
	}
}

// ChannelCallback 对端发起的通道打开后的回调
type ChannelCallback func(*Channel)

// Manager 管理一条连接上的全部通道
type Manager struct {
	cfg  Config
	role types.Role

	muxRef atomic.Pointer[muxHolder]

	mu        sync.Mutex
	channels  map[uint16]*Channel
	onChannel ChannelCallback
	pending   []*Channel
}

type muxHolder struct {
	mux pkgif.MuxTransport
}

// NewManager 创建通道管理器
//
// role 决定本端分配的流 ID 奇偶：客户端用偶数，服务端用奇数。
func NewManager(role types.Role, cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		role:     role,
		channels: make(map[uint16]*Channel),
	}
}

func (m *Manager) mux() pkgif.MuxTransport {
	if h := m.muxRef.Load(); h != nil {
		return h.mux
	}
	return nil
}

// maxID 当前可用的最大流 ID（不含）
func (m *Manager) maxID() int {
	if mux := m.mux(); mux != nil {
		return mux.MaxStream()
	}
	return maxStreamID
}

// CreateChannel 创建本端发起的通道
//
// 多路复用层已连接时立即打开，否则在 Open 时打开。
func (m *Manager) CreateChannel(label string, init Init) (*Channel, error) {
	m.mu.Lock()
	var id uint16
	if init.ID != nil {
		id = *init.ID
		if int(id) >= m.maxID() {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
		}
		if _, ok := m.channels[id]; ok {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: %d", ErrChannelExists, id)
		}
	} else {
		next, err := m.allocateLocked()
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		id = next
	}

	c := newChannel(m, id, label, init)
	m.channels[id] = c
	m.mu.Unlock()

	logger.Debug("创建通道", "stream", id, "label", label, "negotiated", init.Negotiated)

	if mux := m.mux(); mux != nil {
		c.openOn(mux)
	}
	return c, nil
}

// allocateLocked 按角色奇偶分配最小的空闲流 ID，调用方持有 mu
func (m *Manager) allocateLocked() (uint16, error) {
	limit := m.maxID()
	start := 1
	if m.role == types.RoleClient {
		start = 0
	}
	for id := start; id < limit; id += 2 {
		if _, ok := m.channels[uint16(id)]; !ok {
			return uint16(id), nil
		}
	}
	return 0, ErrTooManyChannels
}

// remoteParity 对端分配的流 ID 的奇偶
func (m *Manager) remoteParity() uint16 {
	if m.role == types.RoleClient {
		return 1
	}
	return 0
}

// Channel 按流 ID 查找通道
func (m *Manager) Channel(id uint16) (*Channel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.channels[id]
	return c, ok
}

// Len 返回未关闭的通道数
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels)
}

// OnChannel 设置对端通道回调，已打开但尚未递交的通道立即递交
func (m *Manager) OnChannel(cb ChannelCallback) {
	m.mu.Lock()
	m.onChannel = cb
	var pending []*Channel
	if cb != nil {
		pending, m.pending = m.pending, nil
	}
	m.mu.Unlock()

	for _, c := range pending {
		cb(c)
	}
}

func (m *Manager) triggerChannel(c *Channel) {
	m.mu.Lock()
	cb := m.onChannel
	if cb == nil {
		m.pending = append(m.pending, c)
	}
	m.mu.Unlock()

	if cb != nil {
		cb(c)
	}
}

// Open 多路复用层已连接，打开所有尚未打开的通道
func (m *Manager) Open(mux pkgif.MuxTransport) {
	m.muxRef.Store(&muxHolder{mux: mux})

	for _, c := range m.snapshot() {
		c.openOn(mux)
	}
}

// HandleMessage 路由多路复用层的入站消息
func (m *Manager) HandleMessage(msg *types.Message) {
	mux := m.mux()
	if mux == nil || msg == nil {
		return
	}

	m.mu.Lock()
	c, ok := m.channels[msg.Stream]
	if !ok {
		if msg.Type == types.MessageReset {
			m.mu.Unlock()
			return
		}
		if !isOpen(msg) || msg.Stream%2 != m.remoteParity() {
			m.mu.Unlock()
			logger.Debug("未知流上的消息，重置", "stream", msg.Stream, "type", msg.Type)
			if err := mux.CloseStream(msg.Stream); err != nil {
				logger.Debug("重置流失败", "stream", msg.Stream, "error", err)
			}
			return
		}
		c = newChannel(m, msg.Stream, "", Init{})
		c.opening.Store(true)
		m.channels[msg.Stream] = c
		c.OnOpen(func() { m.triggerChannel(c) })
	}
	m.mu.Unlock()

	c.incoming(mux, msg)
}

func isOpen(msg *types.Message) bool {
	return msg.Type == types.MessageControl && len(msg.Data) > 0 && msg.Data[0] == dcepOpen
}

// HandleBufferedAmount 路由缓冲量通知
func (m *Manager) HandleBufferedAmount(stream uint16, amount int) {
	if c, ok := m.Channel(stream); ok {
		c.updateBufferedAmount(amount)
	}
}

// CloseAll 本端关闭所有通道
func (m *Manager) CloseAll() {
	for _, c := range m.snapshot() {
		if err := c.Close(); err != nil {
			logger.Debug("关闭通道失败", "stream", c.id, "error", err)
		}
	}
}

// RemoteCloseAll 连接已断开，所有通道进入关闭状态
func (m *Manager) RemoteCloseAll() {
	m.muxRef.Store(nil)
	for _, c := range m.snapshot() {
		c.remoteClose()
	}
}

func (m *Manager) snapshot() []*Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Channel, 0, len(m.channels))
	for _, c := range m.channels {
		out = append(out, c)
	}
	return out
}

func (m *Manager) remove(c *Channel) {
	m.mu.Lock()
	if m.channels[c.id] == c {
		delete(m.channels, c.id)
	}
	m.mu.Unlock()
}
