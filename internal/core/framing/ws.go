package framing

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dep2p/go-rtcmux/internal/core/transport"
	pkgif "github.com/dep2p/go-rtcmux/pkg/interfaces"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// Subprotocol 握手时协商的 WebSocket 子协议
const Subprotocol = "rtcmux"

// 关闭帧的写超时
const closeWriteTimeout = time.Second

// WebSocket 以 WebSocket 消息分帧的传输层
//
// 客户端在字节流上发起 HTTP 升级请求，服务端应答后双方进入 Connected。
// 每条出站消息写成一条二进制 WebSocket 消息；对端的关闭帧使本层进入
// Disconnected，其余读错误（含超过 MaxFrameSize）进入 Failed。
//
// Stop 会等待读 goroutine 退出，不能在本层的回调中调用。
type WebSocket struct {
	transport.Base

	cfg  Config
	role types.Role
	nc   *transport.StreamConn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	ws      *websocket.Conn
	started bool
	stopped bool

	writeMu sync.Mutex
}

var _ pkgif.Transport = (*WebSocket)(nil)

// NewWebSocket 在 lower 之上创建 WebSocket 分帧层
func NewWebSocket(lower pkgif.Transport, role types.Role, cfg Config) *WebSocket {
	def := ConfigFromUnified(nil)
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = def.MaxFrameSize
	}
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Path == "" {
		cfg.Path = def.Path
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &WebSocket{
		cfg:    cfg,
		role:   role,
		nc:     transport.NewStreamConn(lower, 0),
		ctx:    ctx,
		cancel: cancel,
	}
	t.Init(lower)
	return t
}

// Start 挂到下层并异步完成升级握手
func (t *WebSocket) Start() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return ErrStopped
	}
	if t.started {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.mu.Unlock()

	t.RegisterIncoming(t.nc.Deliver)
	t.ChangeState(types.StateConnecting)

	t.wg.Add(1)
	go t.run()
	return nil
}

func (t *WebSocket) run() {
	defer t.wg.Done()

	var timer *time.Timer
	if d := t.cfg.HandshakeTimeout; d > 0 {
		// 适配连接不支持 deadline，超时直接关闭它来打断握手
		timer = time.AfterFunc(d, func() { _ = t.nc.Close() })
	}
	ws, err := t.handshake()
	if timer != nil && !timer.Stop() && err == nil {
		err = context.DeadlineExceeded
	}
	if err != nil {
		if t.isStopped() {
			return
		}
		logger.Warn("WebSocket 握手失败", "role", t.role, "error", err)
		t.ChangeState(types.StateFailed)
		return
	}

	ws.SetReadLimit(int64(t.cfg.MaxFrameSize))
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.ws = ws
	t.mu.Unlock()

	logger.Debug("WebSocket 握手完成", "role", t.role, "subprotocol", ws.Subprotocol())
	t.ChangeState(types.StateConnected)
	t.readLoop(ws)
}

func (t *WebSocket) handshake() (*websocket.Conn, error) {
	if t.role == types.RoleClient {
		dialer := websocket.Dialer{
			NetDialContext: func(context.Context, string, string) (net.Conn, error) {
				return t.nc, nil
			},
			Subprotocols: []string{Subprotocol},
		}
		url := fmt.Sprintf("ws://%s%s", t.cfg.Host, t.cfg.Path)
		ws, resp, err := dialer.DialContext(t.ctx, url, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return ws, err
	}

	br := bufio.NewReader(t.nc)
	req, err := http.ReadRequest(br)
	if err != nil {
		return nil, fmt.Errorf("read upgrade request: %w", err)
	}
	upgrader := websocket.Upgrader{
		Subprotocols: []string{Subprotocol},
		CheckOrigin:  func(*http.Request) bool { return true },
	}
	return upgrader.Upgrade(&hijackWriter{conn: t.nc, br: br, header: make(http.Header)}, req, nil)
}

func (t *WebSocket) readLoop(ws *websocket.Conn) {
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if t.isStopped() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				errors.Is(err, io.EOF) {
				logger.Debug("WebSocket 对端关闭", "error", err)
				t.ChangeState(types.StateDisconnected)
				return
			}
			logger.Warn("WebSocket 读取失败", "error", err)
			t.ChangeState(types.StateFailed)
			return
		}
		if mt != websocket.BinaryMessage && mt != websocket.TextMessage {
			continue
		}
		t.Recv(types.NewBinary(0, data))
	}
}

// Send 写出一条二进制 WebSocket 消息
func (t *WebSocket) Send(msg *types.Message) (bool, error) {
	if msg == nil {
		return t.Outgoing(nil)
	}
	if len(msg.Data) > t.cfg.MaxFrameSize {
		return false, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(msg.Data), t.cfg.MaxFrameSize)
	}
	t.mu.Lock()
	ws := t.ws
	t.mu.Unlock()
	if ws == nil || t.State() != types.StateConnected {
		return false, types.ErrNotConnected
	}

	t.writeMu.Lock()
	err := ws.WriteMessage(websocket.BinaryMessage, msg.Data)
	t.writeMu.Unlock()
	if err != nil {
		return false, fmt.Errorf("websocket write: %w", err)
	}
	return true, nil
}

// Stop 发送关闭帧并停止读 goroutine
func (t *WebSocket) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	ws := t.ws
	t.mu.Unlock()

	t.cancel()
	if ws != nil {
		t.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout)); err != nil {
			logger.Debug("发送关闭帧失败", "error", err)
		}
		t.writeMu.Unlock()
	}
	_ = t.nc.Close()
	t.UnregisterIncoming()
	t.wg.Wait()
	t.ChangeState(types.StateDisconnected)
	return nil
}

func (t *WebSocket) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// hijackWriter 让 websocket.Upgrader 直接在适配连接上完成升级
type hijackWriter struct {
	conn   net.Conn
	br     *bufio.Reader
	header http.Header
	status int
}

func (w *hijackWriter) Header() http.Header { return w.header }

func (w *hijackWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	_, _ = fmt.Fprintf(w.conn, "HTTP/1.1 %d %s\r\nConnection: close\r\n\r\n", code, http.StatusText(code))
}

func (w *hijackWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.conn.Write(p)
}

func (w *hijackWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.conn, bufio.NewReadWriter(w.br, bufio.NewWriter(w.conn)), nil
}
