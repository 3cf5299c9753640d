package sctp

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pion/sctp"

	"github.com/dep2p/go-rtcmux/internal/util/queue"
	"github.com/dep2p/go-rtcmux/pkg/lib/log"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// initialReadSize 每个流读缓冲的初始大小，遇到更大的消息时扩容
const initialReadSize = 64 * 1024

// pionSocket 基于 pion/sctp 的协议栈实现
//
// 每个流一个读 goroutine，把完整消息放入有界收件箱；
// 收件箱满时读 goroutine 阻塞，协议栈的接收窗口随之收缩。
type pionSocket struct {
	assoc *sctp.Association
	conn  net.Conn
	cfg   Config
	h     socketHandler

	inbox *queue.Queue[chunk]

	mu      sync.Mutex
	streams map[uint16]*sctp.Stream

	closed    atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ socket = (*pionSocket)(nil)

// newPionSocket 是默认的 socketFactory
func newPionSocket(conn net.Conn, cfg Config, role types.Role, h socketHandler) (socket, error) {
	pcfg := sctp.Config{
		Name:                 "rtcmux",
		NetConn:              conn,
		MaxReceiveBufferSize: cfg.MaxReceiveBufferSize,
		MaxMessageSize:       cfg.MaxMessageSize,
		MTU:                  cfg.MTU,
		LoggerFactory:        log.PionLoggerFactory("core/sctp/pion"),
	}

	var (
		assoc *sctp.Association
		err   error
	)
	if role == types.RoleClient {
		assoc, err = sctp.Client(pcfg)
	} else {
		assoc, err = sctp.Server(pcfg)
	}
	if err != nil {
		return nil, err
	}

	s := &pionSocket{
		assoc:   assoc,
		conn:    conn,
		cfg:     cfg,
		h:       h,
		inbox:   queue.New[chunk](cfg.InboxSize, nil),
		streams: make(map[uint16]*sctp.Stream),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

func (s *pionSocket) acceptLoop() {
	defer s.wg.Done()
	for {
		st, err := s.assoc.AcceptStream()
		if err != nil {
			// 读循环已结束，关联不再可用
			if !s.closed.Load() {
				s.h.onClosed()
			}
			return
		}
		s.mu.Lock()
		// OpenStream 与 AcceptStream 可能返回同一个流
		if s.streams[st.StreamIdentifier()] != st {
			s.registerLocked(st)
		}
		s.mu.Unlock()
	}
}

// registerLocked 登记流并启动读 goroutine，调用方持有 mu
func (s *pionSocket) registerLocked(st *sctp.Stream) {
	if s.closed.Load() {
		return
	}
	s.streams[st.StreamIdentifier()] = st
	st.SetBufferedAmountLowThreshold(uint64(s.cfg.SendLowWater))
	st.OnBufferedAmountLow(s.h.onWritable)

	s.wg.Add(1)
	go s.readLoop(st)
}

func (s *pionSocket) readLoop(st *sctp.Stream) {
	defer s.wg.Done()
	id := st.StreamIdentifier()
	buf := make([]byte, initialReadSize)

	for {
		n, ppi, err := st.ReadSCTP(buf)
		if errors.Is(err, io.ErrShortBuffer) {
			// 消息仍在队列中，n 为所需长度
			buf = make([]byte, n)
			continue
		}
		if err != nil {
			s.forget(id, st)
			if errors.Is(err, io.EOF) && !s.closed.Load() {
				// 对端重置了入站方向，同时重置出站方向完成关闭
				if cerr := st.Close(); cerr != nil {
					logger.Debug("重置出站方向失败", "stream", id, "error", cerr)
				}
				s.deliver(chunk{stream: id, reset: true})
			}
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		if !s.deliver(chunk{stream: id, ppid: PPID(ppi), data: data}) {
			return
		}
	}
}

func (s *pionSocket) deliver(c chunk) bool {
	s.inbox.Push(c)
	if s.inbox.Stopped() {
		return false
	}
	s.h.onReadable()
	return true
}

func (s *pionSocket) forget(id uint16, st *sctp.Stream) {
	s.mu.Lock()
	if s.streams[id] == st {
		delete(s.streams, id)
	}
	s.mu.Unlock()
}

func (s *pionSocket) stream(id uint16) (*sctp.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.streams[id]; st != nil {
		return st, nil
	}
	if s.closed.Load() {
		return nil, ErrStopped
	}
	st, err := s.assoc.OpenStream(id, sctp.PayloadTypeWebRTCBinary)
	if err != nil {
		return nil, err
	}
	s.registerLocked(st)
	return st, nil
}

func (s *pionSocket) write(id uint16, ppid PPID, data []byte, rel *types.Reliability) error {
	st, err := s.stream(id)
	if err != nil {
		return err
	}
	if st.BufferedAmount() >= uint64(s.cfg.SendHighWater) {
		return errWouldBlock
	}
	if rel != nil {
		st.SetReliabilityParams(rel.Unordered, reliabilityType(rel), reliabilityValue(rel))
	}
	_, err = st.WriteSCTP(data, sctp.PayloadProtocolIdentifier(ppid))
	return err
}

func reliabilityType(rel *types.Reliability) byte {
	switch rel.Type {
	case types.ReliabilityRexmit:
		return sctp.ReliabilityTypeRexmit
	case types.ReliabilityTimed:
		return sctp.ReliabilityTypeTimed
	default:
		return sctp.ReliabilityTypeReliable
	}
}

func reliabilityValue(rel *types.Reliability) uint32 {
	switch rel.Type {
	case types.ReliabilityRexmit:
		return rel.Rexmit
	case types.ReliabilityTimed:
		return uint32(rel.MaxPacketLifeTime.Milliseconds())
	default:
		return 0
	}
}

func (s *pionSocket) read() (chunk, bool) {
	return s.inbox.TryPop()
}

func (s *pionSocket) resetStream(id uint16) error {
	s.mu.Lock()
	st := s.streams[id]
	s.mu.Unlock()
	if st == nil {
		return nil
	}
	// 流保留在表中，直到对端完成重置、读 goroutine 收到 EOF
	return st.Close()
}

func (s *pionSocket) shutdown(ctx context.Context) error {
	return s.assoc.Shutdown(ctx)
}

func (s *pionSocket) abort(reason string) {
	s.assoc.Abort(reason)
}

func (s *pionSocket) close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.inbox.Stop()
		err = s.assoc.Close()
		_ = s.conn.Close()
		s.wg.Wait()
	})
	return err
}

func (s *pionSocket) bytesSent() uint64     { return s.assoc.BytesSent() }
func (s *pionSocket) bytesReceived() uint64 { return s.assoc.BytesReceived() }

func (s *pionSocket) rtt() (float64, bool) {
	srtt := s.assoc.SRTT()
	return srtt, srtt > 0
}
