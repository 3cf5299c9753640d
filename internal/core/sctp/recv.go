package sctp

import (
	"fmt"

	"github.com/dep2p/go-rtcmux/pkg/types"
)

// 重组缓冲的类别
const (
	partialBinary = iota
	partialString
)

// partial 一个类别的分片重组缓冲，同一时刻只属于一个流
type partial struct {
	active bool
	stream uint16
	buf    []byte
}

func (p *partial) reset() {
	p.active = false
	p.stream = 0
	p.buf = nil
}

// doRecv 取出并处理所有入站单元，只在 proc 上运行
func (t *Transport) doRecv() {
	sock := t.socket()
	if sock == nil {
		return
	}
	for !t.stopped.Load() {
		c, ok := sock.read()
		if !ok {
			return
		}
		t.handleChunk(c)
	}
}

func (t *Transport) handleChunk(c chunk) {
	if c.reset {
		t.partials[partialBinary].dropIf(c.stream)
		t.partials[partialString].dropIf(c.stream)
		if t.reporter != nil {
			t.reporter.LogStreamReset(false)
		}
		t.Recv(&types.Message{Type: types.MessageReset, Stream: c.stream})
		return
	}

	switch c.ppid {
	case PPIDControl:
		t.deliver(types.MessageControl, c.stream, c.data)
	case PPIDString:
		t.complete(partialString, types.MessageString, c.stream, c.data)
	case PPIDBinary:
		t.complete(partialBinary, types.MessageBinary, c.stream, c.data)
	case PPIDStringEmpty:
		t.complete(partialString, types.MessageString, c.stream, nil)
	case PPIDBinaryEmpty:
		t.complete(partialBinary, types.MessageBinary, c.stream, nil)
	case PPIDStringPartial:
		t.appendPartial(partialString, c.stream, c.data)
	case PPIDBinaryPartial:
		t.appendPartial(partialBinary, c.stream, c.data)
	default:
		logger.Debug("忽略未知 PPID", "stream", c.stream, "ppid", c.ppid)
	}
}

func (p *partial) dropIf(stream uint16) {
	if p.active && p.stream == stream {
		p.reset()
	}
}

// claim 让重组缓冲归属 stream；被其他流占用时丢弃旧缓冲并重置旧流
func (t *Transport) claim(kind int, stream uint16) *partial {
	p := &t.partials[kind]
	if p.active && p.stream != stream {
		owner := p.stream
		p.reset()
		t.reassemblyFailed(owner, fmt.Errorf("%w: stream %d interleaved with %d", ErrReassembly, stream, owner))
	}
	return p
}

func (t *Transport) appendPartial(kind int, stream uint16, data []byte) {
	p := t.claim(kind, stream)
	if len(p.buf)+len(data) > int(t.cfg.MaxMessageSize) {
		p.reset()
		t.reassemblyFailed(stream, fmt.Errorf("%w: stream %d exceeds %d bytes", ErrReassembly, stream, t.cfg.MaxMessageSize))
		return
	}
	p.active = true
	p.stream = stream
	p.buf = append(p.buf, data...)
}

func (t *Transport) complete(kind int, typ types.MessageType, stream uint16, data []byte) {
	p := t.claim(kind, stream)
	if p.active {
		data = append(p.buf, data...)
		p.reset()
	}
	t.deliver(typ, stream, data)
}

func (t *Transport) deliver(typ types.MessageType, stream uint16, data []byte) {
	if data == nil {
		data = []byte{}
	}
	if t.reporter != nil && typ != types.MessageControl {
		t.reporter.LogRecvMessage(stream, int64(len(data)))
	}
	t.Recv(types.NewMessage(typ, stream, data))
}

func (t *Transport) reassemblyFailed(stream uint16, err error) {
	logger.Warn("分片重组失败，重置流", "stream", stream, "error", err)
	t.dropped("reassembly")
	if cerr := t.CloseStream(stream); cerr != nil {
		logger.Debug("重置流失败", "stream", stream, "error", cerr)
	}
}
