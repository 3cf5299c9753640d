package sctp

import (
	"context"
	"net"
	"sync"

	"github.com/dep2p/go-rtcmux/pkg/types"
)

type fakeWrite struct {
	stream uint16
	ppid   PPID
	data   string
}

// fakeSocket 可控的协议栈替身
type fakeSocket struct {
	mu sync.Mutex
	h  socketHandler

	// blockAfter 还能接受的写入次数，<0 表示不限
	blockAfter int
	writes     []fakeWrite
	events     []string
	resets     []uint16
	inbox      []chunk

	shutdownErr error
	aborted     bool
	closed      bool

	sent, recv uint64
	srtt       float64
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{blockAfter: -1}
}

func (f *fakeSocket) factory(_ net.Conn, _ Config, _ types.Role, h socketHandler) (socket, error) {
	f.mu.Lock()
	f.h = h
	f.mu.Unlock()
	return f, nil
}

func (f *fakeSocket) setBlocked(blocked bool) {
	f.mu.Lock()
	if blocked {
		f.blockAfter = 0
	} else {
		f.blockAfter = -1
	}
	f.mu.Unlock()
}

func (f *fakeSocket) allow(n int) {
	f.mu.Lock()
	f.blockAfter = n
	f.mu.Unlock()
}

// unblock 放开写入并模拟协议栈的可写通知
func (f *fakeSocket) unblock() {
	f.setBlocked(false)
	f.handler().onWritable()
}

func (f *fakeSocket) handler() socketHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.h
}

// push 放入入站单元并通知可读
func (f *fakeSocket) push(cs ...chunk) {
	f.mu.Lock()
	f.inbox = append(f.inbox, cs...)
	f.mu.Unlock()
	f.handler().onReadable()
}

// closeRemote 模拟对端关闭关联
func (f *fakeSocket) closeRemote() {
	f.handler().onClosed()
}

func (f *fakeSocket) Writes() []fakeWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeWrite(nil), f.writes...)
}

func (f *fakeSocket) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeSocket) Resets() []uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint16(nil), f.resets...)
}

func (f *fakeSocket) write(stream uint16, ppid PPID, data []byte, _ *types.Reliability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return net.ErrClosed
	}
	if f.blockAfter == 0 {
		return errWouldBlock
	}
	if f.blockAfter > 0 {
		f.blockAfter--
	}
	f.writes = append(f.writes, fakeWrite{stream: stream, ppid: ppid, data: string(data)})
	f.events = append(f.events, "write:"+string(data))
	f.sent += uint64(len(data))
	return nil
}

func (f *fakeSocket) read() (chunk, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inbox) == 0 {
		return chunk{}, false
	}
	c := f.inbox[0]
	f.inbox = f.inbox[1:]
	return c, true
}

func (f *fakeSocket) resetStream(stream uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, stream)
	f.events = append(f.events, "reset")
	return nil
}

func (f *fakeSocket) shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdownErr
}

func (f *fakeSocket) abort(string) {
	f.mu.Lock()
	f.aborted = true
	f.mu.Unlock()
}

func (f *fakeSocket) close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSocket) bytesSent() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

func (f *fakeSocket) bytesReceived() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recv
}

func (f *fakeSocket) rtt() (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.srtt, f.srtt > 0
}
