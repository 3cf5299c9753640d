package sctp

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-rtcmux/pkg/types"
)

// Send 发送消息
//
// 队列为空且协议栈接受时立即写出并返回 true；否则消息进入发送队列，
// 流的缓冲量增加，返回 false。msg 为 nil 时等同于 Flush。
func (t *Transport) Send(msg *types.Message) (bool, error) {
	if msg == nil {
		return t.Flush()
	}
	if t.stopped.Load() {
		return false, ErrStopped
	}
	if t.State() != types.StateConnected {
		return false, types.ErrNotConnected
	}
	if int(msg.Stream) >= t.MaxStream() {
		return false, fmt.Errorf("%w: %d >= %d", types.ErrInvalidStream, msg.Stream, t.MaxStream())
	}
	if len(msg.Data) > int(t.cfg.MaxMessageSize) {
		return false, fmt.Errorf("%w: %d > %d", types.ErrMessageTooLarge, len(msg.Data), t.cfg.MaxMessageSize)
	}

	t.sendMu.Lock()
	empty, err := t.trySendQueueLocked()
	if err != nil {
		t.sendMu.Unlock()
		t.notifier.dispatch()
		t.sendFailed(err)
		return false, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if empty {
		rest, done, err := t.trySendMessageLocked(msg)
		if err != nil {
			t.sendMu.Unlock()
			t.notifier.dispatch()
			return false, fmt.Errorf("%w: %w", ErrSendFailed, err)
		}
		if done {
			t.sendMu.Unlock()
			t.notifier.dispatch()
			return true, nil
		}
		msg = rest
	}
	t.sendQueue.Push(msg)
	t.updateBufferedLocked(msg.Stream, types.MessageSize(msg))
	t.sendMu.Unlock()

	t.notifier.dispatch()
	return false, nil
}

// Flush 尝试写出发送队列，返回队列是否已清空
//
// 队列中的消息写入失败时关联进入 Failed。
func (t *Transport) Flush() (bool, error) {
	if t.stopped.Load() {
		return false, ErrStopped
	}
	if t.socket() == nil {
		return t.sendQueue.Empty(), nil
	}

	t.sendMu.Lock()
	empty, err := t.trySendQueueLocked()
	t.sendMu.Unlock()

	t.notifier.dispatch()
	if err != nil {
		t.sendFailed(err)
		return false, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return empty, nil
}

// trySendQueueLocked 按 FIFO 写出队列，遇到写阻塞即停
//
// 写入出错的队首消息被移出队列，错误返回给调用方。
func (t *Transport) trySendQueueLocked() (bool, error) {
	for {
		head, ok := t.sendQueue.Peek()
		if !ok {
			return true, nil
		}
		rest, done, err := t.trySendMessageLocked(head)
		if !done {
			if rest != head {
				// 部分分片已写出，剩余部分替换队首
				t.sendQueue.Exchange(rest)
				t.updateBufferedLocked(head.Stream, types.MessageSize(rest)-types.MessageSize(head))
			}
			return false, nil
		}
		t.sendQueue.Pop()
		t.updateBufferedLocked(head.Stream, -types.MessageSize(head))
		if err != nil {
			return false, err
		}
	}
}

// trySendMessageLocked 写出一条消息
//
// done 为 true 表示消息已写出或已丢弃，丢弃原因是写入错误时 err 非空；
// 否则 rest 是尚未写出的部分，没有任何进展时 rest 就是 msg 本身。
func (t *Transport) trySendMessageLocked(msg *types.Message) (rest *types.Message, done bool, err error) {
	sock := t.socket()
	if sock == nil {
		return msg, false, nil
	}

	if msg.Type == types.MessageReset {
		if err := sock.resetStream(msg.Stream); err != nil {
			logger.Warn("重置流失败", "stream", msg.Stream, "error", err)
		}
		if t.reporter != nil {
			t.reporter.LogStreamReset(true)
		}
		return nil, true, nil
	}

	ppid, payload, ok := outboundPPID(msg)
	if !ok {
		logger.Warn("丢弃未知类型的消息", "msg", msg)
		t.dropped("type")
		return nil, true, nil
	}

	if frag := t.cfg.FragmentSize; frag > 0 && msg.Type != types.MessageControl {
		for len(payload) > frag {
			err := sock.write(msg.Stream, partialPPID(msg.Type), payload[:frag], msg.Reliability)
			if errors.Is(err, errWouldBlock) {
				return t.remainder(msg, payload), false, nil
			}
			if err != nil {
				t.writeFailed(msg, err)
				return nil, true, err
			}
			t.logSent(msg.Stream, frag)
			payload = payload[frag:]
		}
	}

	err = sock.write(msg.Stream, ppid, payload, msg.Reliability)
	if errors.Is(err, errWouldBlock) {
		return t.remainder(msg, payload), false, nil
	}
	if err != nil {
		t.writeFailed(msg, err)
		return nil, true, err
	}
	if ppid != PPIDStringEmpty && ppid != PPIDBinaryEmpty {
		t.logSent(msg.Stream, len(payload))
	}
	return nil, true, nil
}

// remainder 返回 msg 中从 payload 开始尚未写出的部分
func (t *Transport) remainder(msg *types.Message, payload []byte) *types.Message {
	if len(msg.Data) == 0 || len(payload) == len(msg.Data) {
		return msg
	}
	return &types.Message{
		Type:        msg.Type,
		Stream:      msg.Stream,
		Data:        payload,
		Reliability: msg.Reliability,
	}
}

func (t *Transport) writeFailed(msg *types.Message, err error) {
	logger.Warn("写入失败，丢弃消息", "msg", msg, "error", err)
	t.dropped("write")
}

// sendFailed 已排队的消息写入失败，关联不再可用
func (t *Transport) sendFailed(err error) {
	if t.stopped.Load() {
		return
	}
	logger.Warn("发送队列写入失败", "error", err)
	t.ChangeState(types.StateFailed)
}

func (t *Transport) dropped(reason string) {
	if t.reporter != nil {
		t.reporter.LogDropped(reason)
	}
}

func (t *Transport) logSent(stream uint16, n int) {
	if t.reporter != nil {
		t.reporter.LogSentMessage(stream, int64(n))
	}
}

// updateBufferedLocked 调整流的缓冲量并登记通知，调用方持有 sendMu
func (t *Transport) updateBufferedLocked(stream uint16, delta int) {
	if delta == 0 {
		return
	}
	amount := t.buffered[stream] + delta
	if amount <= 0 {
		amount = 0
		delete(t.buffered, stream)
	} else {
		t.buffered[stream] = amount
	}
	if t.reporter != nil {
		t.reporter.AddBuffered(int64(delta))
	}
	t.notifier.enqueue(stream, amount)
}
