package sctp

import "errors"

var (
	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("sctp: already started")

	// ErrStopped 层已停止
	ErrStopped = errors.New("sctp: stopped")

	// ErrSendFailed 协议栈拒绝写入
	ErrSendFailed = errors.New("sctp: send failed")

	// ErrReassembly 分片重组失败
	ErrReassembly = errors.New("sctp: reassembly failed")

	// errWouldBlock 协议栈暂时无法接受更多数据
	errWouldBlock = errors.New("sctp: would block")
)
