package worker

import "errors"

var (
	// ErrPoolClosed 工作池已关闭
	ErrPoolClosed = errors.New("worker: pool closed")
)
