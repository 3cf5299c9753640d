package chain

import "errors"

var (
	// ErrLayerAttached 该层已挂载
	ErrLayerAttached = errors.New("chain: layer already attached")

	// ErrChainClosed 链已关闭
	ErrChainClosed = errors.New("chain: closed")

	// ErrLayerFailed 某一层进入 Failed
	ErrLayerFailed = errors.New("chain: layer failed")

	// ErrNoMux 链中没有多路复用层
	ErrNoMux = errors.New("chain: no mux layer")
)
