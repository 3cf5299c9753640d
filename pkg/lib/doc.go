// Package lib 包含与架构组件无关的基础设施工具库
//
//   - log: 基于 log/slog 的组件日志，以及 pion 日志桥接
//
//	import "github.com/dep2p/go-rtcmux/pkg/lib/log"
//
//	var logger = log.Logger("core/sctp")
package lib
