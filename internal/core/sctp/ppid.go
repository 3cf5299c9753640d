package sctp

import (
	"fmt"

	"github.com/dep2p/go-rtcmux/pkg/types"
)

// PPID SCTP 载荷协议标识
type PPID uint32

// WebRTC 数据通道使用的 PPID
const (
	PPIDControl       PPID = 50
	PPIDString        PPID = 51
	PPIDBinaryPartial PPID = 52
	PPIDBinary        PPID = 53
	PPIDStringPartial PPID = 54
	PPIDStringEmpty   PPID = 56
	PPIDBinaryEmpty   PPID = 57
)

// String 返回 PPID 名称
func (p PPID) String() string {
	switch p {
	case PPIDControl:
		return "control"
	case PPIDString:
		return "string"
	case PPIDBinaryPartial:
		return "binary-partial"
	case PPIDBinary:
		return "binary"
	case PPIDStringPartial:
		return "string-partial"
	case PPIDStringEmpty:
		return "string-empty"
	case PPIDBinaryEmpty:
		return "binary-empty"
	default:
		return fmt.Sprintf("PPID(%d)", uint32(p))
	}
}

// emptyPayload 空消息在线上的载荷
var emptyPayload = []byte{0}

// outboundPPID 为完整消息选择 PPID 和线上载荷
func outboundPPID(msg *types.Message) (PPID, []byte, bool) {
	switch msg.Type {
	case types.MessageString:
		if len(msg.Data) == 0 {
			return PPIDStringEmpty, emptyPayload, true
		}
		return PPIDString, msg.Data, true
	case types.MessageBinary:
		if len(msg.Data) == 0 {
			return PPIDBinaryEmpty, emptyPayload, true
		}
		return PPIDBinary, msg.Data, true
	case types.MessageControl:
		return PPIDControl, msg.Data, true
	default:
		return 0, nil, false
	}
}

// partialPPID 分片发送时非末片使用的 PPID
func partialPPID(t types.MessageType) PPID {
	if t == types.MessageString {
		return PPIDStringPartial
	}
	return PPIDBinaryPartial
}
