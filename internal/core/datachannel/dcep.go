package datachannel

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/pion/datachannel"

	"github.com/dep2p/go-rtcmux/pkg/types"
)

// DCEP 消息类型
const (
	dcepAck  byte = 0x02
	dcepOpen byte = 0x03
)

// openHeaderSize DATA_CHANNEL_OPEN 固定头长度
const openHeaderSize = 12

// openMessage DATA_CHANNEL_OPEN
//
//	 0                   1                   2                   3
//	+---------------+---------------+-------------------------------+
//	| Message Type  | Channel Type  |            Priority           |
//	+---------------------------------------------------------------+
//	|                    Reliability Parameter                      |
//	+-------------------------------+-------------------------------+
//	|         Label Length          |       Protocol Length         |
//	+-------------------------------+-------------------------------+
//	|                             Label                             |
//	|                           Protocol                            |
type openMessage struct {
	ChannelType          datachannel.ChannelType
	Priority             uint16
	ReliabilityParameter uint32
	Label                string
	Protocol             string
}

func (m *openMessage) marshal() []byte {
	out := make([]byte, openHeaderSize, openHeaderSize+len(m.Label)+len(m.Protocol))
	out[0] = dcepOpen
	out[1] = byte(m.ChannelType)
	binary.BigEndian.PutUint16(out[2:], m.Priority)
	binary.BigEndian.PutUint32(out[4:], m.ReliabilityParameter)
	binary.BigEndian.PutUint16(out[8:], uint16(len(m.Label)))
	binary.BigEndian.PutUint16(out[10:], uint16(len(m.Protocol)))
	out = append(out, m.Label...)
	return append(out, m.Protocol...)
}

func parseOpen(raw []byte) (*openMessage, error) {
	if len(raw) < openHeaderSize || raw[0] != dcepOpen {
		return nil, fmt.Errorf("%w: open too short (%d bytes)", ErrInvalidControl, len(raw))
	}
	labelLen := int(binary.BigEndian.Uint16(raw[8:]))
	protoLen := int(binary.BigEndian.Uint16(raw[10:]))
	if len(raw) < openHeaderSize+labelLen+protoLen {
		return nil, fmt.Errorf("%w: open truncated", ErrInvalidControl)
	}
	body := raw[openHeaderSize:]
	return &openMessage{
		ChannelType:          datachannel.ChannelType(raw[1]),
		Priority:             binary.BigEndian.Uint16(raw[2:]),
		ReliabilityParameter: binary.BigEndian.Uint32(raw[4:]),
		Label:                string(body[:labelLen]),
		Protocol:             string(body[labelLen : labelLen+protoLen]),
	}, nil
}

func marshalAck() []byte {
	return []byte{dcepAck}
}

// channelType 把可靠性参数编码为 DCEP 通道类型和参数
func channelType(rel types.Reliability) (datachannel.ChannelType, uint32) {
	switch rel.Type {
	case types.ReliabilityRexmit:
		if rel.Unordered {
			return datachannel.ChannelTypePartialReliableRexmitUnordered, rel.Rexmit
		}
		return datachannel.ChannelTypePartialReliableRexmit, rel.Rexmit
	case types.ReliabilityTimed:
		ms := uint32(rel.MaxPacketLifeTime.Milliseconds())
		if rel.Unordered {
			return datachannel.ChannelTypePartialReliableTimedUnordered, ms
		}
		return datachannel.ChannelTypePartialReliableTimed, ms
	default:
		if rel.Unordered {
			return datachannel.ChannelTypeReliableUnordered, 0
		}
		return datachannel.ChannelTypeReliable, 0
	}
}

// reliabilityOf 从 DCEP 通道类型还原可靠性参数
func reliabilityOf(ct datachannel.ChannelType, param uint32) types.Reliability {
	switch ct {
	case datachannel.ChannelTypeReliableUnordered:
		return types.Reliability{Unordered: true}
	case datachannel.ChannelTypePartialReliableRexmit:
		return types.Reliability{Type: types.ReliabilityRexmit, Rexmit: param}
	case datachannel.ChannelTypePartialReliableRexmitUnordered:
		return types.Reliability{Unordered: true, Type: types.ReliabilityRexmit, Rexmit: param}
	case datachannel.ChannelTypePartialReliableTimed:
		return types.Reliability{Type: types.ReliabilityTimed, MaxPacketLifeTime: time.Duration(param) * time.Millisecond}
	case datachannel.ChannelTypePartialReliableTimedUnordered:
		return types.Reliability{Unordered: true, Type: types.ReliabilityTimed, MaxPacketLifeTime: time.Duration(param) * time.Millisecond}
	default:
		return types.Reliability{}
	}
}
