package noise

import "encoding/binary"

const (
	// lengthPrefix 帧长度前缀字节数
	lengthPrefix = 2

	// MaxFrame 单帧最大长度
	MaxFrame = 65535

	// MaxPlaintext 单帧最大明文长度（扣除 16 字节认证标签）
	MaxPlaintext = MaxFrame - 16
)

// appendFrame 追加一个带长度前缀的帧
func appendFrame(dst, body []byte) []byte {
	var hdr [lengthPrefix]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(body)))
	dst = append(dst, hdr[:]...)
	return append(dst, body...)
}

// frameReader 从字节流中切出完整帧
type frameReader struct {
	buf []byte
}

func (r *frameReader) write(p []byte) {
	r.buf = append(r.buf, p...)
}

// next 返回下一个完整帧，数据不足时返回 false
func (r *frameReader) next() ([]byte, bool) {
	if len(r.buf) < lengthPrefix {
		return nil, false
	}
	n := int(binary.BigEndian.Uint16(r.buf))
	if len(r.buf) < lengthPrefix+n {
		return nil, false
	}
	frame := r.buf[lengthPrefix : lengthPrefix+n]
	r.buf = r.buf[lengthPrefix+n:]
	if len(r.buf) == 0 {
		r.buf = nil
	}
	return frame, true
}
