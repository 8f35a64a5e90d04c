package protocol

import (
	"errors"
	"io"
)

// maxVarIntLen is the longest legal encoding of a 32-bit value.
const maxVarIntLen = 5

// ErrVarIntTooLong reports a variable-length integer that does not
// terminate within five bytes or carries bits beyond 32.
var ErrVarIntTooLong = errors.New("protocol: varint exceeds 32 bits")

// AppendVarInt appends the wire encoding of v to dst and returns the
// extended slice. Values are encoded as unsigned little-endian base-128
// groups of seven bits, continuation bit high.
func AppendVarInt(dst []byte, v int32) []byte {
	u := uint32(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if u == 0 {
			return dst
		}
	}
}

// VarIntLen returns the encoded size of v in bytes.
func VarIntLen(v int32) int {
	u := uint32(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}

// ReadVarInt reads a single varint from r one byte at a time, so it can
// operate directly on a connection without over-reading. An EOF after at
// least one byte is reported as io.ErrUnexpectedEOF.
func ReadVarInt(r io.Reader) (int32, error) {
	var v uint32
	var buf [1]byte
	for i := 0; i < maxVarIntLen; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if i > 0 && errors.Is(err, io.EOF) {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		b := buf[0]
		v |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			// The fifth byte can only carry the top four bits of a
			// 32-bit value; anything above is an overflow.
			if i == maxVarIntLen-1 && b > 0x0f {
				return 0, ErrVarIntTooLong
			}
			return int32(v), nil
		}
	}
	return 0, ErrVarIntTooLong
}
