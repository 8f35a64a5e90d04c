// Package protocol implements the server list ping wire format: length-
// prefixed frames of varint-framed fields, a handshake declaring the
// intended next state, and the JSON status payload. All decoding paths
// enforce hard size ceilings so a hostile peer cannot make the worker
// allocate unbounded memory.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Next-state values carried by the handshake.
const (
	StateStatus int32 = 1
	StateLogin  int32 = 2
)

// Packet ids seen in the login state after a handshake with StateLogin.
const (
	LoginDisconnect        int32 = 0x00
	LoginEncryptionRequest int32 = 0x01
	LoginSuccess           int32 = 0x02
	LoginSetCompression    int32 = 0x03
)

const (
	// MaxFrameLen caps the declared length of an incoming frame. Status
	// payloads with a favicon run to tens of kilobytes; anything near a
	// megabyte is hostile.
	MaxFrameLen = 1 << 20

	// MaxHostLen is the protocol's limit on the handshake host field.
	MaxHostLen = 255

	// MaxNameLen is the protocol's limit on a login username.
	MaxNameLen = 16
)

var (
	// ErrStringTooLong reports an outgoing string field over its declared
	// protocol maximum. For our fixed local parameters this is a
	// configuration bug, not a peer problem.
	ErrStringTooLong = errors.New("protocol: string field too long")

	// ErrFrameTooLarge reports an incoming frame whose declared length
	// exceeds MaxFrameLen.
	ErrFrameTooLarge = errors.New("protocol: frame exceeds size ceiling")

	// ErrIncompleteFrame reports a stream that closed mid-frame.
	ErrIncompleteFrame = errors.New("protocol: incomplete frame")

	// ErrInvalidFrame reports a nonsensical frame length.
	ErrInvalidFrame = errors.New("protocol: invalid frame length")
)

// frame wraps a packet payload in its varint length prefix.
func frame(payload []byte) []byte {
	out := AppendVarInt(make([]byte, 0, len(payload)+maxVarIntLen), int32(len(payload)))
	return append(out, payload...)
}

func appendString(dst []byte, s string) []byte {
	dst = AppendVarInt(dst, int32(len(s)))
	return append(dst, s...)
}

// EncodeHandshake builds the initial frame declaring protocol version,
// the address being contacted, and the intended next state.
func EncodeHandshake(protocolVersion int32, host string, port uint16, nextState int32) ([]byte, error) {
	if len(host) > MaxHostLen {
		return nil, fmt.Errorf("%w: host is %d bytes, max %d", ErrStringTooLong, len(host), MaxHostLen)
	}
	p := make([]byte, 0, len(host)+16)
	p = AppendVarInt(p, 0x00)
	p = AppendVarInt(p, protocolVersion)
	p = appendString(p, host)
	p = binary.BigEndian.AppendUint16(p, port)
	p = AppendVarInt(p, nextState)
	return frame(p), nil
}

// EncodeStatusRequest builds the fixed minimal status request frame.
func EncodeStatusRequest() []byte {
	return frame(AppendVarInt(nil, 0x00))
}

// EncodeLoginStart builds the login start frame used by the deep probe.
// Protocol versions from 1.20.2 on carry the player UUID after the name;
// pass a 16-byte uuid for those, nil otherwise.
func EncodeLoginStart(name string, uuid []byte) ([]byte, error) {
	if len(name) > MaxNameLen {
		return nil, fmt.Errorf("%w: username is %d bytes, max %d", ErrStringTooLong, len(name), MaxNameLen)
	}
	if len(uuid) != 0 && len(uuid) != 16 {
		return nil, fmt.Errorf("protocol: login uuid must be 16 bytes, got %d", len(uuid))
	}
	p := AppendVarInt(make([]byte, 0, len(name)+len(uuid)+4), 0x00)
	p = appendString(p, name)
	p = append(p, uuid...)
	return frame(p), nil
}

// ReadFrame reads one length-prefixed frame from r and returns its
// payload. The declared length is validated against MaxFrameLen before
// any payload memory is allocated.
func ReadFrame(r io.Reader) ([]byte, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: short length prefix", ErrIncompleteFrame)
		}
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrame, n)
	}
	if n > MaxFrameLen {
		return nil, fmt.Errorf("%w: declared %d bytes", ErrFrameTooLarge, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		// Keep the underlying error reachable so a read deadline is still
		// classifiable as a timeout.
		return nil, fmt.Errorf("%w: %w", ErrIncompleteFrame, err)
	}
	return buf, nil
}
