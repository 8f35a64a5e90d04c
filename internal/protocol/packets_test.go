package protocol

import (
	"bytes"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHandshakeWireFormat(t *testing.T) {
	got, err := EncodeHandshake(47, "example.com", 25565, StateStatus)
	require.NoError(t, err)

	want := []byte{
		0x11, // frame length
		0x00, // packet id
		0x2f, // protocol version 47
		0x0b, // host length
		'e', 'x', 'a', 'm', 'p', 'l', 'e', '.', 'c', 'o', 'm',
		0x63, 0xdd, // port 25565 big endian
		0x01, // next state: status
	}
	assert.Equal(t, want, got)
}

func TestEncodeHandshakeHostTooLong(t *testing.T) {
	_, err := EncodeHandshake(47, strings.Repeat("a", MaxHostLen+1), 25565, StateStatus)
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestEncodeStatusRequest(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x00}, EncodeStatusRequest())
}

func TestEncodeLoginStart(t *testing.T) {
	got, err := EncodeLoginStart("probe", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x07, 0x00, 0x05, 'p', 'r', 'o', 'b', 'e'}, got)

	withUUID, err := EncodeLoginStart("probe", make([]byte, 16))
	require.NoError(t, err)
	assert.Len(t, withUUID, len(got)+16)

	_, err = EncodeLoginStart("seventeen-chars-x", nil)
	assert.ErrorIs(t, err, ErrStringTooLong)

	_, err = EncodeLoginStart("probe", make([]byte, 5))
	assert.Error(t, err)
}

func TestReadFrame(t *testing.T) {
	payload := []byte("hello frame")
	buf := frame(payload)

	got, err := ReadFrame(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadFrameChunkedDelivery(t *testing.T) {
	payload := bytes.Repeat([]byte{0xab}, 300)
	r := iotest.OneByteReader(bytes.NewReader(frame(payload)))

	got, err := ReadFrame(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadFrameErrors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"oversized declared length", AppendVarInt(nil, 2147483647), ErrFrameTooLarge},
		{"just past the ceiling", AppendVarInt(nil, MaxFrameLen+1), ErrFrameTooLarge},
		{"zero length", []byte{0x00}, ErrInvalidFrame},
		{"negative length", AppendVarInt(nil, -5), ErrInvalidFrame},
		{"closed mid-payload", append(AppendVarInt(nil, 100), 0x01, 0x02), ErrIncompleteFrame},
		{"closed mid-prefix", []byte{0x80}, ErrIncompleteFrame},
		{"varint overrun prefix", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, ErrVarIntTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrame(bytes.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
