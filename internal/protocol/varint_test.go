package protocol

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarIntKnownEncodings(t *testing.T) {
	tests := []struct {
		value   int32
		encoded []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{255, []byte{0xff, 0x01}},
		{25565, []byte{0xdd, 0xc7, 0x01}},
		{2097151, []byte{0xff, 0xff, 0x7f}},
		{2147483647, []byte{0xff, 0xff, 0xff, 0xff, 0x07}},
		{-1, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
		{-2147483648, []byte{0x80, 0x80, 0x80, 0x80, 0x08}},
	}

	for _, tt := range tests {
		got := AppendVarInt(nil, tt.value)
		assert.Equal(t, tt.encoded, got, "encoding of %d", tt.value)
		assert.Equal(t, len(tt.encoded), VarIntLen(tt.value), "length of %d", tt.value)

		decoded, err := ReadVarInt(bytes.NewReader(tt.encoded))
		require.NoError(t, err, "decoding of %d", tt.value)
		assert.Equal(t, tt.value, decoded)
	}
}

func TestReadVarIntByteAtATime(t *testing.T) {
	enc := AppendVarInt(nil, 1234567)
	v, err := ReadVarInt(iotest.OneByteReader(bytes.NewReader(enc)))
	require.NoError(t, err)
	assert.Equal(t, int32(1234567), v)
}

func TestReadVarIntErrors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"empty stream", nil, io.EOF},
		{"truncated mid-varint", []byte{0x80}, io.ErrUnexpectedEOF},
		{"six continuation bytes", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, ErrVarIntTooLong},
		{"fifth byte overflows 32 bits", []byte{0xff, 0xff, 0xff, 0xff, 0x10}, ErrVarIntTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadVarInt(bytes.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVarIntDoesNotOverRead(t *testing.T) {
	// Two varints back to back on one reader must decode independently.
	buf := AppendVarInt(nil, 300)
	buf = AppendVarInt(buf, 7)
	r := bytes.NewReader(buf)

	a, err := ReadVarInt(r)
	require.NoError(t, err)
	b, err := ReadVarInt(r)
	require.NoError(t, err)

	assert.Equal(t, int32(300), a)
	assert.Equal(t, int32(7), b)
	assert.Zero(t, r.Len())
}
