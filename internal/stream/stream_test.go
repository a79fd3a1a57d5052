package stream

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	s := New([]byte{0, 1, 2, 3, 4, 5, 6, 7}, binary.LittleEndian)

	tests := []struct {
		name    string
		off     int64
		length  int64
		want    []byte
		wantErr bool
	}{
		{name: "whole buffer", off: 0, length: 8, want: []byte{0, 1, 2, 3, 4, 5, 6, 7}},
		{name: "tail", off: 6, length: 2, want: []byte{6, 7}},
		{name: "empty at end", off: 8, length: 0, want: []byte{}},
		{name: "one past end", off: 7, length: 2, wantErr: true},
		{name: "offset past end", off: 1008, length: 1, wantErr: true},
		{name: "negative offset", off: -1, length: 1, wantErr: true},
		{name: "overflowing length", off: 4, length: math.MaxInt64, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Read(tt.off, tt.length)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrOutOfBounds))
				var be *BoundsError
				require.True(t, errors.As(err, &be))
				assert.Equal(t, int64(8), be.Size)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(got), cap(got))
		})
	}
}

func TestReadInteger(t *testing.T) {
	le := New([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, binary.LittleEndian)
	be := New([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, binary.BigEndian)

	v16, err := ReadInteger[uint16](le, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), v16)

	v32, err := ReadInteger[uint32](be, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x05060708), v32)

	v64, err := ReadInteger[uint64](le, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0807060504030201), v64)

	_, err = ReadInteger[uint64](le, 1)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestPeekDoesNotAdvance(t *testing.T) {
	s := New([]byte{0xaa, 0xbb, 0xcc, 0xdd}, binary.LittleEndian)

	var v uint16
	require.NoError(t, s.Peek(2, &v))
	assert.Equal(t, uint16(0xddcc), v)
	assert.Equal(t, int64(0), s.Pos())

	require.NoError(t, s.Next(&v))
	assert.Equal(t, uint16(0xbbaa), v)
	assert.Equal(t, int64(2), s.Pos())
	require.NoError(t, s.Next(&v))
	assert.Error(t, s.Next(&v))
	assert.Equal(t, int64(4), s.Pos())
}

func TestReadCString(t *testing.T) {
	s := New([]byte("\x00libc.so.6\x00foo"), binary.LittleEndian)

	str, err := s.ReadCString(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "libc.so.6", str)

	str, err = s.ReadCString(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "", str)

	str, err = s.ReadCString(11, 0)
	assert.Error(t, err)
	assert.Equal(t, "foo", str)

	str, err = s.ReadCString(1, 4)
	assert.Error(t, err)
	assert.Equal(t, "libc", str)

	_, err = s.ReadCString(100, 0)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestReadAt(t *testing.T) {
	s := New([]byte{1, 2, 3}, nil)
	buf := make([]byte, 4)
	n, err := s.ReadAt(buf, 1)
	assert.Equal(t, 2, n)
	assert.Error(t, err)
	n, err = s.ReadAt(buf[:2], 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, binary.LittleEndian, s.ByteOrder())
}
