// Package stream provides a bounds-checked reader over an in-memory binary image.
//
// Every read is qualified by an offset and a length and fails with a
// *BoundsError instead of reading past the end of the buffer. Reads never
// panic, whatever values a malformed file feeds into them.
package stream

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ErrOutOfBounds is the cause of every *BoundsError.
var ErrOutOfBounds = errors.New("read out of bounds")

// BoundsError is returned when a read would exceed the buffer extent.
type BoundsError struct {
	Offset int64
	Length int64
	Size   int64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("stream: read of %#x bytes at offset %#x exceeds buffer of size %#x", e.Length, e.Offset, e.Size)
}

// Is reports whether target is ErrOutOfBounds.
func (e *BoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Stream is a byte-addressable view of a binary image. The zero value is an
// empty little-endian stream.
type Stream struct {
	d     []byte
	i     int64 // cursor used by Next
	order binary.ByteOrder
}

// New creates a Stream over data. The stream does not copy data.
func New(data []byte, order binary.ByteOrder) *Stream {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Stream{d: data, order: order}
}

// Size returns the length of the underlying buffer.
func (s *Stream) Size() int64 { return int64(len(s.d)) }

// Bytes returns the underlying buffer.
func (s *Stream) Bytes() []byte { return s.d }

// ByteOrder returns the byte order used to decode integers and records.
func (s *Stream) ByteOrder() binary.ByteOrder {
	if s.order == nil {
		return binary.LittleEndian
	}
	return s.order
}

// SetByteOrder changes the byte order used by subsequent reads.
func (s *Stream) SetByteOrder(order binary.ByteOrder) { s.order = order }

// CanRead reports whether length bytes are available at off.
func (s *Stream) CanRead(off, length int64) bool {
	if off < 0 || length < 0 {
		return false
	}
	size := int64(len(s.d))
	if off > size {
		return false
	}
	return length <= size-off
}

func (s *Stream) check(off, length int64) error {
	if !s.CanRead(off, length) {
		return &BoundsError{Offset: off, Length: length, Size: int64(len(s.d))}
	}
	return nil
}

// Read returns length bytes at off without copying and without moving the
// cursor. The returned slice has its capacity clamped to its length.
func (s *Stream) Read(off, length int64) ([]byte, error) {
	if err := s.check(off, length); err != nil {
		return nil, err
	}
	return s.d[off : off+length : off+length], nil
}

// ReadAt implements the io.ReaderAt interface.
func (s *Stream) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(s.d)) {
		return 0, &BoundsError{Offset: off, Length: int64(len(b)), Size: int64(len(s.d))}
	}
	n := copy(b, s.d[off:])
	if n < len(b) {
		return n, &BoundsError{Offset: off, Length: int64(len(b)), Size: int64(len(s.d))}
	}
	return n, nil
}

// Peek decodes the fixed-size value v at off without moving the cursor.
func (s *Stream) Peek(off int64, v interface{}) error {
	size := binary.Size(v)
	if size < 0 {
		return errors.Errorf("stream: %T has no fixed size", v)
	}
	dat, err := s.Read(off, int64(size))
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(dat), s.ByteOrder(), v)
}

// Pos returns the cursor position.
func (s *Stream) Pos() int64 { return s.i }

// Next decodes v at the cursor and advances it past v.
func (s *Stream) Next(v interface{}) error {
	if err := s.Peek(s.i, v); err != nil {
		return err
	}
	s.i += int64(binary.Size(v))
	return nil
}

// ReadCString reads a NUL-terminated string at off, looking at no more than
// max bytes. A string running into the end of the buffer or past max is
// returned up to that point together with an error.
func (s *Stream) ReadCString(off, max int64) (string, error) {
	if off < 0 || off >= int64(len(s.d)) {
		return "", &BoundsError{Offset: off, Length: 1, Size: int64(len(s.d))}
	}
	end := int64(len(s.d))
	if max > 0 && off+max < end {
		end = off + max
	}
	dat := s.d[off:end]
	if i := bytes.IndexByte(dat, 0); i >= 0 {
		return string(dat[:i]), nil
	}
	return string(dat), errors.Errorf("stream: unterminated string at %#x", off)
}

// ReadInteger decodes an unsigned integer of T's width at off.
func ReadInteger[T constraints.Unsigned](s *Stream, off int64) (T, error) {
	var v T
	if err := s.Peek(off, &v); err != nil {
		return 0, err
	}
	return v, nil
}
