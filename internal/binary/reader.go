// Package binary provides low-level binary I/O for the DICOM, DDS and archive codecs.
package binary

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrShortRead is returned when a read would run past the end of the input.
var ErrShortRead = errors.New("read past end of input")

// Reader provides positional reads over a bounded io.ReaderAt.
// Multi-byte integers are decoded with the configured byte order,
// never with the host's native order.
type Reader struct {
	r     io.ReaderAt
	order binary.ByteOrder
	size  int64
	pos   int64
}

// Config holds reader configuration.
type Config struct {
	ByteOrder binary.ByteOrder
}

// DefaultConfig returns the little-endian configuration used by every
// format in this module.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian}
}

// NewReader creates a binary reader over the first size bytes of r.
func NewReader(r io.ReaderAt, size int64, cfg Config) *Reader {
	order := cfg.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	return &Reader{
		r:     r,
		order: order,
		size:  size,
		pos:   0,
	}
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Size returns the total number of readable bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// Remaining returns the number of bytes between the position and the end.
func (r *Reader) Remaining() int64 {
	if r.pos >= r.size {
		return 0
	}
	return r.size - r.pos
}

// EOF reports whether the reader has consumed all input.
func (r *Reader) EOF() bool {
	return r.pos >= r.size
}

// ReadBytes reads exactly n bytes from the current position.
// Lengths that exceed the remaining input fail before any allocation.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if int64(n) > r.Remaining() {
		return nil, ErrShortRead
	}
	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, r.pos)
	if got < n {
		if err == nil || err == io.EOF {
			err = ErrShortRead
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// ReadString reads n bytes and returns them as a string.
func (r *Reader) ReadString(n int) (string, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(buf), nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) error {
	if n < 0 || n > r.Remaining() {
		return ErrShortRead
	}
	r.pos += n
	return nil
}

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}
