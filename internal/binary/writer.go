package binary

import (
	"encoding/binary"
	"io"
)

// Writer is a sequential binary writer that tracks its absolute position
// in the output stream, so block alignment can be computed from the stream
// position rather than from payload sizes alone.
type Writer struct {
	w     io.Writer
	order binary.ByteOrder
	pos   int64
}

// NewWriter creates a binary writer with the given configuration.
func NewWriter(w io.Writer, cfg Config) *Writer {
	order := cfg.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	return &Writer{
		w:     w,
		order: order,
		pos:   0,
	}
}

// Pos returns the current write position.
func (w *Writer) Pos() int64 {
	return w.pos
}

// Write implements io.Writer so a Writer can be the target of io.Copy.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}

// WriteBytes writes the given bytes at the current position.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}

// WriteString writes s verbatim.
func (w *Writer) WriteString(s string) error {
	return w.WriteBytes([]byte(s))
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) error {
	buf := make([]byte, 2)
	w.order.PutUint16(buf, v)
	return w.WriteBytes(buf)
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	buf := make([]byte, 4)
	w.order.PutUint32(buf, v)
	return w.WriteBytes(buf)
}

// WriteRecord encodes a fixed-size record and writes it.
func (w *Writer) WriteRecord(v any) error {
	buf, err := EncodeRecord(w.order, v)
	if err != nil {
		return err
	}
	return w.WriteBytes(buf)
}

// WritePadding writes zero bytes to align to the given alignment.
func (w *Writer) WritePadding(alignment int64) error {
	if alignment <= 1 {
		return nil
	}
	remainder := w.pos % alignment
	if remainder == 0 {
		return nil
	}
	return w.WriteZeros(int(alignment - remainder))
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	zeros := make([]byte, n)
	return w.WriteBytes(zeros)
}

