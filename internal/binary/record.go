package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrNotFixedSize is returned for values that have no fixed wire layout
// (slices, strings, maps, pointers).
var ErrNotFixedSize = errors.New("value has no fixed binary size")

// RecordSize returns the exact encoded size of a fixed-layout record.
// Fields are packed in declaration order with no alignment padding.
func RecordSize(v any) (int, error) {
	n := binary.Size(v)
	if n < 0 {
		return 0, fmt.Errorf("%w: %T", ErrNotFixedSize, v)
	}
	return n, nil
}

// EncodeRecord encodes a fixed-size struct (or array of fixed-size values)
// into a new byte slice of exactly RecordSize bytes.
func EncodeRecord(order binary.ByteOrder, v any) ([]byte, error) {
	n, err := RecordSize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(n)
	if err := binary.Write(&buf, order, v); err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// DecodeRecord decodes data into the record pointed to by v. The length of
// data must match the record size exactly.
func DecodeRecord(order binary.ByteOrder, data []byte, v any) error {
	n, err := RecordSize(v)
	if err != nil {
		return err
	}
	if len(data) != n {
		return fmt.Errorf("decoding %T: expected %d bytes, got %d", v, n, len(data))
	}
	if err := binary.Read(bytes.NewReader(data), order, v); err != nil {
		return fmt.Errorf("decoding %T: %w", v, err)
	}
	return nil
}

// ReadRecord reads exactly one record from r into v.
// A clean end of input before the first byte is reported as io.EOF;
// a partial record is reported as io.ErrUnexpectedEOF.
func ReadRecord(r io.Reader, order binary.ByteOrder, v any) error {
	n, err := RecordSize(v)
	if err != nil {
		return err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	return DecodeRecord(order, buf, v)
}
