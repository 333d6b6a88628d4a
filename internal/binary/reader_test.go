package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func newTestReader(data []byte) *Reader {
	return NewReader(bytes.NewReader(data), int64(len(data)), DefaultConfig())
}

func TestReaderReadUint16(t *testing.T) {
	// Little-endian: 0x0102 stored as [0x02, 0x01]
	r := newTestReader([]byte{0x02, 0x01, 0xFF, 0xFF})

	v, err := r.ReadUint16()
	if err != nil {
		t.Fatalf("ReadUint16 failed: %v", err)
	}
	if v != 0x0102 {
		t.Errorf("expected 0x0102, got 0x%04x", v)
	}

	v, err = r.ReadUint16()
	if err != nil {
		t.Fatalf("ReadUint16 failed: %v", err)
	}
	if v != 0xFFFF {
		t.Errorf("expected 0xFFFF, got 0x%04x", v)
	}
}

func TestReaderReadUint32(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(0x12345678))
	binary.Write(&buf, binary.LittleEndian, uint32(0xDEADBEEF))

	r := newTestReader(buf.Bytes())

	v, err := r.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32 failed: %v", err)
	}
	if v != 0x12345678 {
		t.Errorf("expected 0x12345678, got 0x%08x", v)
	}

	v, err = r.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32 failed: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Errorf("expected 0xDEADBEEF, got 0x%08x", v)
	}
	if !r.EOF() {
		t.Error("expected reader to be at EOF")
	}
}

func TestReaderBigEndian(t *testing.T) {
	data := []byte{0x01, 0x02}
	r := NewReader(bytes.NewReader(data), 2, Config{ByteOrder: binary.BigEndian})

	v, err := r.ReadUint16()
	if err != nil {
		t.Fatalf("ReadUint16 failed: %v", err)
	}
	if v != 0x0102 {
		t.Errorf("expected 0x0102, got 0x%04x", v)
	}
}

func TestReaderShortRead(t *testing.T) {
	r := newTestReader([]byte{0x01, 0x02, 0x03})

	if _, err := r.ReadUint32(); !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
	if r.Pos() != 0 {
		t.Errorf("failed read must not advance, position is %d", r.Pos())
	}

	// A huge length must be rejected without allocating.
	if _, err := r.ReadBytes(1 << 40); !errors.Is(err, ErrShortRead) {
		t.Errorf("expected ErrShortRead for oversized read, got %v", err)
	}
}

func TestReaderString(t *testing.T) {
	r := newTestReader([]byte("DICMrest"))

	s, err := r.ReadString(4)
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if s != "DICM" {
		t.Errorf("expected DICM, got %q", s)
	}
	if r.Remaining() != 4 {
		t.Errorf("expected 4 remaining bytes, got %d", r.Remaining())
	}
}

func TestReaderSkip(t *testing.T) {
	r := newTestReader(make([]byte, 32))

	if err := r.Skip(3); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if r.Pos() != 3 {
		t.Errorf("expected position 3, got %d", r.Pos())
	}
	if r.Remaining() != 29 {
		t.Errorf("expected 29 remaining bytes, got %d", r.Remaining())
	}

	if err := r.Skip(100); !errors.Is(err, ErrShortRead) {
		t.Errorf("expected ErrShortRead, got %v", err)
	}
}
