package dds

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	ibinary "github.com/robert-malhotra/go-dcm2vol/internal/binary"
)

// Write writes a volume texture holding voxels to w. voxels must contain
// exactly width*height*depth 16-bit samples.
func Write(w io.Writer, voxels []byte, width, height, depth int) error {
	h := NewHeader(width, height, depth)
	if int64(len(voxels)) != h.DataSize() {
		return fmt.Errorf("%w: %d bytes for %dx%dx%d", ErrShortData, len(voxels), width, height, depth)
	}
	return WriteFrom(w, bytes.NewReader(voxels), width, height, depth)
}

// WriteFrom writes the header followed by exactly width*height*depth*2
// bytes copied from r. Extra input is left unread.
func WriteFrom(w io.Writer, r io.Reader, width, height, depth int) error {
	h := NewHeader(width, height, depth)
	bw := ibinary.NewWriter(w, ibinary.DefaultConfig())
	if err := bw.WriteString(Magic); err != nil {
		return fmt.Errorf("writing magic: %w", err)
	}
	if err := bw.WriteRecord(&h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	n, err := io.CopyN(bw, r, h.DataSize())
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: got %d of %d bytes", ErrShortData, n, h.DataSize())
	}
	if err != nil {
		return fmt.Errorf("writing voxels: %w", err)
	}
	return nil
}

// WriteFile writes a volume texture to path, streaming the voxels from the
// raw file at rawPath.
func WriteFile(path, rawPath string, width, height, depth int) (err error) {
	src, err := os.Open(rawPath)
	if err != nil {
		return fmt.Errorf("opening raw volume: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := dst.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	return WriteFrom(dst, src, width, height, depth)
}

// Read parses the magic word and header from r. The returned reader yields
// the voxel data and is limited to the size the header declares.
func Read(r io.Reader) (*Header, io.Reader, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if string(magic) != Magic {
		return nil, nil, fmt.Errorf("%w: magic %q", ErrBadMagic, magic)
	}

	var h Header
	if err := ibinary.ReadRecord(r, binary.LittleEndian, &h); err != nil {
		return nil, nil, fmt.Errorf("%w: reading header: %v", ErrBadMagic, err)
	}
	if err := h.validate(); err != nil {
		return nil, nil, err
	}
	return &h, io.LimitReader(r, h.DataSize()), nil
}

// File is an open DDS file.
type File struct {
	Header *Header
	io.Reader

	f *os.File
}

// Open opens the file at path and reads its header. The caller must Close
// the returned file.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	h, data, err := Read(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{Header: h, Reader: data, f: f}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}
