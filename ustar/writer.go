package ustar

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	ibinary "github.com/robert-malhotra/go-dcm2vol/internal/binary"
)

// Writer appends regular-file entries to an archive stream.
type Writer struct {
	w      *ibinary.Writer
	closed bool
}

// NewWriter creates an archive writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: ibinary.NewWriter(w, ibinary.DefaultConfig())}
}

// Add writes one entry named name whose payload is exactly size bytes read
// from r.
func (tw *Writer) Add(name string, size int64, mtime time.Time, r io.Reader) error {
	h, err := newHeader(name, size, mtime)
	if err != nil {
		return err
	}
	block, err := h.encode()
	if err != nil {
		return fmt.Errorf("encoding header for %s: %w", name, err)
	}
	if err := tw.w.WriteBytes(block); err != nil {
		return err
	}
	n, err := io.CopyN(tw.w, r, size)
	if err == io.EOF {
		return fmt.Errorf("%s: payload ended after %d of %d bytes: %w", name, n, size, io.ErrUnexpectedEOF)
	}
	if err != nil {
		return err
	}
	return tw.w.WritePadding(BlockSize)
}

// AddFile adds the regular file at path under its base name.
func (tw *Writer) AddFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return tw.Add(filepath.Base(path), info.Size(), info.ModTime(), f)
}

// Close writes the two zero blocks that end the archive. It does not close
// the underlying writer.
func (tw *Writer) Close() error {
	if tw.closed {
		return nil
	}
	tw.closed = true
	return tw.w.WriteZeros(2 * BlockSize)
}

// Create writes an archive of the given files to w.
func Create(w io.Writer, paths ...string) error {
	tw := NewWriter(w)
	for _, p := range paths {
		if err := tw.AddFile(p); err != nil {
			return err
		}
	}
	return tw.Close()
}

// CreateFile writes an archive of the given files to a new file at out.
func CreateFile(out string, paths ...string) (err error) {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Create(f, paths...)
}
