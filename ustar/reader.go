package ustar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Reader iterates over the entries of an archive stream.
type Reader struct {
	r   io.Reader
	pos int64

	// remaining payload bytes of the current entry, plus its padding
	remaining int64
	padding   int64

	err error
	eof bool
}

// NewReader creates a reader positioned at the start of an archive.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next advances to the next file or directory entry. It returns io.EOF at
// the end of the archive and when an invalid block is found; in the latter
// case Err reports why. Other entry types are skipped.
func (tr *Reader) Next() (*Entry, error) {
	if tr.eof {
		return nil, io.EOF
	}
	if err := tr.skip(tr.remaining + tr.padding); err != nil {
		return nil, tr.stop(err)
	}
	tr.remaining, tr.padding = 0, 0

	for {
		block := make([]byte, BlockSize)
		n, err := io.ReadFull(tr.r, block)
		tr.pos += int64(n)
		if err == io.EOF {
			return nil, tr.stop(nil)
		}
		if err != nil {
			return nil, tr.stop(err)
		}
		if isZeroBlock(block) {
			return nil, tr.stop(nil)
		}

		h, err := decodeHeader(block)
		if err != nil {
			return nil, tr.stop(err)
		}
		size, err := h.size()
		if err != nil {
			return nil, tr.stop(err)
		}
		mtime, err := h.modTime()
		if err != nil {
			return nil, tr.stop(err)
		}

		tr.remaining = size
		tr.padding = padTo(tr.pos+size, BlockSize)

		var kind Kind
		switch h.TypeFlag {
		case typeRegular:
			kind = File
		case typeDirectory:
			kind = Directory
		default:
			if err := tr.skip(tr.remaining + tr.padding); err != nil {
				return nil, tr.stop(err)
			}
			tr.remaining, tr.padding = 0, 0
			continue
		}

		return &Entry{
			Name:    h.name(),
			Offset:  tr.pos,
			ModTime: mtime,
			Kind:    kind,
			Size:    size,
		}, nil
	}
}

// Read reads payload bytes of the current entry.
func (tr *Reader) Read(p []byte) (int, error) {
	if tr.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > tr.remaining {
		p = p[:tr.remaining]
	}
	n, err := tr.r.Read(p)
	tr.pos += int64(n)
	tr.remaining -= int64(n)
	if err == io.EOF && tr.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// Err returns the reason iteration stopped early, or nil if the archive
// ended normally.
func (tr *Reader) Err() error {
	return tr.err
}

// Pos returns the number of archive bytes consumed.
func (tr *Reader) Pos() int64 {
	return tr.pos
}

func (tr *Reader) stop(err error) error {
	tr.eof = true
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = fmt.Errorf("%w: truncated at offset %d", ErrCorrupt, tr.pos)
	}
	if err == nil || errors.Is(err, ErrCorrupt) || errors.Is(err, ErrChecksum) {
		tr.err = err
		return io.EOF
	}
	tr.err = err
	return err
}

func (tr *Reader) skip(n int64) error {
	if n <= 0 {
		return nil
	}
	copied, err := io.CopyN(io.Discard, tr.r, n)
	tr.pos += copied
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// padTo returns the number of bytes needed to move pos to a multiple of size.
func padTo(pos, size int64) int64 {
	return (size - pos%size) % size
}

// List returns the file and directory entries of an archive. Iteration
// stops at the first invalid header.
func List(r io.Reader) ([]Entry, error) {
	tr := NewReader(r)
	var entries []Entry
	for {
		e, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

// Extract writes the regular files and directories of an archive below
// dir. Entries whose path would land outside dir fail with ErrUnsafePath.
func Extract(r io.Reader, dir string) ([]Entry, error) {
	tr := NewReader(r)
	var entries []Entry
	for {
		e, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}

		target, err := safeJoin(dir, e.Name)
		if err != nil {
			return entries, err
		}
		switch e.Kind {
		case Directory:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return entries, err
			}
		case File:
			if err := extractFile(tr, target, e); err != nil {
				return entries, err
			}
		}
		entries = append(entries, *e)
	}
}

func extractFile(tr *Reader, target string, e *Entry) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := io.CopyN(f, tr, e.Size); err != nil {
		return fmt.Errorf("extracting %s: %w", e.Name, err)
	}
	if !e.ModTime.IsZero() {
		if err := os.Chtimes(target, e.ModTime, e.ModTime); err != nil {
			return fmt.Errorf("setting mtime of %s: %w", e.Name, err)
		}
	}
	return nil
}

func safeJoin(dir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return filepath.Join(dir, clean), nil
}
