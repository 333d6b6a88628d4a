package filter

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Filter is the interface implemented by all stream filters.
type Filter interface {
	// Name returns the configuration name of the filter.
	Name() string

	// Ext returns the file extension, including the dot, used for archives
	// compressed with this filter.
	Ext() string

	// Magic returns the bytes every encoded stream starts with.
	Magic() []byte

	// NewWriter wraps w so that data written to it is encoded. Close must be
	// called to flush the stream; it does not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)

	// NewReader wraps r so that reads return decoded data.
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// Registry maps filter names to filters.
var Registry = map[string]Filter{
	"gzip": Gzip{Level: gzip.DefaultCompression},
	"zstd": Zstd{Level: zstd.SpeedDefault},
}

// New returns the registered filter called name.
func New(name string) (Filter, error) {
	f, ok := Registry[name]
	if !ok {
		names := maps.Keys(Registry)
		slices.Sort(names)
		return nil, fmt.Errorf("unsupported compression %q (supported: %v)", name, names)
	}
	return f, nil
}

// Gzip is the gzip filter.
type Gzip struct {
	Level int
}

func (Gzip) Name() string  { return "gzip" }
func (Gzip) Ext() string   { return ".tgz" }
func (Gzip) Magic() []byte { return []byte{0x1f, 0x8b} }

func (g Gzip) NewWriter(w io.Writer) (io.WriteCloser, error) {
	zw, err := gzip.NewWriterLevel(w, g.Level)
	if err != nil {
		return nil, err
	}
	return zw, nil
}

func (Gzip) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return zr, nil
}

// Zstd is the Zstandard filter.
type Zstd struct {
	Level zstd.EncoderLevel
}

func (Zstd) Name() string  { return "zstd" }
func (Zstd) Ext() string   { return ".tar.zst" }
func (Zstd) Magic() []byte { return []byte{0x28, 0xb5, 0x2f, 0xfd} }

func (z Zstd) NewWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(z.Level))
	if err != nil {
		return nil, err
	}
	return enc, nil
}

func (Zstd) NewReader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}

// Detect returns the filter whose magic prefixes header, or nil.
func Detect(header []byte) Filter {
	for _, name := range []string{"gzip", "zstd"} {
		f := Registry[name]
		if bytes.HasPrefix(header, f.Magic()) {
			return f
		}
	}
	return nil
}

// NewReader returns a reader that decodes r if it starts with the magic of a
// registered filter and passes it through otherwise.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(4)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	f := Detect(header)
	if f == nil {
		return io.NopCloser(br), nil
	}
	return f.NewReader(br)
}

type fileReader struct {
	io.ReadCloser
	f *os.File
}

func (r *fileReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open opens the file at path for reading through NewReader.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &fileReader{ReadCloser: rc, f: f}, nil
}

// CompressFile encodes the file at src into a new file at dst.
func CompressFile(f Filter, src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	w, err := f.NewWriter(out)
	if err != nil {
		return fmt.Errorf("%s writer: %w", f.Name(), err)
	}
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		return fmt.Errorf("compressing %s: %w", src, err)
	}
	return w.Close()
}
