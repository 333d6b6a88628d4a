package filter

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRegistry(t *testing.T) {
	for _, name := range []string{"gzip", "zstd"} {
		f, err := New(name)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("expected name %q, got %q", name, f.Name())
		}
	}
	if _, err := New("lzma"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("voxel data "), 1000)

	for name, f := range Registry {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := f.NewWriter(&buf)
			if err != nil {
				t.Fatalf("NewWriter failed: %v", err)
			}
			if _, err := w.Write(payload); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			if !bytes.HasPrefix(buf.Bytes(), f.Magic()) {
				t.Errorf("expected stream to start with %x, got %x", f.Magic(), buf.Bytes()[:4])
			}
			if buf.Len() >= len(payload) {
				t.Errorf("expected compression, got %d bytes from %d", buf.Len(), len(payload))
			}

			r, err := NewReader(&buf)
			if err != nil {
				t.Fatalf("NewReader failed: %v", err)
			}
			defer r.Close()
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Error("payload differs after round trip")
			}
		})
	}
}

func TestNewReaderPassThrough(t *testing.T) {
	for _, in := range []string{"", "ab", "plain tar data"} {
		r, err := NewReader(strings.NewReader(in))
		if err != nil {
			t.Fatalf("NewReader(%q) failed: %v", in, err)
		}
		got, _ := io.ReadAll(r)
		if string(got) != in {
			t.Errorf("expected %q, got %q", in, got)
		}
	}
}

func TestDetect(t *testing.T) {
	if f := Detect([]byte{0x1f, 0x8b, 0x08}); f == nil || f.Name() != "gzip" {
		t.Errorf("expected gzip, got %v", f)
	}
	if f := Detect([]byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}); f == nil || f.Name() != "zstd" {
		t.Errorf("expected zstd, got %v", f)
	}
	if f := Detect([]byte("ustar")); f != nil {
		t.Errorf("expected no filter, got %v", f.Name())
	}
}

func TestCompressFileOpen(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "volume.tar")
	payload := bytes.Repeat([]byte{1, 2, 3, 4}, 4096)
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	for name, f := range Registry {
		t.Run(name, func(t *testing.T) {
			dst := filepath.Join(dir, "volume"+f.Ext())
			if err := CompressFile(f, src, dst); err != nil {
				t.Fatalf("CompressFile failed: %v", err)
			}
			r, err := Open(dst)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Close(); err != nil {
				t.Errorf("Close failed: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Error("decompressed file differs")
			}
		})
	}
}
