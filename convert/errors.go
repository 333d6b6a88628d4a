package convert

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-dcm2vol/dicom"
	"github.com/robert-malhotra/go-dcm2vol/volume"
)

// ErrOutputHoldsInputs is returned instead of clearing an output directory
// that contains input files.
var ErrOutputHoldsInputs = errors.New("output directory contains input files")

// ErrorKind classifies per-file failures.
type ErrorKind int

const (
	KindIO ErrorKind = iota
	KindFormat
	KindUnsupportedEncoding
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindUnsupportedEncoding:
		return "unsupported-encoding"
	case KindValidation:
		return "validation"
	default:
		return "io"
	}
}

// FileError records why one input file was skipped.
type FileError struct {
	Path string
	Kind ErrorKind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// newFileError classifies err by the sentinel errors of the decoding and
// normalizing packages.
func newFileError(path string, err error) *FileError {
	kind := KindIO
	switch {
	case errors.Is(err, dicom.ErrUnsupportedEncoding), errors.Is(err, volume.ErrUnsupportedEncoding):
		kind = KindUnsupportedEncoding
	case errors.Is(err, volume.ErrUnsupportedPhotometry):
		kind = KindUnsupportedEncoding
	case errors.Is(err, volume.ErrValidation):
		kind = KindValidation
	case errors.Is(err, dicom.ErrFormat):
		kind = KindFormat
	}
	return &FileError{Path: path, Kind: kind, Err: err}
}
