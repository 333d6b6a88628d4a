package dicom

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrFormat              = errors.New("malformed DICOM stream")
	ErrNotDICOM            = fmt.Errorf("%w: DICM marker not found", ErrFormat)
	ErrNestingTooDeep      = fmt.Errorf("%w: sequence nesting too deep", ErrFormat)
	ErrUnsupportedEncoding = errors.New("unsupported DICOM encoding")
)
