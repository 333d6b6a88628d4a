package volume

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrValidation            = errors.New("invalid slice")
	ErrUnsupportedPhotometry = fmt.Errorf("%w: unsupported photometric interpretation", ErrValidation)
	ErrMissingField          = fmt.Errorf("%w: missing required field", ErrValidation)
	ErrPixelData             = fmt.Errorf("%w: pixel data does not match image size", ErrValidation)
	ErrUnsupportedEncoding   = errors.New("unsupported pixel encoding")
	ErrInconsistentGeometry  = errors.New("slice dimensions differ from the reference slice")
	ErrNoValidSlices         = errors.New("no valid slices")
)
