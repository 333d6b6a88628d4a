package dicom

import "github.com/rs/zerolog"

// Option configures decoding.
type Option func(*options)

type options struct {
	dict     *Dictionary
	log      zerolog.Logger
	maxDepth int
}

func defaultOptions() *options {
	return &options{
		dict:     DefaultDictionary(),
		log:      zerolog.Nop(),
		maxDepth: defaultMaxNestingDepth,
	}
}

// WithDictionary sets the tag dictionary used to resolve value kinds.
func WithDictionary(d *Dictionary) Option {
	return func(o *options) {
		if d != nil {
			o.dict = d
		}
	}
}

// WithLogger sets the logger that receives per-element debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithMaxDepth bounds the nesting of sequence items.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}
