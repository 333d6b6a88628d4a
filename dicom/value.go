package dicom

import (
	"fmt"
	"strconv"
)

// Value is one decoded value of an element. The concrete types are Text,
// Int, Float, Bytes, Items and Separator; the set is closed.
type Value interface {
	fmt.Stringer
	isValue()
}

// Text is a single text value.
type Text string

// Int is an integer value (decoded from unsigned 16-bit fields).
type Int int64

// Float is a value parsed from numeric text.
type Float float64

// Bytes is a raw payload.
type Bytes []byte

// Items holds the nested elements of a sequence item.
type Items []*Element

// Separator carries the length field of a delimiter element.
type Separator uint32

func (Text) isValue()      {}
func (Int) isValue()       {}
func (Float) isValue()     {}
func (Bytes) isValue()     {}
func (Items) isValue()     {}
func (Separator) isValue() {}

func (v Text) String() string      { return strconv.Quote(string(v)) }
func (v Int) String() string       { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string     { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Bytes) String() string     { return fmt.Sprintf("<%d bytes>", len(v)) }
func (v Items) String() string     { return fmt.Sprintf("<%d nested elements>", len(v)) }
func (v Separator) String() string { return fmt.Sprintf("<separator %d>", uint32(v)) }
