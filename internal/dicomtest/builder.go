// Package dicomtest builds synthetic DICOM Part 10 streams for tests.
package dicomtest

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-dcm2vol/dicom"
	"github.com/robert-malhotra/go-dcm2vol/internal/binary"
)

const undefinedLength = 0xFFFFFFFF

var longForm = map[string]bool{
	"OB": true, "OW": true, "UN": true, "SQ": true,
	"OD": true, "OF": true, "OL": true, "UC": true, "UR": true, "UT": true,
}

// Builder appends little-endian elements to an in-memory stream.
// Elements are written with explicit VR until Implicit(true) is called;
// group 0002 is always explicit and group FFFE never carries a VR, matching
// what the decoder expects.
type Builder struct {
	buf      bytes.Buffer
	w        *binary.Writer
	implicit bool
}

func newBuilder(implicit bool) *Builder {
	b := &Builder{implicit: implicit}
	b.w = binary.NewWriter(&b.buf, binary.DefaultConfig())
	return b
}

// NewBuilder starts a stream with a zero preamble and the DICM marker.
func NewBuilder() *Builder {
	b := newBuilder(false)
	_ = b.w.WriteZeros(128)
	_ = b.w.WriteString("DICM")
	return b
}

// NewFragment starts a bare element list, used for item bodies.
func NewFragment(implicit bool) *Builder {
	return newBuilder(implicit)
}

// Implicit switches the VR convention for subsequent non-meta elements.
func (b *Builder) Implicit(on bool) *Builder {
	b.implicit = on
	return b
}

// Build returns the encoded stream.
func (b *Builder) Build() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int {
	return b.buf.Len()
}

func (b *Builder) tag(tag dicom.Tag) {
	b.u16(tag.Group())
	b.u16(tag.Element())
}

// u16 and u32 ignore errors: writes into a bytes.Buffer cannot fail.
func (b *Builder) u16(v uint16) {
	_ = b.w.WriteUint16(v)
}

func (b *Builder) u32(v uint32) {
	_ = b.w.WriteUint32(v)
}

func shorts(values []uint16) []byte {
	var buf bytes.Buffer
	w := binary.NewWriter(&buf, binary.DefaultConfig())
	for _, v := range values {
		_ = w.WriteUint16(v)
	}
	return buf.Bytes()
}

func (b *Builder) isImplicit(tag dicom.Tag) bool {
	return b.implicit && !tag.IsMeta()
}

// Raw writes a complete element header followed by payload.
func (b *Builder) Raw(tag dicom.Tag, vr string, payload []byte) *Builder {
	b.header(tag, vr, uint32(len(payload)))
	_ = b.w.WriteBytes(payload)
	return b
}

func (b *Builder) header(tag dicom.Tag, vr string, length uint32) {
	b.tag(tag)
	switch {
	case tag.Group() == 0xFFFE || b.isImplicit(tag):
		b.u32(length)
	case longForm[vr]:
		_ = b.w.WriteString(vr)
		b.u16(0)
		b.u32(length)
	default:
		_ = b.w.WriteString(vr)
		b.u16(uint16(length))
	}
}

// Text writes a backslash-joined text element padded to even length with NUL.
func (b *Builder) Text(tag dicom.Tag, vr string, values ...string) *Builder {
	s := strings.Join(values, `\`)
	if len(s)%2 == 1 {
		s += "\x00"
	}
	return b.Raw(tag, vr, []byte(s))
}

// Decimal writes a DS element.
func (b *Builder) Decimal(tag dicom.Tag, values ...float64) *Builder {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return b.Text(tag, "DS", parts...)
}

// Shorts writes a US element.
func (b *Builder) Shorts(tag dicom.Tag, values ...uint16) *Builder {
	return b.Raw(tag, "US", shorts(values))
}

// Pixels writes a 16-bit OW pixel data element.
func (b *Builder) Pixels(samples []uint16) *Builder {
	return b.Raw(dicom.PixelDataTag, "OW", shorts(samples))
}

// EncapsulatedPixels writes pixel data with undefined length, as used by
// compressed transfer syntaxes.
func (b *Builder) EncapsulatedPixels() *Builder {
	b.header(dicom.PixelDataTag, "OB", undefinedLength)
	b.tag(dicom.ItemTag)
	b.u32(0)
	b.tag(dicom.SequenceDelimitationItemTag)
	b.u32(0)
	return b
}

// Item writes an item with a defined length around body.
func (b *Builder) Item(body []byte) *Builder {
	return b.Raw(dicom.ItemTag, "", body)
}

// UndefinedItem writes an item of undefined length closed by an item
// delimiter.
func (b *Builder) UndefinedItem(body []byte) *Builder {
	b.header(dicom.ItemTag, "", undefinedLength)
	_ = b.w.WriteBytes(body)
	return b.Delimiter(dicom.ItemDelimitationItemTag)
}

// Delimiter writes a zero-length delimitation element.
func (b *Builder) Delimiter(tag dicom.Tag) *Builder {
	b.header(tag, "", 0)
	return b
}

// Sequence writes an SQ element of undefined length holding the given item
// bodies, each with a defined length, closed by a sequence delimiter.
func (b *Builder) Sequence(tag dicom.Tag, items ...[]byte) *Builder {
	b.header(tag, "SQ", undefinedLength)
	for _, body := range items {
		b.Item(body)
	}
	return b.Delimiter(dicom.SequenceDelimitationItemTag)
}

func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
