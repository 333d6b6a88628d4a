package dicom

import "fmt"

// Tag identifies a data element. The group number occupies the most
// significant 16 bits and the element number the least significant 16 bits.
type Tag uint32

// NewTag combines a group and element number into a Tag.
func NewTag(group, element uint16) Tag {
	return Tag(uint32(group)<<16 | uint32(element))
}

// Group returns the group number.
func (t Tag) Group() uint16 {
	return uint16(t >> 16)
}

// Element returns the element number.
func (t Tag) Element() uint16 {
	return uint16(t & 0xFFFF)
}

// Split returns the group and element numbers.
func (t Tag) Split() (group, element uint16) {
	return t.Group(), t.Element()
}

// IsMeta reports whether the tag belongs to the file meta group, which is
// always encoded with explicit VR.
func (t Tag) IsMeta() bool {
	return t.Group() == metaGroup
}

func (t Tag) String() string {
	return fmt.Sprintf("(%04x,%04x)", t.Group(), t.Element())
}

const (
	metaGroup uint16 = 0x0002
	itemGroup uint16 = 0xFFFE
)

// Well-known tags.
var (
	TransferSyntaxUIDTag        = NewTag(0x0002, 0x0010)
	PixelDataTag                = NewTag(0x7FE0, 0x0010)
	ItemTag                     = NewTag(0xFFFE, 0xE000)
	ItemDelimitationItemTag     = NewTag(0xFFFE, 0xE00D)
	SequenceDelimitationItemTag = NewTag(0xFFFE, 0xE0DD)
)
