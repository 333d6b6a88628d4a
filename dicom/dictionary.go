package dicom

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Names the decoder and the slice normalizer resolve through the dictionary.
const (
	TransferSyntaxUIDName         = "TransferSyntaxUID"
	ItemDelimitationItemName      = "ItemDelimitationItem"
	SequenceDelimitationItemName  = "SequenceDelimitationItem"
	ImplicitVRLittleEndianUID     = "1.2.840.10008.1.2"
	ExplicitVRLittleEndianUID     = "1.2.840.10008.1.2.1"
	defaultMaxNestingDepth        = 32
	preambleSize                  = 128
	magicMarker                   = "DICM"
	undefinedLength        uint32 = 0xFFFFFFFF
)

// ErrDuplicateName is returned when two dictionary entries share a name,
// which would make the reverse index ambiguous.
var ErrDuplicateName = errors.New("duplicate dictionary name")

// Entry is the dictionary record for one tag.
type Entry struct {
	Name string
	Kind Kind
}

// Dictionary maps tags to entries and names back to tags.
// A Dictionary is immutable once built and safe for concurrent readers.
type Dictionary struct {
	entries map[Tag]Entry
	tags    map[string]Tag
}

// NewDictionary builds a dictionary and its reverse name index.
func NewDictionary(entries map[Tag]Entry) (*Dictionary, error) {
	d := &Dictionary{
		entries: make(map[Tag]Entry, len(entries)),
		tags:    make(map[string]Tag, len(entries)),
	}
	for tag, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("dictionary entry %s has no name", tag)
		}
		if other, ok := d.tags[e.Name]; ok {
			return nil, fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateName, e.Name, other, tag)
		}
		d.entries[tag] = e
		d.tags[e.Name] = tag
	}
	return d, nil
}

// With returns a new dictionary with overrides applied on top of d.
func (d *Dictionary) With(overrides map[Tag]Entry) (*Dictionary, error) {
	merged := maps.Clone(d.entries)
	for tag, e := range overrides {
		merged[tag] = e
	}
	return NewDictionary(merged)
}

// Lookup returns the entry for a tag.
func (d *Dictionary) Lookup(tag Tag) (Entry, bool) {
	e, ok := d.entries[tag]
	return e, ok
}

// TagOf returns the tag registered under name.
func (d *Dictionary) TagOf(name string) (Tag, bool) {
	t, ok := d.tags[name]
	return t, ok
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Tags returns all tags in ascending order.
func (d *Dictionary) Tags() []Tag {
	tags := maps.Keys(d.entries)
	slices.Sort(tags)
	return tags
}

// standardEntries is the built-in tag table. Configuration may extend or
// override it through Dictionary.With.
var standardEntries = map[Tag]Entry{
	TransferSyntaxUIDTag:        {TransferSyntaxUIDName, KindText},
	NewTag(0x0008, 0x0060):      {"Modality", KindText},
	NewTag(0x0018, 0x0050):      {"SliceThickness", KindNumericText},
	NewTag(0x0020, 0x0013):      {"InstanceNumber", KindNumericText},
	NewTag(0x0020, 0x0032):      {"ImagePositionPatient", KindNumericText},
	NewTag(0x0020, 0x0037):      {"ImageOrientationPatient", KindNumericText},
	NewTag(0x0020, 0x1041):      {"SliceLocation", KindNumericText},
	NewTag(0x0028, 0x0002):      {"SamplesPerPixel", KindShort},
	NewTag(0x0028, 0x0004):      {"PhotometricInterpretation", KindText},
	NewTag(0x0028, 0x0010):      {"Rows", KindShort},
	NewTag(0x0028, 0x0011):      {"Columns", KindShort},
	NewTag(0x0028, 0x0030):      {"PixelSpacing", KindNumericText},
	NewTag(0x0028, 0x0100):      {"BitsAllocated", KindShort},
	NewTag(0x0028, 0x0101):      {"BitsStored", KindShort},
	NewTag(0x0028, 0x0103):      {"PixelRepresentation", KindShort},
	NewTag(0x0028, 0x0120):      {"PixelPaddingValue", KindShort},
	NewTag(0x0028, 0x1050):      {"WindowCenter", KindNumericText},
	NewTag(0x0028, 0x1051):      {"WindowWidth", KindNumericText},
	NewTag(0x0028, 0x1052):      {"RescaleIntercept", KindNumericText},
	NewTag(0x0028, 0x1053):      {"RescaleSlope", KindNumericText},
	PixelDataTag:                {"PixelData", KindBytes},
	ItemTag:                     {"Item", KindItem},
	ItemDelimitationItemTag:     {ItemDelimitationItemName, KindSeparator},
	SequenceDelimitationItemTag: {SequenceDelimitationItemName, KindSeparator},
}

var defaultDictionary = mustDictionary(standardEntries)

func mustDictionary(entries map[Tag]Entry) *Dictionary {
	d, err := NewDictionary(entries)
	if err != nil {
		panic(err)
	}
	return d
}

// DefaultDictionary returns the built-in dictionary.
func DefaultDictionary() *Dictionary {
	return defaultDictionary
}
