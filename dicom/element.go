package dicom

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Element is one decoded data element.
type Element struct {
	Tag Tag

	// Entry is the dictionary entry for Tag, or nil when the tag is unknown.
	Entry *Entry

	Values []Value
}

// Name returns the dictionary name, or the empty string for unknown tags.
func (e *Element) Name() string {
	if e.Entry == nil {
		return ""
	}
	return e.Entry.Name
}

// Kind returns the resolved value kind.
func (e *Element) Kind() Kind {
	if e.Entry == nil {
		return KindUnknown
	}
	return e.Entry.Kind
}

// Len returns the value multiplicity.
func (e *Element) Len() int {
	return len(e.Values)
}

// Text returns the i-th value as text.
func (e *Element) Text(i int) (string, bool) {
	if i < 0 || i >= len(e.Values) {
		return "", false
	}
	v, ok := e.Values[i].(Text)
	return string(v), ok
}

// Int returns the i-th value as an integer.
func (e *Element) Int(i int) (int64, bool) {
	if i < 0 || i >= len(e.Values) {
		return 0, false
	}
	v, ok := e.Values[i].(Int)
	return int64(v), ok
}

// Float returns the i-th value as a float.
func (e *Element) Float(i int) (float64, bool) {
	if i < 0 || i >= len(e.Values) {
		return 0, false
	}
	v, ok := e.Values[i].(Float)
	return float64(v), ok
}

// Floats returns all Float values in order.
func (e *Element) Floats() []float64 {
	out := make([]float64, 0, len(e.Values))
	for _, v := range e.Values {
		if f, ok := v.(Float); ok {
			out = append(out, float64(f))
		}
	}
	return out
}

// Bytes returns the first raw payload, or nil.
func (e *Element) Bytes() []byte {
	for _, v := range e.Values {
		if b, ok := v.(Bytes); ok {
			return b
		}
	}
	return nil
}

// Items returns the nested elements of a sequence item, or nil.
func (e *Element) Items() []*Element {
	for _, v := range e.Values {
		if items, ok := v.(Items); ok {
			return items
		}
	}
	return nil
}

// Dataset holds the elements decoded from one stream, keyed by tag.
type Dataset struct {
	Elements map[Tag]*Element
	dict     *Dictionary
}

func newDataset(dict *Dictionary) *Dataset {
	return &Dataset{
		Elements: make(map[Tag]*Element),
		dict:     dict,
	}
}

// Len returns the number of elements.
func (ds *Dataset) Len() int {
	return len(ds.Elements)
}

// Get returns the element with the given tag.
func (ds *Dataset) Get(tag Tag) (*Element, bool) {
	e, ok := ds.Elements[tag]
	return e, ok
}

// Lookup resolves name through the dictionary and returns the element.
func (ds *Dataset) Lookup(name string) (*Element, bool) {
	if ds.dict == nil {
		return nil, false
	}
	tag, ok := ds.dict.TagOf(name)
	if !ok {
		return nil, false
	}
	return ds.Get(tag)
}

// Dictionary returns the dictionary the dataset was decoded with.
func (ds *Dataset) Dictionary() *Dictionary {
	return ds.dict
}

// Tags returns the element tags in ascending order.
func (ds *Dataset) Tags() []Tag {
	tags := maps.Keys(ds.Elements)
	slices.Sort(tags)
	return tags
}
