package dicom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/robert-malhotra/go-dcm2vol/internal/binary"
)

// decoder holds the state of one stream walk.
type decoder struct {
	r    *binary.Reader
	opts *options
	log  zerolog.Logger

	// useImplicit is switched on by an implicit-VR transfer syntax and stays
	// on for the rest of the stream.
	useImplicit bool
	tsTag       Tag
	hasTSTag    bool
}

// element header state; vr is empty for implicit elements and delimiters.
type header struct {
	tag      Tag
	implicit bool
	vr       string
}

// DecodeFile opens and decodes the file at path. The file is closed before
// DecodeFile returns.
func DecodeFile(path string, opts ...Option) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return DecodeReaderAt(f, info.Size(), opts...)
}

// Decode reads r to the end and decodes it.
func Decode(r io.Reader, opts ...Option) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stream: %w", err)
	}
	return DecodeReaderAt(bytes.NewReader(data), int64(len(data)), opts...)
}

// DecodeReaderAt decodes the first size bytes of r.
//
// A stream whose marker is not DICM yields an empty dataset together with
// ErrNotDICOM, so callers can skip the file and keep going.
func DecodeReaderAt(r io.ReaderAt, size int64, opts ...Option) (*Dataset, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	d := &decoder{
		r:    binary.NewReader(r, size, binary.DefaultConfig()),
		opts: o,
		log:  o.log,
	}
	d.tsTag, d.hasTSTag = o.dict.TagOf(TransferSyntaxUIDName)

	ds := newDataset(o.dict)
	if size < preambleSize+int64(len(magicMarker)) {
		return ds, fmt.Errorf("%w: %d bytes is shorter than the preamble", ErrFormat, size)
	}
	if err := d.r.Skip(preambleSize); err != nil {
		return ds, d.formatErr(err)
	}
	magic, err := d.r.ReadString(len(magicMarker))
	if err != nil {
		return ds, d.formatErr(err)
	}
	if magic != magicMarker {
		return ds, ErrNotDICOM
	}

	for !d.r.EOF() {
		elem, err := d.readElement(0)
		if err != nil {
			return ds, err
		}
		if elem.Kind() == KindSeparator {
			continue
		}
		// Duplicate tags overwrite the earlier element.
		ds.Elements[elem.Tag] = elem
	}
	return ds, nil
}

// readElement decodes one element starting at the tag. Unknown elements
// come back with a nil Entry and no values.
func (d *decoder) readElement(depth int) (*Element, error) {
	start := d.r.Pos()
	group, err := d.r.ReadUint16()
	if err != nil {
		return nil, d.formatErr(err)
	}
	elemNum, err := d.r.ReadUint16()
	if err != nil {
		return nil, d.formatErr(err)
	}

	h := header{tag: NewTag(group, elemNum)}
	h.implicit = d.useImplicit && group != metaGroup
	if !h.implicit && group != itemGroup {
		vr, err := d.r.ReadString(2)
		if err != nil {
			return nil, d.formatErr(err)
		}
		h.vr = vr
	}

	elem := &Element{Tag: h.tag}
	if entry, ok := d.opts.dict.Lookup(h.tag); ok {
		elem.Entry = &entry
	}

	ev := d.log.Debug().Stringer("tag", h.tag).Int64("offset", start)
	if h.vr != "" {
		ev = ev.Str("vr", h.vr)
	}
	ev.Str("name", elem.Name()).Msg("element")

	switch elem.Kind() {
	case KindText:
		elem.Values, err = d.readText(h)
	case KindNumericText:
		elem.Values, err = d.readNumericText(h)
	case KindShort:
		elem.Values, err = d.readShorts(h)
	case KindBytes:
		elem.Values, err = d.readBytes(h)
	case KindItem:
		elem.Values, err = d.readItem(depth)
	case KindSeparator:
		elem.Values, err = d.readSeparator()
	default:
		err = d.skipUnknown(h, depth)
	}
	if err != nil {
		return nil, fmt.Errorf("element %s: %w", h.tag, err)
	}

	if d.hasTSTag && h.tag == d.tsTag {
		if uid, ok := elem.Text(0); ok && strings.TrimSpace(uid) == ImplicitVRLittleEndianUID {
			d.log.Debug().Str("uid", uid).Msg("switching to implicit VR")
			d.useImplicit = true
		}
	}
	return elem, nil
}

// readLength reads the value length that follows the tag (and VR).
func (d *decoder) readLength(h header) (uint32, error) {
	switch {
	case h.implicit || h.vr == "":
		return d.r.ReadUint32()
	case isLongForm(h.vr):
		if err := d.r.Skip(2); err != nil {
			return 0, err
		}
		return d.r.ReadUint32()
	default:
		n, err := d.r.ReadUint16()
		return uint32(n), err
	}
}

func (d *decoder) readPayload(h header) ([]byte, error) {
	n, err := d.readLength(h)
	if err != nil {
		return nil, d.formatErr(err)
	}
	if n == undefinedLength {
		return nil, fmt.Errorf("%w: undefined length on a fixed value", ErrFormat)
	}
	buf, err := d.r.ReadBytes(int(n))
	if err != nil {
		return nil, d.formatErr(err)
	}
	return buf, nil
}

func splitText(buf []byte) []string {
	parts := strings.Split(string(buf), `\`)
	for i, p := range parts {
		parts[i] = strings.TrimRight(p, "\x00")
	}
	return parts
}

func (d *decoder) readText(h header) ([]Value, error) {
	buf, err := d.readPayload(h)
	if err != nil {
		return nil, err
	}
	parts := splitText(buf)
	values := make([]Value, len(parts))
	for i, p := range parts {
		values[i] = Text(p)
	}
	return values, nil
}

func (d *decoder) readNumericText(h header) ([]Value, error) {
	buf, err := d.readPayload(h)
	if err != nil {
		return nil, err
	}
	parts := splitText(buf)
	if len(parts) == 1 && strings.TrimSpace(parts[0]) == "" {
		return nil, nil
	}
	values := make([]Value, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: numeric value %q: %v", ErrFormat, p, err)
		}
		values[i] = Float(f)
	}
	return values, nil
}

func (d *decoder) readShorts(h header) ([]Value, error) {
	buf, err := d.readPayload(h)
	if err != nil {
		return nil, err
	}
	order := d.r.ByteOrder()
	values := make([]Value, len(buf)/2)
	for i := range values {
		values[i] = Int(order.Uint16(buf[i*2:]))
	}
	return values, nil
}

func (d *decoder) readBytes(h header) ([]Value, error) {
	if !h.implicit && h.vr != "" {
		if err := d.r.Skip(2); err != nil {
			return nil, d.formatErr(err)
		}
	}
	n, err := d.r.ReadUint32()
	if err != nil {
		return nil, d.formatErr(err)
	}
	if n == undefinedLength {
		return nil, fmt.Errorf("%w: encapsulated (compressed) pixel data", ErrUnsupportedEncoding)
	}
	buf, err := d.r.ReadBytes(int(n))
	if err != nil {
		return nil, d.formatErr(err)
	}
	return []Value{Bytes(buf)}, nil
}

func (d *decoder) readItem(depth int) ([]Value, error) {
	if depth >= d.opts.maxDepth {
		return nil, ErrNestingTooDeep
	}
	n, err := d.r.ReadUint32()
	if err != nil {
		return nil, d.formatErr(err)
	}
	end := d.r.Size()
	if n != undefinedLength {
		end = d.r.Pos() + int64(n)
		if end > d.r.Size() {
			return nil, fmt.Errorf("%w: item length %d runs past end of stream", ErrFormat, n)
		}
	}

	var items Items
	for d.r.Pos() < end {
		child, err := d.readElement(depth + 1)
		if err != nil {
			return nil, err
		}
		if child.Kind() == KindSeparator {
			if child.Name() == ItemDelimitationItemName || child.Name() == SequenceDelimitationItemName {
				break
			}
			continue
		}
		items = append(items, child)
	}
	return []Value{items}, nil
}

func (d *decoder) readSeparator() ([]Value, error) {
	n, err := d.r.ReadUint32()
	if err != nil {
		return nil, d.formatErr(err)
	}
	return []Value{Separator(n)}, nil
}

// skipUnknown consumes an element the dictionary does not describe. Defined
// lengths are skipped outright. Undefined lengths (sequences of unknown
// tags) are walked element by element up to the sequence delimiter, and
// everything inside is discarded.
func (d *decoder) skipUnknown(h header, depth int) error {
	n, err := d.readLength(h)
	if err != nil {
		return d.formatErr(err)
	}
	if n != undefinedLength {
		if err := d.r.Skip(int64(n)); err != nil {
			return d.formatErr(err)
		}
		return nil
	}

	if depth >= d.opts.maxDepth {
		return ErrNestingTooDeep
	}
	for !d.r.EOF() {
		child, err := d.readElement(depth + 1)
		if err != nil {
			return err
		}
		if child.Name() == SequenceDelimitationItemName {
			return nil
		}
	}
	return nil
}

func (d *decoder) formatErr(err error) error {
	if errors.Is(err, binary.ErrShortRead) {
		return fmt.Errorf("%w: truncated at offset %d", ErrFormat, d.r.Pos())
	}
	return fmt.Errorf("%w: %v", ErrFormat, err)
}
