package volume

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/robert-malhotra/go-dcm2vol/dicom"
)

const (
	monochrome2 = "MONOCHROME2"

	// signedShift maps int16 samples onto uint16: v - math.MinInt16.
	signedShift = -math.MinInt16
)

// Normalize validates ds and converts it into an ImageRecord.
//
// Only single-sample MONOCHROME2 images with 16 bits allocated are accepted.
// Signed samples are shifted by 32768 into the unsigned range and the
// rescale intercept is adjusted so that value*slope+intercept is unchanged.
// Samples equal to the pixel padding value become 0. The pixel data of ds is
// copied, never modified.
func Normalize(ds *dicom.Dataset) (*ImageRecord, error) {
	f := fields{ds: ds}

	photometric, ok := f.textOf("PhotometricInterpretation")
	if !ok {
		return nil, fmt.Errorf("%w: PhotometricInterpretation not present", ErrUnsupportedPhotometry)
	}
	if p := strings.TrimSpace(photometric); p != monochrome2 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPhotometry, p)
	}

	if bits, ok := f.intOf("BitsAllocated"); ok && bits != 16 {
		return nil, fmt.Errorf("%w: %d bits allocated", ErrUnsupportedEncoding, bits)
	}
	if spp, ok := f.intOf("SamplesPerPixel"); ok && spp != 1 {
		return nil, fmt.Errorf("%w: %d samples per pixel", ErrUnsupportedEncoding, spp)
	}

	rec := &ImageRecord{}
	rec.Rows = f.requireInt("Rows")
	rec.Columns = f.requireInt("Columns")
	orientation := f.requireFloats("ImageOrientationPatient", 6)
	position := f.requireFloats("ImagePositionPatient", 3)
	spacing := f.requireFloats("PixelSpacing", 1)
	representation := f.requireInt("PixelRepresentation")
	pixels := f.requireBytes("PixelData")
	if f.err != nil {
		return nil, f.err
	}

	copy(rec.Orientation[:], orientation)
	copy(rec.Position[:], position)
	rec.WindowCenter = f.floatOr("WindowCenter", 0)
	rec.WindowWidth = f.floatOr("WindowWidth", 0)
	rec.RescaleIntercept = f.floatOr("RescaleIntercept", 0)
	rec.RescaleSlope = f.floatOr("RescaleSlope", 1)

	want := rec.Samples() * 2
	if len(pixels) != want {
		return nil, fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrPixelData, rec.Rows, rec.Columns, want, len(pixels))
	}
	rec.Pixels = make([]byte, want)
	copy(rec.Pixels, pixels)

	signed := representation == 1
	if signed {
		ShiftSigned(rec.Pixels)
		rec.RescaleIntercept -= signedShift * rec.RescaleSlope
	}

	padding, hasPadding := f.intOf("PixelPaddingValue")
	pad := uint16(padding)
	if hasPadding && signed {
		pad = shiftSample(pad)
	}
	rec.MinIntensity, rec.MaxIntensity = substitutePadding(rec.Pixels, pad, hasPadding)

	rec.SliceLocation = SliceLocation(rec.Orientation, rec.Position)
	rec.Width = float64(rec.Columns) * spacing[0]
	rec.Height = float64(rec.Rows) * spacing[0]
	return rec, nil
}

// shiftSample reinterprets v as int16 and shifts it into the uint16 range.
func shiftSample(v uint16) uint16 {
	return uint16(int32(int16(v)) + signedShift)
}

// ShiftSigned rewrites buf, a sequence of little-endian int16 samples, as
// unsigned samples shifted by 32768. A trailing odd byte is left alone.
func ShiftSigned(buf []byte) {
	for i := 0; i+1 < len(buf); i += 2 {
		v := binary.LittleEndian.Uint16(buf[i:])
		binary.LittleEndian.PutUint16(buf[i:], shiftSample(v))
	}
}

// substitutePadding zeroes samples equal to pad (when enabled) and returns
// the intensity bounds of the result.
func substitutePadding(buf []byte, pad uint16, enabled bool) (lo, hi int) {
	lo, hi = math.MaxInt, math.MinInt
	for i := 0; i+1 < len(buf); i += 2 {
		v := binary.LittleEndian.Uint16(buf[i:])
		if enabled && v == pad {
			v = 0
			binary.LittleEndian.PutUint16(buf[i:], 0)
		}
		lo = min(lo, int(v))
		hi = max(hi, int(v))
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// fields reads named elements and remembers the first missing one.
type fields struct {
	ds  *dicom.Dataset
	err error
}

func (f *fields) missing(name string) {
	if f.err == nil {
		f.err = fmt.Errorf("%w: %s", ErrMissingField, name)
	}
}

func (f *fields) textOf(name string) (string, bool) {
	e, ok := f.ds.Lookup(name)
	if !ok {
		return "", false
	}
	return e.Text(0)
}

func (f *fields) intOf(name string) (int64, bool) {
	e, ok := f.ds.Lookup(name)
	if !ok {
		return 0, false
	}
	return e.Int(0)
}

func (f *fields) floatOr(name string, def float64) float64 {
	e, ok := f.ds.Lookup(name)
	if !ok {
		return def
	}
	if v, ok := e.Float(0); ok {
		return v
	}
	return def
}

func (f *fields) requireInt(name string) int {
	v, ok := f.intOf(name)
	if !ok {
		f.missing(name)
	}
	return int(v)
}

func (f *fields) requireFloats(name string, n int) []float64 {
	e, ok := f.ds.Lookup(name)
	if !ok {
		f.missing(name)
		return nil
	}
	vals := e.Floats()
	if len(vals) < n {
		if f.err == nil {
			f.err = fmt.Errorf("%w: %s has %d values, need %d", ErrMissingField, name, len(vals), n)
		}
		return nil
	}
	return vals
}

func (f *fields) requireBytes(name string) []byte {
	e, ok := f.ds.Lookup(name)
	if !ok || e.Bytes() == nil {
		f.missing(name)
		return nil
	}
	return e.Bytes()
}
