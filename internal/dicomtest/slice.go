package dicomtest

import (
	"github.com/robert-malhotra/go-dcm2vol/dicom"
)

// Tags used by Slice.
var (
	ModalityTag                  = dicom.NewTag(0x0008, 0x0060)
	ImagePositionPatientTag      = dicom.NewTag(0x0020, 0x0032)
	ImageOrientationPatientTag   = dicom.NewTag(0x0020, 0x0037)
	PhotometricInterpretationTag = dicom.NewTag(0x0028, 0x0004)
	RowsTag                      = dicom.NewTag(0x0028, 0x0010)
	ColumnsTag                   = dicom.NewTag(0x0028, 0x0011)
	PixelSpacingTag              = dicom.NewTag(0x0028, 0x0030)
	BitsAllocatedTag             = dicom.NewTag(0x0028, 0x0100)
	PixelRepresentationTag       = dicom.NewTag(0x0028, 0x0103)
	PixelPaddingValueTag         = dicom.NewTag(0x0028, 0x0120)
	WindowCenterTag              = dicom.NewTag(0x0028, 0x1050)
	WindowWidthTag               = dicom.NewTag(0x0028, 0x1051)
	RescaleInterceptTag          = dicom.NewTag(0x0028, 0x1052)
	RescaleSlopeTag              = dicom.NewTag(0x0028, 0x1053)
)

// Slice describes a single-frame 16-bit image. The zero value of optional
// fields leaves the element out of the stream.
type Slice struct {
	Rows, Columns int
	Photometric   string
	Orientation   []float64
	Position      []float64
	Spacing       []float64
	Signed        bool
	BitsAllocated int // 0 means 16
	Padding       *uint16
	Window        []float64 // center, width
	Rescale       []float64 // intercept, slope
	Pixels        []uint16

	// Implicit encodes the body with implicit VR after an implicit transfer
	// syntax in the meta group.
	Implicit bool
}

// AxialSlice returns a 2x2 MONOCHROME2 slice lying in the z plane at z.
func AxialSlice(z float64, pixels ...uint16) Slice {
	if len(pixels) == 0 {
		pixels = []uint16{1, 2, 3, 4}
	}
	return Slice{
		Rows:        2,
		Columns:     2,
		Photometric: "MONOCHROME2",
		Orientation: []float64{1, 0, 0, 0, 1, 0},
		Position:    []float64{0, 0, z},
		Spacing:     []float64{0.5, 0.5},
		Pixels:      pixels,
	}
}

// Encode renders the slice as a Part 10 stream.
func (s Slice) Encode() []byte {
	b := NewBuilder()
	ts := "1.2.840.10008.1.2.1"
	if s.Implicit {
		ts = "1.2.840.10008.1.2"
	}
	b.Text(dicom.TransferSyntaxUIDTag, "UI", ts)
	b.Implicit(s.Implicit)

	b.Text(ModalityTag, "CS", "CT")
	if len(s.Position) > 0 {
		b.Decimal(ImagePositionPatientTag, s.Position...)
	}
	if len(s.Orientation) > 0 {
		b.Decimal(ImageOrientationPatientTag, s.Orientation...)
	}
	if s.Photometric != "" {
		b.Text(PhotometricInterpretationTag, "CS", s.Photometric)
	}
	if s.Rows > 0 {
		b.Shorts(RowsTag, uint16(s.Rows))
	}
	if s.Columns > 0 {
		b.Shorts(ColumnsTag, uint16(s.Columns))
	}
	if len(s.Spacing) > 0 {
		b.Decimal(PixelSpacingTag, s.Spacing...)
	}
	bits := uint16(16)
	if s.BitsAllocated > 0 {
		bits = uint16(s.BitsAllocated)
	}
	b.Shorts(BitsAllocatedTag, bits)
	rep := uint16(0)
	if s.Signed {
		rep = 1
	}
	b.Shorts(PixelRepresentationTag, rep)
	if s.Padding != nil {
		b.Shorts(PixelPaddingValueTag, *s.Padding)
	}
	if len(s.Window) == 2 {
		b.Decimal(WindowCenterTag, s.Window[0])
		b.Decimal(WindowWidthTag, s.Window[1])
	}
	if len(s.Rescale) == 2 {
		b.Decimal(RescaleInterceptTag, s.Rescale[0])
		b.Decimal(RescaleSlopeTag, s.Rescale[1])
	}
	if s.Pixels != nil {
		b.Pixels(s.Pixels)
	}
	return b.Build()
}

// Dataset encodes and decodes the slice, panicking on failure.
func (s Slice) Dataset() *dicom.Dataset {
	ds, err := dicom.Decode(bytesReader(s.Encode()))
	if err != nil {
		panic(err)
	}
	return ds
}
