// Package dds reads and writes uncompressed DirectDraw Surface volume
// textures holding 16-bit luminance samples.
//
// A file is the magic word "DDS " followed by a 124-byte [Header] and the
// raw little-endian samples, row-major within a slice, slice after slice.
// Headers that declare a FourCC compression code (including the DX10
// extended header) are rejected.
package dds

import (
	"errors"
	"fmt"
)

// Magic is the 4-byte file signature.
const Magic = "DDS "

// Sizes of the fixed records.
const (
	HeaderSize      = 124
	PixelFormatSize = 32
)

// Header flags.
const (
	FlagCaps        uint32 = 0x1
	FlagHeight      uint32 = 0x2
	FlagWidth       uint32 = 0x4
	FlagPixelFormat uint32 = 0x1000
	FlagDepth       uint32 = 0x800000
)

// Pixel format, capability and cubemap flags.
const (
	PixelFlagLuminance uint32 = 0x20000
	CapsTexture        uint32 = 0x1000
	Caps2Volume        uint32 = 0x200000
)

// Errors
var (
	ErrBadMagic            = errors.New("not a DDS file")
	ErrUnsupportedEncoding = errors.New("unsupported DDS encoding")
	ErrShortData           = errors.New("voxel data shorter than declared size")
)

// PixelFormat is the DDS_PIXELFORMAT record.
type PixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

// Header is the DDS_HEADER record that follows the magic word.
type Header struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       PixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

// NewHeader returns the header of a 16-bit luminance volume texture.
func NewHeader(width, height, depth int) Header {
	return Header{
		Size:   HeaderSize,
		Flags:  FlagCaps | FlagHeight | FlagWidth | FlagDepth | FlagPixelFormat,
		Height: uint32(height),
		Width:  uint32(width),
		Depth:  uint32(depth),
		PixelFormat: PixelFormat{
			Size:        PixelFormatSize,
			Flags:       PixelFlagLuminance,
			RGBBitCount: 16,
			RBitMask:    0xFFFF,
		},
		Caps:  CapsTexture,
		Caps2: Caps2Volume,
	}
}

// DataSize returns the number of voxel bytes the header declares.
func (h *Header) DataSize() int64 {
	depth := int64(h.Depth)
	if depth == 0 {
		depth = 1
	}
	bytesPerSample := int64(h.PixelFormat.RGBBitCount) / 8
	return int64(h.Width) * int64(h.Height) * depth * bytesPerSample
}

// IsVolume reports whether the header describes a volume texture.
func (h *Header) IsVolume() bool {
	return h.Caps2&Caps2Volume != 0 && h.Flags&FlagDepth != 0
}

// validate checks the fields this package depends on.
func (h *Header) validate() error {
	if h.Size != HeaderSize {
		return fmt.Errorf("%w: header size %d", ErrBadMagic, h.Size)
	}
	if h.PixelFormat.FourCC != 0 {
		return fmt.Errorf("%w: FourCC %q", ErrUnsupportedEncoding, fourCC(h.PixelFormat.FourCC))
	}
	return nil
}

func fourCC(v uint32) string {
	b := []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	return string(b)
}
