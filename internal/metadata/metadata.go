// Package metadata persists slice and volume records as XML documents
// between pipeline stages and next to the volume outputs.
//
// Element names follow the layout consumers of the volume files already
// read: one element per field, vectors as repeated <double> children and
// pixel data as base64 text.
package metadata

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/robert-malhotra/go-dcm2vol/volume"
)

// ErrInvalid is returned when a document does not describe a usable record.
var ErrInvalid = errors.New("invalid metadata document")

// Base64 is a byte slice serialized as base64 text.
type Base64 []byte

func (b Base64) MarshalText() ([]byte, error) {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(b)))
	base64.StdEncoding.Encode(out, b)
	return out, nil
}

func (b *Base64) UnmarshalText(text []byte) error {
	buf := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(buf, text)
	if err != nil {
		return fmt.Errorf("pixel data: %w", err)
	}
	*b = buf[:n]
	return nil
}

// ImageData is the per-slice document.
type ImageData struct {
	XMLName                 xml.Name  `xml:"ImageData"`
	Rows                    int       `xml:"Rows"`
	Columns                 int       `xml:"Columns"`
	Width                   float64   `xml:"Width"`
	Height                  float64   `xml:"Height"`
	WindowWidth             float64   `xml:"WindowWidth"`
	WindowCenter            float64   `xml:"WindowCenter"`
	RescaleIntercept        float64   `xml:"RescaleIntercept"`
	RescaleSlope            float64   `xml:"RescaleSlope"`
	ImageOrientationPatient []float64 `xml:"ImageOrientationPatient>double"`
	ImagePositionPatient    []float64 `xml:"ImagePositionPatient>double"`
	SliceLocation           float64   `xml:"SliceLocation"`
	MinIntensity            int       `xml:"MinIntensity"`
	MaxIntensity            int       `xml:"MaxIntensity"`
	PixelData               Base64    `xml:"PixelData"`
}

// VolumeData is the per-volume document.
type VolumeData struct {
	XMLName                 xml.Name  `xml:"VolumeData"`
	Rows                    int       `xml:"Rows"`
	Columns                 int       `xml:"Columns"`
	Slices                  int       `xml:"Slices"`
	Width                   float64   `xml:"Width"`
	Height                  float64   `xml:"Height"`
	Depth                   float64   `xml:"Depth"`
	WindowWidth             float64   `xml:"WindowWidth"`
	WindowCenter            float64   `xml:"WindowCenter"`
	RescaleIntercept        float64   `xml:"RescaleIntercept"`
	RescaleSlope            float64   `xml:"RescaleSlope"`
	ImageOrientationPatient []float64 `xml:"ImageOrientationPatient>double"`
	ImagePositionPatient    []float64 `xml:"ImagePositionPatient>double"`
	FirstSliceLocation      float64   `xml:"FirstSliceLocation"`
	LastSliceLocation       float64   `xml:"LastSliceLocation"`
	MinIntensity            int       `xml:"MinIntensity"`
	MaxIntensity            int       `xml:"MaxIntensity"`
}

// FromImage converts a slice record into its document.
func FromImage(r *volume.ImageRecord) *ImageData {
	return &ImageData{
		Rows:                    r.Rows,
		Columns:                 r.Columns,
		Width:                   r.Width,
		Height:                  r.Height,
		WindowWidth:             r.WindowWidth,
		WindowCenter:            r.WindowCenter,
		RescaleIntercept:        r.RescaleIntercept,
		RescaleSlope:            r.RescaleSlope,
		ImageOrientationPatient: r.Orientation[:],
		ImagePositionPatient:    r.Position[:],
		SliceLocation:           r.SliceLocation,
		MinIntensity:            r.MinIntensity,
		MaxIntensity:            r.MaxIntensity,
		PixelData:               r.Pixels,
	}
}

// Record converts the document back into a slice record.
func (d *ImageData) Record() (*volume.ImageRecord, error) {
	frame, err := frame(d.Rows, d.Columns, d.ImageOrientationPatient, d.ImagePositionPatient)
	if err != nil {
		return nil, err
	}
	if len(d.PixelData) != d.Rows*d.Columns*2 {
		return nil, fmt.Errorf("%w: %d pixel bytes for %dx%d", ErrInvalid, len(d.PixelData), d.Rows, d.Columns)
	}
	frame.Width, frame.Height = d.Width, d.Height
	frame.WindowWidth, frame.WindowCenter = d.WindowWidth, d.WindowCenter
	frame.RescaleIntercept, frame.RescaleSlope = d.RescaleIntercept, d.RescaleSlope
	return &volume.ImageRecord{
		Frame:         frame,
		SliceLocation: d.SliceLocation,
		MinIntensity:  d.MinIntensity,
		MaxIntensity:  d.MaxIntensity,
		Pixels:        d.PixelData,
	}, nil
}

// FromVolume converts a volume record into its document.
func FromVolume(r *volume.Record) *VolumeData {
	return &VolumeData{
		Rows:                    r.Rows,
		Columns:                 r.Columns,
		Slices:                  r.Slices,
		Width:                   r.Width,
		Height:                  r.Height,
		Depth:                   r.Depth,
		WindowWidth:             r.WindowWidth,
		WindowCenter:            r.WindowCenter,
		RescaleIntercept:        r.RescaleIntercept,
		RescaleSlope:            r.RescaleSlope,
		ImageOrientationPatient: r.Orientation[:],
		ImagePositionPatient:    r.Position[:],
		FirstSliceLocation:      r.FirstSliceLocation,
		LastSliceLocation:       r.LastSliceLocation,
		MinIntensity:            r.MinIntensity,
		MaxIntensity:            r.MaxIntensity,
	}
}

// Record converts the document back into a volume record.
func (d *VolumeData) Record() (*volume.Record, error) {
	frame, err := frame(d.Rows, d.Columns, d.ImageOrientationPatient, d.ImagePositionPatient)
	if err != nil {
		return nil, err
	}
	frame.Width, frame.Height = d.Width, d.Height
	frame.WindowWidth, frame.WindowCenter = d.WindowWidth, d.WindowCenter
	frame.RescaleIntercept, frame.RescaleSlope = d.RescaleIntercept, d.RescaleSlope
	return &volume.Record{
		Frame:              frame,
		Slices:             d.Slices,
		Depth:              d.Depth,
		FirstSliceLocation: d.FirstSliceLocation,
		LastSliceLocation:  d.LastSliceLocation,
		MinIntensity:       d.MinIntensity,
		MaxIntensity:       d.MaxIntensity,
	}, nil
}

func frame(rows, cols int, orientation, position []float64) (volume.Frame, error) {
	var f volume.Frame
	if rows <= 0 || cols <= 0 {
		return f, fmt.Errorf("%w: dimensions %dx%d", ErrInvalid, rows, cols)
	}
	if len(orientation) != 6 || len(position) != 3 {
		return f, fmt.Errorf("%w: %d orientation and %d position values", ErrInvalid, len(orientation), len(position))
	}
	f.Rows, f.Columns = rows, cols
	copy(f.Orientation[:], orientation)
	copy(f.Position[:], position)
	return f, nil
}

// Encode writes doc to w as an indented XML document.
func Encode(w io.Writer, doc any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding %T: %w", doc, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes doc to a new file at path.
func WriteFile(path string, doc any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(f, doc)
}

// ReadFile reads a document of either kind, chosen by its root element. It
// returns *ImageData or *VolumeData.
func ReadFile(path string) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		var doc any
		switch start.Name.Local {
		case "ImageData":
			doc = &ImageData{}
		case "VolumeData":
			doc = &VolumeData{}
		default:
			return nil, fmt.Errorf("%w: %s: unknown document <%s>", ErrInvalid, path, start.Name.Local)
		}
		if err := dec.DecodeElement(doc, &start); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
		}
		return doc, nil
	}
}

// ReadImage reads a per-slice document.
func ReadImage(path string) (*ImageData, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, ok := doc.(*ImageData)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a slice document", ErrInvalid, path)
	}
	return d, nil
}

// ReadVolume reads a per-volume document.
func ReadVolume(path string) (*VolumeData, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, ok := doc.(*VolumeData)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a volume document", ErrInvalid, path)
	}
	return d, nil
}
