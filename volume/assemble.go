package volume

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"math"

	"golang.org/x/exp/slices"
)

// Sort orders records by ascending slice location. Records with equal
// locations keep their input order. records is sorted in place.
func Sort(records []*ImageRecord) {
	slices.SortStableFunc(records, func(a, b *ImageRecord) int {
		return cmp.Compare(a.SliceLocation, b.SliceLocation)
	})
}

// Decimate returns every nth record starting at index 0. Values of n below
// 1 keep every record.
func Decimate(records []*ImageRecord, n int) []*ImageRecord {
	if n < 1 {
		n = 1
	}
	kept := make([]*ImageRecord, 0, (len(records)+n-1)/n)
	for i := 0; i < len(records); i += n {
		kept = append(kept, records[i])
	}
	return kept
}

// Assemble sorts records, keeps every skipEveryN-th one and concatenates the
// kept pixel buffers. The input slice is reordered.
func Assemble(records []*ImageRecord, skipEveryN int) (*Record, []byte, error) {
	Sort(records)
	kept := Decimate(records, skipEveryN)

	var buf bytes.Buffer
	if len(kept) > 0 {
		buf.Grow(len(kept) * len(kept[0].Pixels))
	}
	a := NewAssembler(&buf)
	for _, rec := range kept {
		if err := a.Add(rec); err != nil {
			return nil, nil, err
		}
	}
	vol, err := a.Finish()
	if err != nil {
		return nil, nil, err
	}
	return vol, buf.Bytes(), nil
}

// Assembler concatenates already sorted slices into w and folds their
// metadata into a Record.
type Assembler struct {
	w   io.Writer
	vol Record
	n   int
}

// NewAssembler creates an assembler that writes voxels to w.
func NewAssembler(w io.Writer) *Assembler {
	return &Assembler{
		w: w,
		vol: Record{
			MinIntensity: math.MaxInt,
			MaxIntensity: math.MinInt,
		},
	}
}

// Add appends one slice. The first slice becomes the reference frame; later
// slices must have the same dimensions.
func (a *Assembler) Add(rec *ImageRecord) error {
	if a.n == 0 {
		a.vol.Frame = rec.Frame
		a.vol.FirstSliceLocation = rec.SliceLocation
	} else if rec.Rows != a.vol.Rows || rec.Columns != a.vol.Columns {
		return fmt.Errorf("%w: %dx%d, reference is %dx%d", ErrInconsistentGeometry,
			rec.Rows, rec.Columns, a.vol.Rows, a.vol.Columns)
	}

	if _, err := a.w.Write(rec.Pixels); err != nil {
		return fmt.Errorf("writing slice %d: %w", a.n, err)
	}

	a.vol.MinIntensity = min(a.vol.MinIntensity, rec.MinIntensity)
	a.vol.MaxIntensity = max(a.vol.MaxIntensity, rec.MaxIntensity)
	a.vol.LastSliceLocation = rec.SliceLocation
	a.n++
	return nil
}

// Slices returns the number of slices added so far.
func (a *Assembler) Slices() int {
	return a.n
}

// Finish returns the volume record. It fails with ErrNoValidSlices when no
// slice was added.
func (a *Assembler) Finish() (*Record, error) {
	if a.n == 0 {
		return nil, ErrNoValidSlices
	}
	vol := a.vol
	vol.Slices = a.n
	vol.Depth = math.Abs(vol.LastSliceLocation - vol.FirstSliceLocation)
	return &vol, nil
}
