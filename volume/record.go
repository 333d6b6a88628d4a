package volume

// Vec3 is a 3-component vector in patient coordinates.
type Vec3 [3]float64

// Cross returns the cross product a × b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Dot returns the dot product a · b.
func (a Vec3) Dot(b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// SliceLocation projects position onto the normal of the plane spanned by
// the row and column direction cosines in orientation. The normal is not
// normalized.
func SliceLocation(orientation [6]float64, position [3]float64) float64 {
	row := Vec3{orientation[0], orientation[1], orientation[2]}
	col := Vec3{orientation[3], orientation[4], orientation[5]}
	return Vec3(position).Dot(row.Cross(col))
}

// Frame holds the geometry and display fields shared by slices and volumes.
type Frame struct {
	Rows    int
	Columns int

	// Width and Height are the physical size in millimetres.
	Width  float64
	Height float64

	WindowWidth      float64
	WindowCenter     float64
	RescaleIntercept float64
	RescaleSlope     float64

	Orientation [6]float64
	Position    [3]float64
}

// ImageRecord is one normalized slice. Pixels holds Rows*Columns
// little-endian unsigned 16-bit samples.
type ImageRecord struct {
	Frame

	SliceLocation float64
	MinIntensity  int
	MaxIntensity  int
	Pixels        []byte

	// Source is the path the slice was decoded from, when known.
	Source string
}

// Samples returns the number of 16-bit samples in the slice.
func (r *ImageRecord) Samples() int {
	return r.Rows * r.Columns
}

// Record describes an assembled volume. Frame fields come from the first
// kept slice.
type Record struct {
	Frame

	Slices             int
	Depth              float64
	FirstSliceLocation float64
	LastSliceLocation  float64
	MinIntensity       int
	MaxIntensity       int
}

// VoxelBytes returns the size of the volume buffer in bytes.
func (r *Record) VoxelBytes() int64 {
	return int64(r.Rows) * int64(r.Columns) * int64(r.Slices) * 2
}
