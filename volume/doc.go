// Package volume turns decoded DICOM slices into a single 16-bit volume.
//
// [Normalize] validates one dataset and converts it into an [ImageRecord]:
// signed samples are shifted into the unsigned range, padding samples are
// zeroed, intensity bounds are collected and the slice location is derived
// from the patient orientation and position.
//
// [Assemble] sorts records by slice location, keeps every Nth one and
// concatenates their pixel buffers into one volume with aggregate metadata
// in a [Record]. [Assembler] does the same incrementally for callers that
// stream the voxels to a file.
package volume
