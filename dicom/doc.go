// Package dicom decodes DICOM Part 10 element streams into a flat Dataset.
//
// The decoder is dictionary driven: the value representation (VR) that
// governs how a payload is read comes from a read-only [Dictionary] keyed by
// the combined tag, not from the VR code carried on the wire. Elements whose
// tag is not in the dictionary are skipped without interpretation.
//
// # Stream Layout
//
// A stream starts with a 128-byte preamble followed by the ASCII marker
// "DICM". Elements follow as group, element, optional 2-character VR code,
// length and value. All multi-byte integers are little-endian.
//
// # Implicit and Explicit VR
//
// The file meta group (0002) is always explicit. When the TransferSyntaxUID
// element carries the Implicit VR Little Endian UID (1.2.840.10008.1.2), every
// following element outside group 0002 is read without a VR code. The switch is
// sticky for the rest of the stream. Item and delimiter elements (group FFFE)
// never carry a VR code.
//
// # Value Kinds
//
// Each dictionary entry resolves to one [Kind]:
//
//   - [KindText]: backslash-separated text, trailing NULs removed
//   - [KindNumericText]: text parsed as float64 values
//   - [KindShort]: repeated unsigned 16-bit integers
//   - [KindBytes]: raw payload; undefined length (encapsulated pixel data)
//     fails with [ErrUnsupportedEncoding]
//   - [KindItem]: a sequence item decoded recursively into nested elements
//   - [KindSeparator]: delimiter elements, excluded from the Dataset
//
// # Usage
//
//	ds, err := dicom.DecodeFile("slice.dcm", dicom.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	rows, _ := ds.Lookup("Rows")
package dicom
