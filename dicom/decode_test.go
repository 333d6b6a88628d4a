package dicom_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-malhotra/go-dcm2vol/dicom"
	"github.com/robert-malhotra/go-dcm2vol/internal/dicomtest"
)

var (
	rowsTag      = dicom.NewTag(0x0028, 0x0010)
	columnsTag   = dicom.NewTag(0x0028, 0x0011)
	modalityTag  = dicom.NewTag(0x0008, 0x0060)
	thicknessTag = dicom.NewTag(0x0018, 0x0050)
	patientTag   = dicom.NewTag(0x0010, 0x0010)
	refImageSeq  = dicom.NewTag(0x0008, 0x1140)
)

func decode(t *testing.T, data []byte, opts ...dicom.Option) *dicom.Dataset {
	t.Helper()
	ds, err := dicom.Decode(bytes.NewReader(data), opts...)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return ds
}

func TestDecodeExplicit(t *testing.T) {
	data := dicomtest.NewBuilder().
		Text(dicom.TransferSyntaxUIDTag, "UI", dicom.ExplicitVRLittleEndianUID).
		Text(modalityTag, "CS", "CT").
		Decimal(dicom.NewTag(0x0020, 0x0032), -125.5, 10, 42.25).
		Shorts(rowsTag, 512).
		Shorts(columnsTag, 256).
		Pixels([]uint16{1, 2, 3}).
		Build()

	ds := decode(t, data)

	if ds.Len() != 6 {
		t.Errorf("expected 6 elements, got %d", ds.Len())
	}

	modality, ok := ds.Lookup("Modality")
	if !ok {
		t.Fatal("Modality missing")
	}
	if s, _ := modality.Text(0); s != "CT" {
		t.Errorf("expected CT, got %q", s)
	}

	pos, ok := ds.Lookup("ImagePositionPatient")
	if !ok {
		t.Fatal("ImagePositionPatient missing")
	}
	if diff := cmp.Diff([]float64{-125.5, 10, 42.25}, pos.Floats()); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}

	rows, _ := ds.Get(rowsTag)
	if v, _ := rows.Int(0); v != 512 {
		t.Errorf("expected 512 rows, got %d", v)
	}

	pixels, _ := ds.Get(dicom.PixelDataTag)
	if diff := cmp.Diff([]byte{1, 0, 2, 0, 3, 0}, pixels.Bytes()); diff != "" {
		t.Errorf("pixel data mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTransferSyntaxSwitch(t *testing.T) {
	data := dicomtest.NewBuilder().
		Text(dicom.TransferSyntaxUIDTag, "UI", dicom.ImplicitVRLittleEndianUID).
		Implicit(true).
		Shorts(rowsTag, 512).
		Text(modalityTag, "", "MR").
		Build()

	ds := decode(t, data)

	rows, ok := ds.Get(rowsTag)
	if !ok {
		t.Fatal("Rows missing")
	}
	if v, _ := rows.Int(0); v != 512 || rows.Len() != 1 {
		t.Errorf("expected single value 512, got %v", rows.Values)
	}
	modality, _ := ds.Get(modalityTag)
	if s, _ := modality.Text(0); s != "MR" {
		t.Errorf("expected MR, got %q", s)
	}
}

func TestDecodeImplicitMetaStaysExplicit(t *testing.T) {
	// Meta elements after the switch are still explicit.
	data := dicomtest.NewBuilder().
		Text(dicom.TransferSyntaxUIDTag, "UI", dicom.ImplicitVRLittleEndianUID).
		Implicit(true).
		Text(dicom.NewTag(0x0002, 0x0013), "SH", "TEST").
		Shorts(rowsTag, 64).
		Build()

	ds := decode(t, data)
	rows, _ := ds.Get(rowsTag)
	if v, _ := rows.Int(0); v != 64 {
		t.Errorf("expected 64 rows, got %v", rows.Values)
	}
	if _, ok := ds.Get(dicom.NewTag(0x0002, 0x0013)); !ok {
		t.Error("expected unknown meta element to be kept")
	}
}

func TestDecodeUnknownElements(t *testing.T) {
	item := dicomtest.NewFragment(false).
		Text(dicom.NewTag(0x0008, 0x1150), "UI", "1.2.3").
		Text(modalityTag, "CS", "XX").
		Build()

	data := dicomtest.NewBuilder().
		Text(patientTag, "PN", "DOE^JOHN").
		Raw(dicom.NewTag(0x0009, 0x1001), "OB", []byte{1, 2, 3, 4}).
		Sequence(refImageSeq, item, item).
		Text(modalityTag, "CS", "CT").
		Build()

	ds := decode(t, data)

	for _, tag := range []dicom.Tag{patientTag, refImageSeq, dicom.NewTag(0x0009, 0x1001)} {
		e, ok := ds.Get(tag)
		if !ok {
			t.Errorf("expected unknown element %s to be recorded", tag)
			continue
		}
		if e.Entry != nil || e.Len() != 0 {
			t.Errorf("%s: expected no entry and no values, got %v %v", tag, e.Entry, e.Values)
		}
	}

	// Items inside an unknown sequence are discarded, so the nested Modality
	// does not overwrite the top-level one.
	modality, _ := ds.Get(modalityTag)
	if s, _ := modality.Text(0); s != "CT" {
		t.Errorf("expected CT, got %q", s)
	}
}

func TestDecodeItems(t *testing.T) {
	body := dicomtest.NewFragment(false).
		Shorts(rowsTag, 7).
		Text(modalityTag, "CS", "OT").
		Build()

	t.Run("defined length", func(t *testing.T) {
		ds := decode(t, dicomtest.NewBuilder().Item(body).Shorts(columnsTag, 9).Build())
		checkItem(t, ds)
	})

	t.Run("undefined length", func(t *testing.T) {
		ds := decode(t, dicomtest.NewBuilder().UndefinedItem(body).Shorts(columnsTag, 9).Build())
		checkItem(t, ds)
		if _, ok := ds.Get(dicom.ItemDelimitationItemTag); ok {
			t.Error("delimiters must not be stored in the dataset")
		}
	})
}

func checkItem(t *testing.T, ds *dicom.Dataset) {
	t.Helper()
	item, ok := ds.Get(dicom.ItemTag)
	if !ok {
		t.Fatal("item missing")
	}
	children := item.Items()
	if len(children) != 2 {
		t.Fatalf("expected 2 nested elements, got %d", len(children))
	}
	if children[0].Tag != rowsTag || children[1].Tag != modalityTag {
		t.Errorf("unexpected nested tags %s %s", children[0].Tag, children[1].Tag)
	}
	if _, ok := ds.Get(rowsTag); ok {
		t.Error("nested elements must not leak into the top level")
	}
	cols, _ := ds.Get(columnsTag)
	if v, _ := cols.Int(0); v != 9 {
		t.Errorf("expected element after item to decode, got %v", cols)
	}
}

func TestDecodeMaxDepth(t *testing.T) {
	inner := dicomtest.NewFragment(false).Shorts(rowsTag, 1).Build()
	level2 := dicomtest.NewFragment(false).Item(inner).Build()
	level3 := dicomtest.NewFragment(false).Item(level2).Build()

	if _, err := dicom.Decode(bytes.NewReader(dicomtest.NewBuilder().Item(level2).Build()), dicom.WithMaxDepth(2)); err != nil {
		t.Fatalf("two levels should decode: %v", err)
	}

	_, err := dicom.Decode(bytes.NewReader(dicomtest.NewBuilder().Item(level3).Build()), dicom.WithMaxDepth(2))
	if !errors.Is(err, dicom.ErrNestingTooDeep) {
		t.Errorf("expected ErrNestingTooDeep, got %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := dicomtest.NewBuilder().Shorts(rowsTag, 1).Build()

	badMagic := bytes.Clone(valid)
	copy(badMagic[128:], "DICX")

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, dicom.ErrFormat},
		{"short preamble", make([]byte, 100), dicom.ErrFormat},
		{"bad magic", badMagic, dicom.ErrNotDICOM},
		{"truncated element", valid[:len(valid)-1], dicom.ErrFormat},
		{"bad number", dicomtest.NewBuilder().Text(thicknessTag, "DS", "1.5mm").Build(), dicom.ErrFormat},
		{"compressed pixels", dicomtest.NewBuilder().EncapsulatedPixels().Build(), dicom.ErrUnsupportedEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := dicom.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if ds == nil {
				t.Fatal("expected a non-nil dataset alongside the error")
			}
		})
	}
}

func TestDecodeBadMagicIsFormatError(t *testing.T) {
	data := make([]byte, 140)
	copy(data[128:], "NOPE")
	ds, err := dicom.Decode(bytes.NewReader(data))
	if !errors.Is(err, dicom.ErrFormat) {
		t.Errorf("expected ErrNotDICOM to wrap ErrFormat, got %v", err)
	}
	if ds.Len() != 0 {
		t.Errorf("expected empty dataset, got %d elements", ds.Len())
	}
}

func TestDecodeItemLengthPastEnd(t *testing.T) {
	data := dicomtest.NewBuilder().Build()
	// Item header claiming 100 bytes with nothing behind it.
	data = append(data, 0xFE, 0xFF, 0x00, 0xE0, 100, 0, 0, 0)
	_, err := dicom.Decode(bytes.NewReader(data))
	if !errors.Is(err, dicom.ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestDecodeDuplicateTagLastWins(t *testing.T) {
	ds := decode(t, dicomtest.NewBuilder().
		Text(modalityTag, "CS", "CT").
		Text(modalityTag, "CS", "MR").
		Build())
	e, _ := ds.Get(modalityTag)
	if s, _ := e.Text(0); s != "MR" {
		t.Errorf("expected MR, got %q", s)
	}
}

func TestDecodeMultiValueText(t *testing.T) {
	ds := decode(t, dicomtest.NewBuilder().
		Text(dicom.NewTag(0x0008, 0x0060), "CS", "A", "B", "C").
		Text(thicknessTag, "DS", "").
		Build())

	e, _ := ds.Get(modalityTag)
	if e.Len() != 3 {
		t.Fatalf("expected 3 values, got %d", e.Len())
	}
	if s, _ := e.Text(2); s != "C" {
		t.Errorf("expected padding to be trimmed, got %q", s)
	}

	thickness, ok := ds.Get(thicknessTag)
	if !ok {
		t.Fatal("expected empty numeric element to be kept")
	}
	if thickness.Len() != 0 {
		t.Errorf("expected no values, got %v", thickness.Values)
	}
}

func TestDecodeWithDictionary(t *testing.T) {
	dict, err := dicom.DefaultDictionary().With(map[dicom.Tag]dicom.Entry{
		patientTag: {Name: "PatientName", Kind: dicom.KindText},
	})
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}

	ds := decode(t, dicomtest.NewBuilder().Text(patientTag, "PN", "DOE^JANE").Build(), dicom.WithDictionary(dict))
	e, ok := ds.Lookup("PatientName")
	if !ok {
		t.Fatal("PatientName missing")
	}
	if s, _ := e.Text(0); s != "DOE^JANE" {
		t.Errorf("expected DOE^JANE, got %q", s)
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slice.dcm")
	if err := os.WriteFile(path, dicomtest.AxialSlice(5).Encode(), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := dicom.DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if _, ok := ds.Lookup("PixelData"); !ok {
		t.Error("PixelData missing")
	}

	if _, err := dicom.DecodeFile(filepath.Join(t.TempDir(), "missing.dcm")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecodeImplicitSlice(t *testing.T) {
	s := dicomtest.AxialSlice(2.5)
	s.Implicit = true
	ds := decode(t, s.Encode())

	pos, ok := ds.Lookup("ImagePositionPatient")
	if !ok {
		t.Fatal("ImagePositionPatient missing")
	}
	if diff := cmp.Diff([]float64{0, 0, 2.5}, pos.Floats()); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}
	px, _ := ds.Lookup("PixelData")
	if len(px.Bytes()) != 8 {
		t.Errorf("expected 8 pixel bytes, got %d", len(px.Bytes()))
	}
}
