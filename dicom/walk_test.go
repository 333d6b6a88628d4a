package dicom_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-malhotra/go-dcm2vol/dicom"
	"github.com/robert-malhotra/go-dcm2vol/internal/dicomtest"
)

func walkFixture(t *testing.T) *dicom.Dataset {
	t.Helper()
	body := dicomtest.NewFragment(false).Shorts(rowsTag, 3).Build()
	data := dicomtest.NewBuilder().
		Shorts(columnsTag, 4).
		Item(body).
		Text(modalityTag, "CS", "CT").
		Build()
	ds, err := dicom.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return ds
}

func TestWalk(t *testing.T) {
	ds := walkFixture(t)

	type visit struct {
		Depth int
		Tag   dicom.Tag
	}
	var got []visit
	err := dicom.Walk(ds, func(depth int, e *dicom.Element) error {
		got = append(got, visit{depth, e.Tag})
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []visit{
		{0, modalityTag},
		{0, columnsTag},
		{0, dicom.ItemTag},
		{1, rowsTag},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkSkipItems(t *testing.T) {
	ds := walkFixture(t)

	count := 0
	err := dicom.Walk(ds, func(depth int, e *dicom.Element) error {
		count++
		if e.Tag == dicom.ItemTag {
			return dicom.SkipItems
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 visits, got %d", count)
	}
}

func TestWalkStop(t *testing.T) {
	ds := walkFixture(t)
	stop := errors.New("stop")

	count := 0
	err := dicom.Walk(ds, func(depth int, e *dicom.Element) error {
		count++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("expected stop error, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 visit, got %d", count)
	}
}
