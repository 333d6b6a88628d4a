// Diagnostic tool for inspecting DICOM slices, DDS textures and archives
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robert-malhotra/go-dcm2vol/dds"
	"github.com/robert-malhotra/go-dcm2vol/dicom"
	"github.com/robert-malhotra/go-dcm2vol/internal/config"
	"github.com/robert-malhotra/go-dcm2vol/internal/filter"
	"github.com/robert-malhotra/go-dcm2vol/internal/metadata"
	"github.com/robert-malhotra/go-dcm2vol/ustar"
	"github.com/robert-malhotra/go-dcm2vol/volume"
)

const maxValues = 8

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/diagnose/main.go [-config settings.yaml] <file.dcm|file.dds|file.xml|file.tar|file.tgz|file.tar.zst>")
		os.Exit(1)
	}

	args := os.Args[1:]
	cfgPath := ""
	if len(args) >= 3 && args[0] == "-config" {
		cfgPath, args = args[1], args[2:]
	}
	filename := args[0]
	fmt.Printf("=== Analyzing %s ===\n\n", filename)

	head, err := readHead(filename, 132)
	if err != nil {
		fmt.Printf("ERROR: Failed to read file: %v\n", err)
		os.Exit(1)
	}

	switch {
	case bytes.HasPrefix(head, []byte(dds.Magic)):
		err = dumpDDS(filename)
	case len(head) == 132 && string(head[128:]) == "DICM":
		err = dumpDICOM(filename, cfgPath)
	case bytes.HasPrefix(bytes.TrimSpace(head), []byte("<")):
		err = dumpMetadata(filename)
	default:
		err = dumpArchive(filename)
	}
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	got, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:got], nil
}

func dumpDICOM(path, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	dict, err := cfg.BuildDictionary()
	if err != nil {
		return err
	}
	ds, err := dicom.DecodeFile(path, dicom.WithDictionary(dict))
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}

	fmt.Printf("Elements: %d\n\n", ds.Len())
	return dicom.Walk(ds, func(depth int, e *dicom.Element) error {
		indent := strings.Repeat("  ", depth)
		name := e.Name()
		if name == "" {
			fmt.Printf("%s%s [unknown]\n", indent, e.Tag)
			return nil
		}
		fmt.Printf("%s%s %s (%s): %s\n", indent, e.Tag, name, e.Kind(), formatValues(e.Values))
		return nil
	})
}

func formatValues(values []dicom.Value) string {
	parts := make([]string, 0, min(len(values), maxValues)+1)
	for i, v := range values {
		if i == maxValues {
			parts = append(parts, fmt.Sprintf("... %d more", len(values)-maxValues))
			break
		}
		parts = append(parts, v.String())
	}
	return strings.Join(parts, `\`)
}

func dumpMetadata(path string) error {
	doc, err := metadata.ReadFile(path)
	if err != nil {
		return err
	}

	switch d := doc.(type) {
	case *metadata.ImageData:
		rec, err := d.Record()
		if err != nil {
			return err
		}
		fmt.Println("Slice document")
		printFrame(rec.Frame)
		fmt.Printf("Slice location: %g\n", rec.SliceLocation)
		fmt.Printf("Intensity: %d..%d\n", rec.MinIntensity, rec.MaxIntensity)
		fmt.Printf("Pixel data: %d bytes\n", len(rec.Pixels))
	case *metadata.VolumeData:
		rec, err := d.Record()
		if err != nil {
			return err
		}
		fmt.Println("Volume document")
		printFrame(rec.Frame)
		fmt.Printf("Slices: %d, depth %g (%g..%g)\n", rec.Slices, rec.Depth, rec.FirstSliceLocation, rec.LastSliceLocation)
		fmt.Printf("Intensity: %d..%d\n", rec.MinIntensity, rec.MaxIntensity)
		fmt.Printf("Voxel data: %d bytes\n", rec.VoxelBytes())
	}
	return nil
}

func printFrame(f volume.Frame) {
	fmt.Printf("Size: %dx%d (%g x %g mm)\n", f.Columns, f.Rows, f.Width, f.Height)
	fmt.Printf("Window: center %g, width %g\n", f.WindowCenter, f.WindowWidth)
	fmt.Printf("Rescale: intercept %g, slope %g\n", f.RescaleIntercept, f.RescaleSlope)
	fmt.Printf("Orientation: %v\n", f.Orientation)
	fmt.Printf("Position: %v\n", f.Position)
}

func dumpDDS(path string) error {
	f, err := dds.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := f.Header
	fmt.Printf("Size: %dx%dx%d\n", h.Width, h.Height, h.Depth)
	fmt.Printf("Flags: 0x%08x\n", h.Flags)
	fmt.Printf("Volume: %v\n", h.IsVolume())
	fmt.Printf("Pixel format: flags 0x%x, %d bits, mask 0x%x\n",
		h.PixelFormat.Flags, h.PixelFormat.RGBBitCount, h.PixelFormat.RBitMask)
	fmt.Printf("Caps: 0x%x 0x%x\n", h.Caps, h.Caps2)

	n, err := io.Copy(io.Discard, f)
	if err != nil {
		return fmt.Errorf("reading texels: %w", err)
	}
	fmt.Printf("Texel data: %d of %d bytes\n", n, h.DataSize())
	return nil
}

func dumpArchive(path string) error {
	rc, err := filter.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	tr := ustar.NewReader(rc)
	count := 0
	for {
		e, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		count++
		kind := "file"
		if e.Kind == ustar.Directory {
			kind = "dir"
		}
		fmt.Printf("  %-4s %10d  %s  @%d  %s\n", kind, e.Size, e.ModTime.Format("2006-01-02 15:04:05"), e.Offset, e.Name)
	}
	fmt.Printf("\nEntries: %d\n", count)
	if err := tr.Err(); err != nil {
		fmt.Printf("Stopped early: %v\n", err)
	}
	return nil
}
