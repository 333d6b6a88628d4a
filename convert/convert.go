package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/robert-malhotra/go-dcm2vol/dds"
	"github.com/robert-malhotra/go-dcm2vol/dicom"
	"github.com/robert-malhotra/go-dcm2vol/internal/config"
	"github.com/robert-malhotra/go-dcm2vol/internal/filter"
	"github.com/robert-malhotra/go-dcm2vol/internal/metadata"
	"github.com/robert-malhotra/go-dcm2vol/ustar"
	"github.com/robert-malhotra/go-dcm2vol/volume"
)

// Stage directories below the output directory.
const (
	ConvertedDir = "converted"
	ImagesDir    = "images"
	SortedDir    = "sorted"
	VolumeDir    = "volume"
)

// Options control a run. The zero value uses the default configuration,
// a no-op logger and writes below the directory of the first input.
type Options struct {
	Config *config.Config

	// OutputRoot is the directory RelativeOutputPath is resolved against.
	OutputRoot string

	// Converter overrides the external converter built from Config.
	Converter Runner

	Logger zerolog.Logger

	// RunID tags log lines. A random id is generated when empty.
	RunID string
}

// Report summarizes a successful run.
type Report struct {
	RunID     string
	OutputDir string
	Volume    *volume.Record

	// Decoded counts the slices that passed normalization, before decimation.
	Decoded int

	// Outputs lists the files left on disk, sorted.
	Outputs []string

	Skipped []*FileError
}

type run struct {
	cfg    *config.Config
	dict   *dicom.Dictionary
	conv   Runner
	log    zerolog.Logger
	out    string
	report *Report

	// remove holds the intermediate files deleted at the end.
	remove []string
}

// Run converts the given series files into a volume.
func Run(ctx context.Context, inputs []string, opts Options) (*Report, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no input files")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dict, err := cfg.BuildDictionary()
	if err != nil {
		return nil, err
	}

	root := opts.OutputRoot
	if root == "" {
		root = filepath.Dir(inputs[0])
	}
	id := opts.RunID
	if id == "" {
		id = uuid.NewString()
	}

	r := &run{
		cfg:    cfg,
		dict:   dict,
		conv:   opts.Converter,
		log:    opts.Logger.With().Str("run", id).Logger(),
		out:    filepath.Join(root, cfg.RelativeOutputPath),
		report: &Report{RunID: id},
	}
	if r.conv == nil && cfg.DicomConverter != "" {
		r.conv = NewExecConverter(cfg.DicomConverter, cfg.DicomConverterArguments)
	}
	r.report.OutputDir = r.out

	if err := r.prepare(inputs); err != nil {
		return nil, err
	}
	err = r.convert(ctx, inputs)
	r.cleanup()
	if err != nil {
		return nil, err
	}
	if err := r.collectOutputs(); err != nil {
		return nil, err
	}
	return r.report, nil
}

func (r *run) keep(f config.Keep) bool {
	return r.cfg.KeepFiles.Has(f)
}

func (r *run) prepare(inputs []string) error {
	if !r.keep(config.KeepOutputPath) {
		if err := checkWipe(r.out, inputs); err != nil {
			return err
		}
		if err := os.RemoveAll(r.out); err != nil {
			return fmt.Errorf("clearing output directory: %w", err)
		}
	}
	dirs := []string{ImagesDir, SortedDir, VolumeDir}
	if r.conv != nil {
		dirs = append(dirs, ConvertedDir)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(r.out, d), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	r.log.Debug().Str("dir", r.out).Msg("Output directory ready")
	return nil
}

// checkWipe fails when removing dir would remove one of the inputs.
func checkWipe(dir string, inputs []string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		p, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		if rel, err := filepath.Rel(abs, p); err == nil && filepath.IsLocal(rel) {
			return fmt.Errorf("%w: %s holds input %s", ErrOutputHoldsInputs, dir, in)
		}
	}
	return nil
}

func (r *run) convert(ctx context.Context, inputs []string) error {
	records, err := r.decodeAll(ctx, inputs)
	if err != nil {
		return err
	}
	r.report.Decoded = len(records)
	if len(records) == 0 {
		return volume.ErrNoValidSlices
	}

	r.log.Info().Int("slices", len(records)).Msg("Sorting slices")
	volume.Sort(records)
	if r.keep(config.KeepXMLImagesSorted) {
		for i, rec := range records {
			path := filepath.Join(r.out, SortedDir, fmt.Sprintf("%05d-%s.xml", i, stem(rec.Source)))
			if err := metadata.WriteFile(path, metadata.FromImage(rec)); err != nil {
				return fmt.Errorf("writing sorted slice: %w", err)
			}
		}
	}
	kept := volume.Decimate(records, r.cfg.SkipEveryNSlices)

	base := filepath.Join(r.out, VolumeDir, r.cfg.VolumeOutputName)
	rawPath, xmlPath := base+".raw", base+".xml"
	r.log.Info().Int("slices", len(kept)).Str("file", rawPath).Msg("Assembling volume")
	vol, err := writeRaw(rawPath, kept)
	if err != nil {
		return err
	}
	r.report.Volume = vol
	if err := metadata.WriteFile(xmlPath, metadata.FromVolume(vol)); err != nil {
		return fmt.Errorf("writing volume description: %w", err)
	}
	r.drop(config.KeepRawVolume, rawPath)
	r.drop(config.KeepXMLVolume, xmlPath)

	if err := r.archive(base+"_raw", config.KeepTarRawVolume, config.KeepTgzRawVolume, xmlPath, rawPath); err != nil {
		return err
	}

	if !r.cfg.KeepFiles.Any(config.KeepDDSVolume | config.KeepTarDDSVolume | config.KeepTgzDDSVolume) {
		return nil
	}
	ddsPath := base + ".dds"
	r.log.Info().Str("file", ddsPath).Msg("Writing DDS texture")
	if err := dds.WriteFile(ddsPath, rawPath, vol.Columns, vol.Rows, vol.Slices); err != nil {
		return fmt.Errorf("writing texture: %w", err)
	}
	r.drop(config.KeepDDSVolume, ddsPath)
	return r.archive(base+"_dds", config.KeepTarDDSVolume, config.KeepTgzDDSVolume, xmlPath, ddsPath)
}

// decodeAll decodes and normalizes each input. Files that fail are recorded
// in the report and skipped.
func (r *run) decodeAll(ctx context.Context, inputs []string) ([]*volume.ImageRecord, error) {
	r.log.Info().Int("files", len(inputs)).Msg("Converting DICOM files")
	records := make([]*volume.ImageRecord, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, ferr := r.decodeOne(ctx, in)
		if ferr != nil {
			r.log.Warn().Err(ferr.Err).Str("file", in).Stringer("kind", ferr.Kind).Msg("Skipping file")
			r.report.Skipped = append(r.report.Skipped, ferr)
			continue
		}
		if r.keep(config.KeepXMLImages) {
			path := filepath.Join(r.out, ImagesDir, stem(in)+".xml")
			if err := metadata.WriteFile(path, metadata.FromImage(rec)); err != nil {
				return nil, fmt.Errorf("writing slice description: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *run) decodeOne(ctx context.Context, in string) (*volume.ImageRecord, *FileError) {
	path := in
	if r.conv != nil {
		path = filepath.Join(r.out, ConvertedDir, filepath.Base(in))
		r.drop(config.KeepConverted, path)
		if err := r.conv.Run(ctx, in, path); err != nil {
			return nil, &FileError{Path: in, Kind: KindIO, Err: err}
		}
	}

	ds, err := dicom.DecodeFile(path, dicom.WithDictionary(r.dict), dicom.WithLogger(r.log))
	if err != nil {
		return nil, newFileError(in, err)
	}
	rec, err := volume.Normalize(ds)
	if err != nil {
		return nil, newFileError(in, err)
	}
	rec.Source = in
	r.log.Debug().Str("file", in).Float64("location", rec.SliceLocation).Msg("Slice decoded")
	return rec, nil
}

func writeRaw(path string, records []*volume.ImageRecord) (vol *volume.Record, err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating volume: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	a := volume.NewAssembler(bw)
	for _, rec := range records {
		if err := a.Add(rec); err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Source, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("writing volume: %w", err)
	}
	return a.Finish()
}

// archive writes base.tar holding files and, when asked for, its compressed
// form next to it.
func (r *run) archive(base string, tarFlag, compressedFlag config.Keep, files ...string) error {
	if !r.cfg.KeepFiles.Any(tarFlag | compressedFlag) {
		return nil
	}
	tarPath := base + ".tar"
	r.log.Info().Str("file", tarPath).Msg("Writing archive")
	if err := ustar.CreateFile(tarPath, files...); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	r.drop(tarFlag, tarPath)
	if !r.keep(compressedFlag) {
		return nil
	}

	f, err := filter.New(r.cfg.ArchiveCompression)
	if err != nil {
		return err
	}
	dst := base + f.Ext()
	r.log.Info().Str("file", dst).Str("codec", f.Name()).Msg("Compressing archive")
	if err := filter.CompressFile(f, tarPath, dst); err != nil {
		return fmt.Errorf("compressing archive: %w", err)
	}
	return nil
}

// drop schedules path for removal unless f is kept.
func (r *run) drop(f config.Keep, path string) {
	if !r.keep(f) {
		r.remove = append(r.remove, path)
	}
}

// cleanup removes intermediates and empty stage directories. Failures are
// logged and do not fail the run.
func (r *run) cleanup() {
	for _, path := range r.remove {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.log.Error().Err(err).Str("file", path).Msg("Cannot remove intermediate file")
		}
	}
	r.remove = nil
	for _, d := range []string{ConvertedDir, ImagesDir, SortedDir, VolumeDir} {
		dir := filepath.Join(r.out, d)
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			r.log.Error().Err(err).Str("dir", dir).Msg("Cannot remove empty directory")
		}
	}
}

func (r *run) collectOutputs() error {
	err := filepath.WalkDir(r.out, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			r.report.Outputs = append(r.report.Outputs, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("listing outputs: %w", err)
	}
	slices.Sort(r.report.Outputs)
	return nil
}

// stem returns the base name of path without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Inputs returns the regular files directly inside dir, sorted by name.
func Inputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}
