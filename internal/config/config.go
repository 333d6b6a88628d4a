// Package config loads dcm2vol settings from YAML.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"sigs.k8s.io/yaml"

	"github.com/robert-malhotra/go-dcm2vol/dicom"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalid is returned for settings that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Keep is a set of output files that survive a run.
type Keep uint32

const (
	KeepXMLImages Keep = 1 << iota
	KeepXMLImagesSorted
	KeepXMLVolume
	KeepRawVolume
	KeepDDSVolume
	KeepTarRawVolume
	KeepTgzRawVolume
	KeepTarDDSVolume
	KeepTgzDDSVolume
	KeepOutputPath
	KeepConverted
)

var keepNames = map[string]Keep{
	"xmlImages":       KeepXMLImages,
	"xmlImagesSorted": KeepXMLImagesSorted,
	"xmlVolume":       KeepXMLVolume,
	"rawVolume":       KeepRawVolume,
	"ddsVolume":       KeepDDSVolume,
	"tarRawVolume":    KeepTarRawVolume,
	"tgzRawVolume":    KeepTgzRawVolume,
	"tarDdsVolume":    KeepTarDDSVolume,
	"tgzDdsVolume":    KeepTgzDDSVolume,
	"outputPath":      KeepOutputPath,
	"converted":       KeepConverted,
}

// Has reports whether every flag in f is set.
func (k Keep) Has(f Keep) bool {
	return k&f == f
}

// Any reports whether at least one flag in f is set.
func (k Keep) Any(f Keep) bool {
	return k&f != 0
}

// Names returns the flag names in k, sorted.
func (k Keep) Names() []string {
	var names []string
	for name, f := range keepNames {
		if k.Has(f) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// ParseKeep parses flag names. Matching is case-insensitive.
func ParseKeep(names ...string) (Keep, error) {
	var k Keep
	for _, n := range names {
		f, ok := lookupKeep(strings.TrimSpace(n))
		if !ok {
			known := maps.Keys(keepNames)
			slices.Sort(known)
			return 0, fmt.Errorf("%w: unknown keep flag %q (known: %s)", ErrInvalid, n, strings.Join(known, ", "))
		}
		k |= f
	}
	return k, nil
}

func lookupKeep(name string) (Keep, bool) {
	for n, f := range keepNames {
		if strings.EqualFold(n, name) {
			return f, true
		}
	}
	return 0, false
}

func (k Keep) MarshalJSON() ([]byte, error) {
	names := k.Names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

func (k *Keep) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("keepFiles must be a list of names: %w", err)
	}
	v, err := ParseKeep(names...)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// DictionaryEntry is one extra tag for the decoder dictionary. Group and
// Element are hexadecimal.
type DictionaryEntry struct {
	Group   string `json:"group"`
	Element string `json:"element"`
	Name    string `json:"name"`
	Type    string `json:"type"`
}

// Config holds all settings.
type Config struct {
	SkipEveryNSlices        int               `json:"skipEveryNSlices"`
	LogLevel                string            `json:"logLevel"`
	KeepFiles               Keep              `json:"keepFiles"`
	RelativeOutputPath      string            `json:"relativeOutputPath"`
	VolumeOutputName        string            `json:"volumeOutputName"`
	ArchiveCompression      string            `json:"archiveCompression"`
	DicomConverter          string            `json:"dicomConverter"`
	DicomConverterArguments string            `json:"dicomConverterArguments"`
	Dictionary              []DictionaryEntry `json:"dictionary"`
}

// Default returns the built-in settings.
func Default() *Config {
	c, err := parse(defaultYAML, &Config{})
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return c
}

// Load reads the file at path on top of the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data, c)
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	return parse(data, Default())
}

func parse(data []byte, base *Config) (*Config, error) {
	if err := yaml.UnmarshalStrict(data, base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return base, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.SkipEveryNSlices < 1 {
		return fmt.Errorf("%w: skipEveryNSlices must be at least 1, got %d", ErrInvalid, c.SkipEveryNSlices)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.VolumeOutputName == "" || strings.ContainsAny(c.VolumeOutputName, `/\`) {
		return fmt.Errorf("%w: volumeOutputName %q", ErrInvalid, c.VolumeOutputName)
	}
	if p := c.RelativeOutputPath; !filepath.IsLocal(p) || filepath.Clean(p) == "." {
		return fmt.Errorf("%w: relativeOutputPath %q must name a subdirectory of the input directory", ErrInvalid, p)
	}
	switch c.ArchiveCompression {
	case "gzip", "zstd":
	default:
		return fmt.Errorf("%w: archiveCompression %q", ErrInvalid, c.ArchiveCompression)
	}
	if c.DicomConverterArguments != "" && c.DicomConverter == "" {
		return fmt.Errorf("%w: dicomConverterArguments set without dicomConverter", ErrInvalid)
	}
	if _, err := c.dictionaryEntries(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: logLevel %q", ErrInvalid, c.LogLevel)
	}
	return lvl, nil
}

// BuildDictionary returns the default decoder dictionary extended with the
// configured entries.
func (c *Config) BuildDictionary() (*dicom.Dictionary, error) {
	entries, err := c.dictionaryEntries()
	if err != nil {
		return nil, err
	}
	d, err := dicom.DefaultDictionary().With(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return d, nil
}

func (c *Config) dictionaryEntries() (map[dicom.Tag]dicom.Entry, error) {
	entries := make(map[dicom.Tag]dicom.Entry, len(c.Dictionary))
	for i, e := range c.Dictionary {
		group, err := parseHex16(e.Group)
		if err != nil {
			return nil, fmt.Errorf("%w: dictionary[%d] group: %v", ErrInvalid, i, err)
		}
		element, err := parseHex16(e.Element)
		if err != nil {
			return nil, fmt.Errorf("%w: dictionary[%d] element: %v", ErrInvalid, i, err)
		}
		kind, err := dicom.ParseKind(e.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: dictionary[%d]: %v", ErrInvalid, i, err)
		}
		if e.Name == "" {
			return nil, fmt.Errorf("%w: dictionary[%d] has no name", ErrInvalid, i)
		}
		entries[dicom.NewTag(group, element)] = dicom.Entry{Name: e.Name, Kind: kind}
	}
	return entries, nil
}

func parseHex16(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
