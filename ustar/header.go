package ustar

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ibinary "github.com/robert-malhotra/go-dcm2vol/internal/binary"
)

// BlockSize is the archive block size.
const BlockSize = 512

const (
	magicGNU   = "ustar "
	versionGNU = " \x00"

	typeRegular   = '0'
	typeDirectory = '5'

	// Owner fields written for every entry.
	ownerMode = "0000644"
	ownerID   = "0000764"
	ownerName = "dcm2vol"

	checksumOffset = 148
	checksumSize   = 8

	// maxSize is the largest size that fits in 11 octal digits.
	maxSize = 1<<33 - 1
)

// Errors
var (
	ErrChecksum     = errors.New("header checksum mismatch")
	ErrCorrupt      = errors.New("corrupt archive header")
	ErrNameTooLong  = errors.New("name longer than 100 bytes")
	ErrFileTooLarge = errors.New("file too large for archive header")
	ErrUnsafePath   = errors.New("entry path escapes extraction directory")
	ErrNotRegular   = errors.New("not a regular file")
)

// header is the on-disk layout of one 512-byte block.
type header struct {
	Name     [100]byte
	Mode     [8]byte
	UID      [8]byte
	GID      [8]byte
	Size     [12]byte
	MTime    [12]byte
	Checksum [8]byte
	TypeFlag byte
	LinkName [100]byte
	Magic    [6]byte
	Version  [2]byte
	UName    [32]byte
	GName    [32]byte
	DevMajor [8]byte
	DevMinor [8]byte
	Prefix   [155]byte
	Reserved [12]byte
}

// Kind is the entry type.
type Kind int

const (
	File Kind = iota
	Directory
)

func (k Kind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

// Entry describes one archive member.
type Entry struct {
	Name string

	// Offset is the position of the first payload byte in the archive stream.
	Offset int64

	ModTime time.Time
	Kind    Kind
	Size    int64
}

func newHeader(name string, size int64, mtime time.Time) (*header, error) {
	if len(name) > len(header{}.Name) {
		return nil, fmt.Errorf("%w: %q", ErrNameTooLong, name)
	}
	if size < 0 || size > maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, size)
	}
	h := &header{TypeFlag: typeRegular}
	copy(h.Name[:], name)
	copy(h.Mode[:], ownerMode)
	copy(h.UID[:], ownerID)
	copy(h.GID[:], ownerID)
	copy(h.Size[:], fmt.Sprintf("%011o", size))
	copy(h.MTime[:], fmt.Sprintf("%011o", mtime.Unix()))
	copy(h.Magic[:], magicGNU)
	copy(h.Version[:], versionGNU)
	copy(h.UName[:], ownerName)
	copy(h.GName[:], ownerName)
	return h, nil
}

// encode serializes h and fills in its checksum.
func (h *header) encode() ([]byte, error) {
	for i := range h.Checksum {
		h.Checksum[i] = ' '
	}
	block, err := ibinary.EncodeRecord(binary.LittleEndian, h)
	if err != nil {
		return nil, err
	}
	sum := ibinary.ByteSum(block)
	copy(h.Checksum[:], fmt.Sprintf("%06o\x00 ", sum))
	copy(block[checksumOffset:], h.Checksum[:])
	return block, nil
}

// decodeHeader parses a block. It reports ErrCorrupt for blocks that are
// not GNU tar headers and ErrChecksum for headers whose sum is wrong.
func decodeHeader(block []byte) (*header, error) {
	var h header
	if err := ibinary.DecodeRecord(binary.LittleEndian, block, &h); err != nil {
		return nil, err
	}
	if string(h.Magic[:]) != magicGNU {
		return nil, fmt.Errorf("%w: magic %q", ErrCorrupt, h.Magic[:])
	}
	stored, err := parseOctal(h.Checksum[:])
	if err != nil {
		return nil, fmt.Errorf("%w: checksum field: %v", ErrCorrupt, err)
	}
	if sum := ibinary.ByteSumBlanked(block, checksumOffset, checksumSize); sum != stored {
		return nil, fmt.Errorf("%w: stored %o, computed %o", ErrChecksum, stored, sum)
	}
	return &h, nil
}

func (h *header) name() string {
	return cString(h.Name[:])
}

func (h *header) size() (int64, error) {
	n, err := parseOctal(h.Size[:])
	if err != nil {
		return 0, fmt.Errorf("%w: size field: %v", ErrCorrupt, err)
	}
	return n, nil
}

func (h *header) modTime() (time.Time, error) {
	n, err := parseOctal(h.MTime[:])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: mtime field: %v", ErrCorrupt, err)
	}
	return time.Unix(n, 0).UTC(), nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// parseOctal parses a NUL or space terminated octal field. An empty field
// is zero.
func parseOctal(b []byte) (int64, error) {
	s := strings.Trim(cString(b), " ")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 8, 64)
}

func isZeroBlock(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
