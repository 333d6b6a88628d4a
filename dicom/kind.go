package dicom

import (
	"fmt"
	"strings"
)

// Kind is the value representation category that decides how an element
// payload is decoded.
type Kind int

const (
	// KindUnknown marks tags with no dictionary entry. Their payload is skipped.
	KindUnknown Kind = iota
	KindText
	KindNumericText
	KindShort
	KindBytes
	KindItem
	KindSeparator
)

var kindNames = map[Kind]string{
	KindUnknown:     "Unknown",
	KindText:        "String",
	KindNumericText: "DoubleString",
	KindShort:       "UShort",
	KindBytes:       "Bytes",
	KindItem:        "Item",
	KindSeparator:   "Separator",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses the dictionary type names used in configuration files
// (String, DoubleString, UShort, Bytes, Item, Separator, Unknown).
// Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown value kind %q", s)
}

// longFormVRs are the explicit VR codes followed by a 2-byte reserved field
// and a 4-byte length instead of a 2-byte length.
var longFormVRs = map[string]bool{
	"OB": true, "OW": true, "UN": true, "SQ": true,
	"OD": true, "OF": true, "OL": true, "UC": true, "UR": true, "UT": true,
}

func isLongForm(vr string) bool {
	return longFormVRs[vr]
}
