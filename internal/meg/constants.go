package meg

import (
	"fmt"
	"math"
	"strings"
)

// Magic is the id field of V2 and V3 headers.
// V1 headers carry no magic number at all.
const Magic uint32 = 0x3F7D70A4

// Header flag values for V2 and V3 archives
const (
	FlagsUnencrypted uint32 = 0xFFFFFFFF
	FlagsEncrypted   uint32 = 0x8FFFFFFF
)

// Fixed record sizes, in bytes
const (
	HeaderSizeV1 = 8
	HeaderSizeV2 = 20
	HeaderSizeV3 = 24

	// FileTableRecordSize is the size of an unencrypted file table record.
	// V1, V2 and V3 all share it even though the V3 field layout differs.
	FileTableRecordSize = 20

	// FileTableRecordSizeEncrypted is the size of an encrypted V3 record
	// (20 bytes padded to the AES block size).
	FileTableRecordSizeEncrypted = 32

	// NameLengthPrefixSize is the size of the uint16 length before each name.
	NameLengthPrefixSize = 2
)

// Limits imposed by the 16 and 32 bit fields of the format
const (
	MaxNameLength  = math.MaxUint16
	MaxArchiveSize = math.MaxUint32
)

// Version identifies one of the three MEG wire formats.
type Version int

const (
	VersionUnknown Version = iota
	V1
	V2
	V3
)

func (v Version) String() string {
	switch v {
	case V1:
		return "V1"
	case V2:
		return "V2"
	case V3:
		return "V3"
	default:
		return "Unknown"
	}
}

// HeaderSize returns the size of the header for v.
// It panics for an unknown version, which is a programming error.
func (v Version) HeaderSize() int {
	switch v {
	case V1:
		return HeaderSizeV1
	case V2:
		return HeaderSizeV2
	case V3:
		return HeaderSizeV3
	default:
		panic(fmt.Sprintf("meg: header size of unknown version %d", int(v)))
	}
}

// FileRecordSize returns the size of a single file table record.
func (v Version) FileRecordSize(encrypted bool) int {
	if encrypted && v == V3 {
		return FileTableRecordSizeEncrypted
	}
	return FileTableRecordSize
}

// ParseVersion returns the version for a user supplied name such as "v1" or "3".
func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1", "1":
		return V1, nil
	case "v2", "2":
		return V2, nil
	case "v3", "3":
		return V3, nil
	default:
		return VersionUnknown, fmt.Errorf("unknown MEG version: %s", s)
	}
}
