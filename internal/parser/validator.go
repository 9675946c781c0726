package parser

import (
	"fmt"

	"github.com/ossyrian/megkit/internal/meg"
)

// SizeValidator cross-checks the sizes declared by metadata against the
// bytes actually available. It fails closed and never returns an error.
type SizeValidator interface {
	Validate(bytesRead, streamSize int64, m *meg.Metadata) bool
}

// SizeValidatorFor returns the size validator for version v.
func SizeValidatorFor(v meg.Version) (SizeValidator, error) {
	switch v {
	case meg.V1:
		return v1SizeValidator{}, nil
	case meg.V2:
		return v2SizeValidator{}, nil
	case meg.V3:
		return v3SizeValidator{}, nil
	default:
		return nil, fmt.Errorf("%w: no size validator for MEG version %s", meg.ErrInvalidArgument, v)
	}
}

// v1SizeValidator requires the data to follow the metadata without gaps
// and to end exactly at the end of the stream.
type v1SizeValidator struct{}

func (v1SizeValidator) Validate(bytesRead, streamSize int64, m *meg.Metadata) bool {
	mustBe(meg.V1, m)
	if !sane(bytesRead, streamSize) {
		return false
	}

	size := int64(m.Size())
	if bytesRead != size {
		return false
	}
	return uint64(size)+m.Files.DataSize() == uint64(streamSize)
}

// v2SizeValidator requires the data to start right after the metadata and
// every entry to lie within the stream. Trailing bytes are tolerated.
type v2SizeValidator struct{}

func (v2SizeValidator) Validate(bytesRead, streamSize int64, m *meg.Metadata) bool {
	mustBe(meg.V2, m)
	return validateDataRegion(bytesRead, streamSize, m)
}

// v3SizeValidator adds the declared name table size to the V2 checks.
type v3SizeValidator struct{}

func (v3SizeValidator) Validate(bytesRead, streamSize int64, m *meg.Metadata) bool {
	mustBe(meg.V3, m)
	if int64(m.Header.NameTableSize) != int64(m.Names.Size()) {
		return false
	}
	return validateDataRegion(bytesRead, streamSize, m)
}

func validateDataRegion(bytesRead, streamSize int64, m *meg.Metadata) bool {
	if !sane(bytesRead, streamSize) {
		return false
	}

	size := int64(m.Size())
	if bytesRead != size || int64(m.Header.DataStart) != size {
		return false
	}
	if uint64(m.Header.DataStart)+m.Files.DataSize() > uint64(streamSize) {
		return false
	}

	for _, rec := range m.Files {
		if rec.Offset < m.Header.DataStart {
			return false
		}
		if uint64(rec.Offset)+uint64(rec.Size) > uint64(streamSize) {
			return false
		}
	}
	return true
}

func sane(bytesRead, streamSize int64) bool {
	return bytesRead >= 0 && streamSize >= 0 && streamSize >= bytesRead
}

// mustBe panics when a validator is handed metadata of another version.
// That is a programming error, not a data error.
func mustBe(v meg.Version, m *meg.Metadata) {
	if m == nil || m.Version != v {
		panic(fmt.Sprintf("parser: %s size validator given metadata of another version", v))
	}
}
