package meg

import (
	"fmt"

	"github.com/samber/lo"
)

// Header is the leading record of an archive.
// Only FileNameCount and FileCount exist on the wire for V1;
// NameTableSize only exists for V3.
type Header struct {
	Flags         uint32
	ID            uint32
	DataStart     uint32
	FileNameCount uint32
	FileCount     uint32
	NameTableSize uint32
}

// Encrypted reports whether the header carries the encrypted flag.
func (h Header) Encrypted() bool {
	return h.Flags == FlagsEncrypted
}

// NameTableRecord is one length-prefixed entry name.
// Raw holds the bytes exactly as stored; Name is their decoded form.
type NameTableRecord struct {
	Name string
	Raw  []byte
}

// NewNameTableRecord creates a record for an already encoded path.
func NewNameTableRecord(encodedPath string) (NameTableRecord, error) {
	if len(encodedPath) > MaxNameLength {
		return NameTableRecord{}, fmt.Errorf("%w: name of %d bytes exceeds %d", ErrOverflow, len(encodedPath), MaxNameLength)
	}
	return NameTableRecord{Name: encodedPath, Raw: []byte(encodedPath)}, nil
}

// Size returns the record size on the wire.
func (r NameTableRecord) Size() int {
	return NameLengthPrefixSize + len(r.Raw)
}

// NameTable is the ordered sequence of entry names.
type NameTable []NameTableRecord

// Size returns the total size of the table on the wire.
func (t NameTable) Size() int {
	return lo.SumBy(t, func(r NameTableRecord) int { return r.Size() })
}

// FileTableRecord binds a checksum and a name to a data range.
// Flags only exists on the wire for V3, where bit 0 marks encryption.
type FileTableRecord struct {
	Flags     uint16
	Checksum  uint32
	Index     uint32
	Size      uint32
	Offset    uint32
	NameIndex uint32
}

// Encrypted reports whether the V3 record flag marks the entry as encrypted.
func (r FileTableRecord) Encrypted() bool {
	return r.Flags&1 != 0
}

// FileTable is the sequence of file records, ordered by checksum in a conformant archive.
type FileTable []FileTableRecord

// Size returns the total size of the table on the wire for version v.
func (t FileTable) Size(v Version) int {
	return lo.SumBy(t, func(r FileTableRecord) int { return v.FileRecordSize(r.Encrypted()) })
}

// DataSize returns the sum of all declared entry sizes.
func (t FileTable) DataSize() uint64 {
	return lo.SumBy(t, func(r FileTableRecord) uint64 { return uint64(r.Size) })
}

// Metadata is everything in an archive that precedes the entry data.
type Metadata struct {
	Version Version
	Header  Header
	Names   NameTable
	Files   FileTable
}

// Size returns the number of bytes the metadata occupies on the wire.
func (m *Metadata) Size() int {
	return m.Version.HeaderSize() + m.Names.Size() + m.Files.Size(m.Version)
}

// NewMetadata creates the metadata for a new archive whose entries already
// carry their final offsets. Names and records are emitted in entry order and
// each record points at the name with the same index.
func NewMetadata(v Version, encrypted bool, entries []DataEntry) (*Metadata, error) {
	if encrypted {
		return nil, fmt.Errorf("encrypted metadata: %w", ErrUnsupported)
	}
	if v == VersionUnknown {
		return nil, fmt.Errorf("%w: unknown MEG version", ErrInvalidArgument)
	}

	names := make(NameTable, 0, len(entries))
	files := make(FileTable, 0, len(entries))
	for i, e := range entries {
		if e.Encrypted {
			return nil, fmt.Errorf("encrypted entry %s: %w", e.Path, ErrUnsupported)
		}
		name, err := NewNameTableRecord(e.Path)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		files = append(files, FileTableRecord{
			Checksum:  e.Checksum,
			Index:     uint32(i),
			Size:      e.Size,
			Offset:    e.Offset,
			NameIndex: uint32(i),
		})
	}

	m := &Metadata{
		Version: v,
		Names:   names,
		Files:   files,
	}

	size := m.Size()
	if exceedsArchiveSize(size) {
		return nil, fmt.Errorf("%w: metadata of %d bytes", ErrOverflow, size)
	}

	m.Header = Header{
		FileNameCount: uint32(len(entries)),
		FileCount:     uint32(len(entries)),
	}
	if v != V1 {
		m.Header.Flags = FlagsUnencrypted
		m.Header.ID = Magic
		m.Header.DataStart = uint32(size)
	}
	if v == V3 {
		m.Header.NameTableSize = uint32(names.Size())
	}

	return m, nil
}

// exceedsArchiveSize reports whether n bytes do not fit the 32-bit offsets of the format.
func exceedsArchiveSize(n int) bool {
	return n < 0 || uint64(n) > MaxArchiveSize
}
