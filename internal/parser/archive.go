package parser

import (
	"github.com/ossyrian/megkit/internal/meg"
)

// ToArchive joins the file table with the name table. It fails when a name
// index is out of range or when the checksums of the file table decrease,
// which the codec does not check.
func ToArchive(m *meg.Metadata) (*meg.Archive, error) {
	entries := make([]meg.DataEntry, 0, len(m.Files))

	for i, rec := range m.Files {
		if i > 0 && rec.Checksum < m.Files[i-1].Checksum {
			return nil, meg.Corrupted("file table is not sorted by checksum at record %d (0x%08X after 0x%08X)",
				i, rec.Checksum, m.Files[i-1].Checksum)
		}
		if rec.NameIndex >= uint32(len(m.Names)) {
			return nil, meg.Corrupted("record %d references name %d of %d", i, rec.NameIndex, len(m.Names))
		}

		entries = append(entries, meg.DataEntry{
			Checksum:  rec.Checksum,
			Path:      m.Names[rec.NameIndex].Name,
			Offset:    rec.Offset,
			Size:      rec.Size,
			Encrypted: rec.Encrypted(),
		})
	}

	return meg.NewArchive(entries), nil
}
