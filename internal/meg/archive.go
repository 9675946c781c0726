package meg

import (
	"slices"
	"sort"
)

// DataEntry is one logical packed item.
type DataEntry struct {
	Checksum  uint32
	Path      string
	Offset    uint32
	Size      uint32
	Encrypted bool
}

// Archive is the ordered, immutable list of entries read from an archive.
// Entries keep file table order, so a loaded archive is ordered by checksum.
// Duplicate paths and checksums are kept.
type Archive struct {
	entries []DataEntry
}

// NewArchive creates an archive over a copy of entries.
func NewArchive(entries []DataEntry) *Archive {
	return &Archive{entries: slices.Clone(entries)}
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// At returns the entry at index i.
func (a *Archive) At(i int) DataEntry {
	return a.entries[i]
}

// Entries returns a copy of all entries.
func (a *Archive) Entries() []DataEntry {
	return slices.Clone(a.entries)
}

// Contains reports whether a has an entry equal to e.
func (a *Archive) Contains(e DataEntry) bool {
	return slices.Contains(a.entries, e)
}

// Find returns every entry stored under the encoded path, in file table order.
// When an archive holds duplicates, games use the last one.
func (a *Archive) Find(path string) []DataEntry {
	crc := PathChecksum(path)
	start := sort.Search(len(a.entries), func(i int) bool {
		return a.entries[i].Checksum >= crc
	})

	var found []DataEntry
	for i := start; i < len(a.entries) && a.entries[i].Checksum == crc; i++ {
		if a.entries[i].Path == path {
			found = append(found, a.entries[i])
		}
	}
	return found
}

// EncryptionData holds the key material of an encrypted archive.
// Encryption is not implemented; any non-nil value is rejected.
type EncryptionData struct {
	Key []byte
	IV  []byte
}

// FileInfo describes an archive to be written.
type FileInfo struct {
	Path       string
	Version    Version
	Encryption *EncryptionData
}

// Encrypted reports whether the archive requests encryption.
func (fi FileInfo) Encrypted() bool {
	return fi.Encryption != nil
}

// File is an archive loaded from a file system path.
// Encrypted archives are never loaded, so a File is always unencrypted.
type File struct {
	Path    string
	Version Version
	Archive *Archive
}

// Origin is where the bytes of a new entry come from.
// It is either a LocalFile or an ArchiveEntry.
type Origin interface {
	origin()
}

// LocalFile sources entry bytes from a file on the file system.
type LocalFile struct {
	Path string
}

// ArchiveEntry sources entry bytes from an entry of an existing archive.
type ArchiveEntry struct {
	File  *File
	Entry DataEntry
}

func (LocalFile) origin()    {}
func (ArchiveEntry) origin() {}

// EntryInfo is an entry staged for a new archive. Path is final: it has
// already been normalized and encoded. Size is nil when it should be probed.
type EntryInfo struct {
	Path      string
	Encrypted bool
	Size      *uint32
	Origin    Origin
}

// StagedEntry is an entry of a new archive with its final offset and size.
type StagedEntry struct {
	Entry  DataEntry
	Origin Origin
}

// StagedArchive is a fully laid out archive ready to be serialized.
type StagedArchive struct {
	Version      Version
	Encrypted    bool
	MetadataSize uint32
	Entries      []StagedEntry
}

// DataEntries returns the data entries in staged order.
func (s *StagedArchive) DataEntries() []DataEntry {
	entries := make([]DataEntry, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = e.Entry
	}
	return entries
}
