package layout

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/ossyrian/megkit/internal/meg"
)

// Planner computes checksums, record sizes and offsets for a new archive.
type Planner struct {
	fs       afero.Fs
	version  meg.Version
	checksum meg.ChecksumFunc
	logger   *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithChecksum replaces the checksum function. It defaults to meg.Checksum.
func WithChecksum(f meg.ChecksumFunc) Option {
	return func(p *Planner) {
		p.checksum = f
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// NewPlanner creates a planner for version archives. fs is used to probe
// the length of local files whose size was not declared.
func NewPlanner(fs afero.Fs, version meg.Version, opts ...Option) *Planner {
	p := &Planner{
		fs:       fs,
		version:  version,
		checksum: meg.Checksum,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// plannedEntry accumulates what Plan knows about one entry.
type plannedEntry struct {
	info     meg.EntryInfo
	checksum uint32
	size     uint32
}

// Plan lays out entries in the order given. Offsets start right after the
// metadata and grow by each entry's stored size. Entries are not reordered
// by checksum.
func (p *Planner) Plan(entries []meg.EntryInfo, encryption *meg.EncryptionData) (*meg.StagedArchive, error) {
	if p.version == meg.VersionUnknown {
		return nil, fmt.Errorf("%w: unknown MEG version", meg.ErrInvalidArgument)
	}

	encrypted := encryption != nil
	metadataSize := uint64(p.version.HeaderSize())
	planned := make([]plannedEntry, len(entries))

	for i, e := range entries {
		if e.Origin == nil {
			return nil, fmt.Errorf("%w: entry %s has no origin", meg.ErrInvalidArgument, e.Path)
		}
		if len(e.Path) > meg.MaxNameLength {
			return nil, fmt.Errorf("%w: path of entry %d is %d bytes", meg.ErrOverflow, i, len(e.Path))
		}

		encrypted = encrypted || e.Encrypted
		metadataSize += uint64(meg.NameLengthPrefixSize + len(e.Path))
		metadataSize += uint64(p.version.FileRecordSize(e.Encrypted))

		planned[i] = plannedEntry{
			info:     e,
			checksum: p.checksum([]byte(e.Path)),
		}
	}

	if metadataSize > meg.MaxArchiveSize {
		return nil, fmt.Errorf("%w: metadata of %d bytes", meg.ErrOverflow, metadataSize)
	}

	for i := range planned {
		size, err := p.dataSize(planned[i].info)
		if err != nil {
			return nil, err
		}
		planned[i].size = size
	}

	staged := &meg.StagedArchive{
		Version:      p.version,
		Encrypted:    encrypted,
		MetadataSize: uint32(metadataSize),
		Entries:      make([]meg.StagedEntry, 0, len(planned)),
	}

	offset := metadataSize
	for _, pe := range planned {
		stored := storedSize(pe.size)
		if stored < uint64(pe.size) {
			return nil, fmt.Errorf("%w: stored size %d of %s is smaller than its data size %d",
				meg.ErrOverflow, stored, pe.info.Path, pe.size)
		}

		next := offset + stored
		if next > meg.MaxArchiveSize {
			return nil, fmt.Errorf("%w: archive exceeds 4 GiB at entry %s", meg.ErrOverflow, pe.info.Path)
		}

		staged.Entries = append(staged.Entries, meg.StagedEntry{
			Entry: meg.DataEntry{
				Checksum:  pe.checksum,
				Path:      pe.info.Path,
				Offset:    uint32(offset),
				Size:      pe.size,
				Encrypted: pe.info.Encrypted,
			},
			Origin: pe.info.Origin,
		})

		p.logger.Debug("planned entry",
			"path", pe.info.Path,
			"checksum", pe.checksum,
			"data_offset", offset,
			"data_size", pe.size,
		)
		offset = next
	}

	if !checksumOrdered(staged.Entries) {
		p.logger.Warn("planned file table is not ordered by checksum",
			"version", p.version,
			"file_count", len(staged.Entries),
		)
	}

	p.logger.Debug("planned archive",
		"version", p.version,
		"file_count", len(staged.Entries),
		"metadata_size", metadataSize,
		"archive_size", offset,
	)

	return staged, nil
}

// dataSize returns the declared size or probes the local file.
func (p *Planner) dataSize(e meg.EntryInfo) (uint32, error) {
	if e.Size != nil {
		return *e.Size, nil
	}

	local, ok := e.Origin.(meg.LocalFile)
	if !ok {
		return 0, fmt.Errorf("%w: size of %s is unknown and expected a local file origin", meg.ErrInvalidOperation, e.Path)
	}

	info, err := p.fs.Stat(local.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to probe size of %s: %w", local.Path, err)
	}
	if info.Size() < 0 || info.Size() > meg.MaxArchiveSize {
		return 0, fmt.Errorf("%w: %s is %d bytes", meg.ErrOverflow, local.Path, info.Size())
	}
	return uint32(info.Size()), nil
}

// storedSize is the number of bytes an entry occupies in the archive.
// Unencrypted entries are stored as is.
func storedSize(size uint32) uint64 {
	return uint64(size)
}

func checksumOrdered(entries []meg.StagedEntry) bool {
	for i := 1; i < len(entries); i++ {
		if entries[i].Entry.Checksum < entries[i-1].Entry.Checksum {
			return false
		}
	}
	return true
}
