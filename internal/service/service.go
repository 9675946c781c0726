// Package service loads MEG archives and writes new ones.
package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/ossyrian/megkit/internal/layout"
	"github.com/ossyrian/megkit/internal/meg"
	"github.com/ossyrian/megkit/internal/parser"
)

// Service ties version detection, metadata parsing, size validation and
// layout planning together over a file system.
type Service struct {
	fs       afero.Fs
	checksum meg.ChecksumFunc
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithChecksum replaces the checksum used for new archives.
func WithChecksum(f meg.ChecksumFunc) Option {
	return func(s *Service) {
		s.checksum = f
	}
}

// New creates a service operating on fsys.
func New(fsys afero.Fs, opts ...Option) *Service {
	s := &Service{
		fs:       fsys,
		checksum: meg.Checksum,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// FS returns the file system the service operates on.
func (s *Service) FS() afero.Fs {
	return s.fs
}

// Logger returns the service logger.
func (s *Service) Logger() *slog.Logger {
	return s.logger
}

// IdentifyVersion detects the version of the archive at path.
func (s *Service) IdentifyVersion(path string) (meg.Version, bool, error) {
	f, err := s.open(path)
	if err != nil {
		return meg.VersionUnknown, false, err
	}
	defer f.Close()

	return s.IdentifyVersionStream(f)
}

// IdentifyVersionStream detects the version of the archive in r.
// The stream is rewound to its start afterwards.
func (s *Service) IdentifyVersionStream(r io.ReadSeeker) (meg.Version, bool, error) {
	if r == nil {
		return meg.VersionUnknown, false, fmt.Errorf("%w: nil stream", meg.ErrInvalidArgument)
	}
	return parser.NewReader(r, s.logger).DetectVersion()
}

// Load reads the archive at path.
func (s *Service) Load(path string) (*meg.File, error) {
	f, err := s.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	archive, version, err := s.load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	s.logger.Info("loaded archive",
		"path", path,
		"version", version,
		"file_count", archive.Len(),
	)

	return &meg.File{
		Path:    path,
		Version: version,
		Archive: archive,
	}, nil
}

// LoadStream reads the archive in r.
func (s *Service) LoadStream(r io.ReadSeeker) (*meg.Archive, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil stream", meg.ErrInvalidArgument)
	}
	archive, _, err := s.load(r)
	return archive, err
}

func (s *Service) load(r io.ReadSeeker) (*meg.Archive, meg.Version, error) {
	reader := parser.NewReader(r, s.logger)

	version, encrypted, err := reader.DetectVersion()
	if err != nil {
		return nil, meg.VersionUnknown, err
	}
	if encrypted {
		return nil, version, fmt.Errorf("%w: encrypted %s archives", meg.ErrUnsupported, version)
	}

	validator, err := parser.SizeValidatorFor(version)
	if err != nil {
		return nil, version, err
	}

	m, bytesRead, err := reader.ReadMetadata(version)
	if err != nil {
		return nil, version, fmt.Errorf("failed to read %s metadata: %w", version, err)
	}

	streamSize, err := reader.Size()
	if err != nil {
		return nil, version, err
	}
	if !validator.Validate(bytesRead, streamSize, m) {
		return nil, version, meg.Corrupted("declared %s sizes do not match a stream of %d bytes", version, streamSize)
	}

	archive, err := parser.ToArchive(m)
	if err != nil {
		return nil, version, err
	}
	return archive, version, nil
}

// CreateArchive writes a new archive of the given version to w. Entries are
// laid out in the order given and their bytes copied from their origins.
// Encryption is not supported.
func (s *Service) CreateArchive(w io.Writer, version meg.Version, encryption *meg.EncryptionData, entries []meg.EntryInfo) error {
	if w == nil {
		return fmt.Errorf("%w: nil writer", meg.ErrInvalidArgument)
	}
	if encryption != nil {
		return fmt.Errorf("%w: writing encrypted archives", meg.ErrUnsupported)
	}
	codec, err := meg.CodecFor(version)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.Origin == nil {
			return fmt.Errorf("%w: entry %s has no origin", meg.ErrInvalidArgument, e.Path)
		}
		if ae, ok := e.Origin.(meg.ArchiveEntry); ok {
			if err := checkArchiveEntry(ae); err != nil {
				return err
			}
		}
	}

	planner := layout.NewPlanner(s.fs, version,
		layout.WithChecksum(s.checksum),
		layout.WithLogger(s.logger),
	)
	staged, err := planner.Plan(entries, encryption)
	if err != nil {
		return fmt.Errorf("failed to plan archive: %w", err)
	}
	if staged.Encrypted {
		return fmt.Errorf("%w: writing encrypted entries", meg.ErrUnsupported)
	}

	m, err := meg.NewMetadata(version, false, staged.DataEntries())
	if err != nil {
		return err
	}
	if m.Size() != int(staged.MetadataSize) {
		return fmt.Errorf("%w: planned metadata size %d, serialized %d", meg.ErrInvalidOperation, staged.MetadataSize, m.Size())
	}

	bw := bufio.NewWriter(w)
	if err := codec.WriteMetadata(bw, m); err != nil {
		return err
	}

	for _, e := range staged.Entries {
		if err := s.copyEntry(bw, e); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush archive: %w", err)
	}

	s.logger.Debug("wrote archive",
		"version", version,
		"file_count", len(staged.Entries),
		"metadata_size", staged.MetadataSize,
	)
	return nil
}

// OpenEntry returns a reader over the bytes of entry inside file.
func (s *Service) OpenEntry(file *meg.File, entry meg.DataEntry) (io.ReadCloser, error) {
	if err := checkArchiveEntry(meg.ArchiveEntry{File: file, Entry: entry}); err != nil {
		return nil, err
	}
	if entry.Encrypted {
		return nil, fmt.Errorf("%w: reading encrypted entry %s", meg.ErrUnsupported, entry.Path)
	}

	f, err := s.fs.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Path, err)
	}

	return &entryReader{
		SectionReader: io.NewSectionReader(f, int64(entry.Offset), int64(entry.Size)),
		file:          f,
	}, nil
}

func (s *Service) copyEntry(w io.Writer, e meg.StagedEntry) error {
	src, err := s.openOrigin(e)
	if err != nil {
		return err
	}
	defer src.Close()

	n, err := io.CopyN(w, src, int64(e.Entry.Size))
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: copied %d bytes of %s, expected %d", meg.ErrInvalidOperation, n, e.Entry.Path, e.Entry.Size)
	}
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", e.Entry.Path, err)
	}

	var probe [1]byte
	if extra, _ := src.Read(probe[:]); extra > 0 {
		return fmt.Errorf("%w: source of %s is larger than %d bytes", meg.ErrInvalidOperation, e.Entry.Path, e.Entry.Size)
	}
	return nil
}

func (s *Service) openOrigin(e meg.StagedEntry) (io.ReadCloser, error) {
	switch origin := e.Origin.(type) {
	case meg.LocalFile:
		f, err := s.fs.Open(origin.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", origin.Path, err)
		}
		return f, nil
	case meg.ArchiveEntry:
		return s.OpenEntry(origin.File, origin.Entry)
	default:
		return nil, fmt.Errorf("%w: unknown origin %T for %s", meg.ErrInvalidArgument, e.Origin, e.Entry.Path)
	}
}

func (s *Service) open(path string) (afero.File, error) {
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func checkArchiveEntry(ae meg.ArchiveEntry) error {
	if ae.File == nil || ae.File.Archive == nil {
		return fmt.Errorf("%w: entry %s has no source archive", meg.ErrInvalidArgument, ae.Entry.Path)
	}
	if !ae.File.Archive.Contains(ae.Entry) {
		return fmt.Errorf("%w: %s in %s", meg.ErrFileNotInArchive, ae.Entry.Path, ae.File.Path)
	}
	return nil
}

// entryReader closes the archive file behind a section.
type entryReader struct {
	*io.SectionReader
	file io.Closer
}

func (r *entryReader) Close() error {
	return r.file.Close()
}
