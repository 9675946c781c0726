// Package builder stages entries for a new MEG archive and writes it.
package builder

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/ossyrian/megkit/internal/meg"
	"github.com/ossyrian/megkit/internal/ordmap"
	"github.com/ossyrian/megkit/internal/service"
)

// Builder collects entries under their final archive paths, in insertion
// order, and builds archives from them. A Builder is not safe for
// concurrent use.
type Builder struct {
	service *service.Service
	fs      afero.Fs
	logger  *slog.Logger
	entries *ordmap.Map[string, meg.EntryInfo]

	overwriteDuplicates bool
	autoFileSizes       bool
	encodePaths         bool
	normalizer          Normalizer
	entryValidator      EntryValidator
	fileInfoValidator   FileInfoValidator

	disposed bool
}

// New creates a builder that reads sources and writes archives through svc.
// By default paths are normalized with PetroglyphNormalizer and encoded,
// duplicates are rejected and sizes are probed at build time.
func New(svc *service.Service, opts ...Option) *Builder {
	b := &Builder{
		service:           svc,
		fs:                svc.FS(),
		logger:            svc.Logger(),
		entries:           ordmap.New[string, meg.EntryInfo](),
		encodePaths:       true,
		normalizer:        PetroglyphNormalizer{},
		entryValidator:    NoopEntryValidator{},
		fileInfoValidator: DefaultFileInfoValidator{},
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	if b.entryValidator == nil {
		b.entryValidator = NoopEntryValidator{}
	}
	if b.fileInfoValidator == nil {
		b.fileInfoValidator = DefaultFileInfoValidator{}
	}
	return b
}

// AddFile stages the local file at sourcePath under targetPath.
// Errors are reserved for invalid calls; rejected entries are reported in
// the result.
func (b *Builder) AddFile(sourcePath, targetPath string, encrypt bool) (AddResult, error) {
	if b.disposed {
		return AddResult{}, meg.ErrDisposed
	}
	if sourcePath == "" || targetPath == "" {
		return AddResult{}, fmt.Errorf("%w: source and target paths are required", meg.ErrInvalidArgument)
	}
	if encrypt {
		return AddResult{}, fmt.Errorf("%w: encrypting %s", meg.ErrUnsupported, sourcePath)
	}

	info, err := b.fs.Stat(sourcePath)
	if errors.Is(err, fs.ErrNotExist) {
		return rejected(StatusFileOrEntryNotFound, fmt.Sprintf("file %s does not exist", sourcePath)), nil
	}
	if err != nil {
		return AddResult{}, fmt.Errorf("failed to stat %s: %w", sourcePath, err)
	}
	if info.IsDir() {
		return rejected(StatusFileOrEntryNotFound, fmt.Sprintf("%s is a directory", sourcePath)), nil
	}

	var size *uint32
	if b.autoFileSizes {
		if info.Size() > meg.MaxArchiveSize {
			return rejected(StatusInvalidEntry, fmt.Sprintf("file %s exceeds 4 GiB", sourcePath)), nil
		}
		n := uint32(info.Size())
		size = &n
	}

	return b.stage(targetPath, encrypt, size, meg.LocalFile{Path: sourcePath}), nil
}

// EntryOverrides replaces properties of an entry copied from another archive.
// Zero values keep the entry's own path and encryption.
type EntryOverrides struct {
	TargetPath string
	Encrypt    *bool
}

// AddEntry stages entry of file, copying its bytes lazily at build time.
func (b *Builder) AddEntry(file *meg.File, entry meg.DataEntry, overrides EntryOverrides) (AddResult, error) {
	if b.disposed {
		return AddResult{}, meg.ErrDisposed
	}
	if file == nil || file.Archive == nil {
		return AddResult{}, fmt.Errorf("%w: source archive is required", meg.ErrInvalidArgument)
	}

	encrypt := entry.Encrypted
	if overrides.Encrypt != nil {
		encrypt = *overrides.Encrypt
	}
	if encrypt {
		return AddResult{}, fmt.Errorf("%w: encrypting %s", meg.ErrUnsupported, entry.Path)
	}

	if !file.Archive.Contains(entry) {
		return rejected(StatusFileOrEntryNotFound, fmt.Sprintf("entry %s is not in %s", entry.Path, file.Path)), nil
	}

	target := entry.Path
	if overrides.TargetPath != "" {
		target = overrides.TargetPath
	}
	size := entry.Size

	return b.stage(target, encrypt, &size, meg.ArchiveEntry{File: file, Entry: entry}), nil
}

func (b *Builder) stage(path string, encrypt bool, size *uint32, origin meg.Origin) AddResult {
	final := path
	if b.normalizer != nil {
		normalized, err := b.normalizer.Normalize(final)
		if err != nil {
			b.logger.Debug("failed to normalize path", "path", path, "error", err)
			return rejected(StatusFailedNormalization, err.Error())
		}
		final = normalized
	}
	if b.encodePaths {
		final = meg.EncodePath(final)
	}

	if existing, found := b.entries.Get(final); found && !b.overwriteDuplicates {
		return AddResult{
			Status:  StatusDuplicateEntry,
			Entry:   &existing,
			Message: fmt.Sprintf("an entry is already staged as %s", final),
		}
	}

	if err := b.entryValidator.Validate(final, encrypt, size); err != nil {
		return rejected(StatusInvalidEntry, err.Error())
	}

	entry := meg.EntryInfo{
		Path:      final,
		Encrypted: encrypt,
		Size:      size,
		Origin:    origin,
	}
	old, replaced := b.entries.Set(final, entry)

	b.logger.Debug("staged entry",
		"path", final,
		"source", path,
		"replaced", replaced,
	)

	if replaced {
		return AddResult{Status: StatusOverwritten, Entry: &entry, Overwritten: &old}
	}
	return AddResult{Status: StatusAdded, Entry: &entry}
}

// Remove unstages the entry with the same final path. It reports whether
// anything was removed.
func (b *Builder) Remove(entry meg.EntryInfo) bool {
	return b.entries.Delete(entry.Path)
}

// Clear unstages all entries.
func (b *Builder) Clear() {
	b.entries.Clear()
}

// Len returns the number of staged entries.
func (b *Builder) Len() int {
	return b.entries.Len()
}

// DataEntries returns the staged entries in insertion order.
func (b *Builder) DataEntries() []meg.EntryInfo {
	return b.entries.Values()
}

// ValidateEntry runs the entry validator against an already staged entry.
func (b *Builder) ValidateEntry(e meg.EntryInfo) error {
	return b.entryValidator.Validate(e.Path, e.Encrypted, e.Size)
}

// ValidateFileInfo runs the file info validator against the staged entries.
func (b *Builder) ValidateFileInfo(info meg.FileInfo) error {
	return b.fileInfoValidator.Validate(info, b.DataEntries())
}

// Build writes the staged entries to info.Path. The archive is written to
// a temporary file next to the target and moved into place once complete.
// An existing target is only replaced when overwrite is set.
func (b *Builder) Build(info *meg.FileInfo, overwrite bool) error {
	if b.disposed {
		return meg.ErrDisposed
	}
	if info == nil {
		return fmt.Errorf("%w: file info is required", meg.ErrInvalidArgument)
	}
	if info.Encrypted() {
		return fmt.Errorf("%w: building encrypted archives", meg.ErrUnsupported)
	}

	entries := b.DataEntries()
	if err := b.fileInfoValidator.Validate(*info, entries); err != nil {
		return err
	}

	target, err := filepath.Abs(info.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", info.Path, err)
	}

	stat, err := b.fs.Stat(target)
	switch {
	case err == nil && stat.IsDir():
		return fmt.Errorf("%w: %s is a directory", meg.ErrInvalidArgument, target)
	case err == nil && !overwrite:
		return fmt.Errorf("%w: %s", meg.ErrAlreadyExists, target)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to stat %s: %w", target, err)
	}

	dir := filepath.Dir(target)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(target), uuid.NewString()))
	f, err := b.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer b.removeTemp(tmp)

	if err := b.service.CreateArchive(f, info.Version, info.Encryption, entries); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := b.fs.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to move archive to %s: %w", target, err)
	}

	b.logger.Info("built archive",
		"path", target,
		"version", info.Version,
		"file_count", len(entries),
	)
	return nil
}

// removeTemp deletes the temporary file if it is still there.
func (b *Builder) removeTemp(path string) {
	if err := b.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		b.logger.Debug("failed to remove temporary file", "path", path, "error", err)
	}
}

// Close disposes the builder. Staged entries are dropped and adding or
// building afterwards fails with meg.ErrDisposed.
func (b *Builder) Close() error {
	b.disposed = true
	b.entries.Clear()
	return nil
}
