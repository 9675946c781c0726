package builder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ossyrian/megkit/internal/meg"
)

// MaxPetroglyphPathLength is the longest entry path the games accept.
const MaxPetroglyphPathLength = 260

// EntryValidator decides whether a final, normalized and encoded path may be
// staged. Rejections are *meg.ValidationError values.
type EntryValidator interface {
	Validate(path string, encrypted bool, size *uint32) error
}

// FileInfoValidator decides whether an archive may be built from entries.
type FileInfoValidator interface {
	Validate(info meg.FileInfo, entries []meg.EntryInfo) error
}

func invalid(format string, args ...any) error {
	return &meg.ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NoopEntryValidator accepts every entry.
type NoopEntryValidator struct{}

func (NoopEntryValidator) Validate(string, bool, *uint32) error {
	return nil
}

// PetroglyphEntryValidator enforces the path rules of the Petroglyph games.
type PetroglyphEntryValidator struct{}

func (PetroglyphEntryValidator) Validate(path string, encrypted bool, _ *uint32) error {
	if path == "" {
		return invalid("path is empty")
	}
	if len(path) > MaxPetroglyphPathLength {
		return invalid("path %q is longer than %d characters", path, MaxPetroglyphPathLength)
	}
	if !meg.IsEncoded(path) {
		return invalid("path %q contains non-ASCII characters", path)
	}
	for _, r := range path {
		if r < 0x20 || r == 0x7F {
			return invalid("path %q contains a control character", path)
		}
	}
	if i := strings.IndexAny(path, `*:"<>|/`); i >= 0 {
		return invalid("path %q contains illegal character %q", path, path[i])
	}
	if strings.HasSuffix(path, `\`) {
		return invalid("path %q ends with a separator", path)
	}
	if path != strings.ToUpper(path) {
		return invalid("path %q is not upper case", path)
	}
	if encrypted {
		return invalid("the game does not read encrypted entries")
	}
	return nil
}

// DefaultFileInfoValidator checks that the requested version can hold the entries.
type DefaultFileInfoValidator struct{}

func (DefaultFileInfoValidator) Validate(info meg.FileInfo, entries []meg.EntryInfo) error {
	if info.Path == "" {
		return invalid("archive path is empty")
	}
	switch info.Version {
	case meg.V1, meg.V2, meg.V3:
	default:
		return invalid("unknown MEG version %s", info.Version)
	}
	if info.Encrypted() && info.Version != meg.V3 {
		return invalid("only V3 archives can be encrypted, got %s", info.Version)
	}
	for _, e := range entries {
		if e.Encrypted && !info.Encrypted() {
			return invalid("entry %s is encrypted but the archive is not", e.Path)
		}
	}
	return nil
}

// PetroglyphFileInfoValidator restricts archives to what Empire at War and
// Forces of Corruption load.
type PetroglyphFileInfoValidator struct{}

func (PetroglyphFileInfoValidator) Validate(info meg.FileInfo, entries []meg.EntryInfo) error {
	if err := (DefaultFileInfoValidator{}).Validate(info, entries); err != nil {
		return err
	}
	if info.Version != meg.V1 {
		return invalid("the game only reads V1 archives, got %s", info.Version)
	}
	if info.Encrypted() {
		return invalid("the game does not read encrypted archives")
	}
	if !strings.EqualFold(filepath.Ext(info.Path), ".meg") {
		return invalid("archive %s does not have a .meg extension", info.Path)
	}
	return nil
}
