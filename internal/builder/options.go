package builder

import (
	"fmt"
	"log/slog"
	"strings"
)

// Option configures a Builder.
type Option func(*Builder)

// WithOverwriteDuplicates replaces entries staged under an existing path
// instead of reporting them as duplicates.
func WithOverwriteDuplicates(overwrite bool) Option {
	return func(b *Builder) {
		b.overwriteDuplicates = overwrite
	}
}

// WithFileSizes reads the length of local files when they are added, so
// oversized files are rejected early. Otherwise sizes are probed at build time.
func WithFileSizes(enabled bool) Option {
	return func(b *Builder) {
		b.autoFileSizes = enabled
	}
}

// WithNormalizer sets the path normalizer. A nil normalizer disables normalization.
func WithNormalizer(n Normalizer) Option {
	return func(b *Builder) {
		b.normalizer = n
	}
}

// WithEncoding controls whether target paths are encoded to ASCII.
func WithEncoding(enabled bool) Option {
	return func(b *Builder) {
		b.encodePaths = enabled
	}
}

// WithEntryValidator sets the per-entry validator.
func WithEntryValidator(v EntryValidator) Option {
	return func(b *Builder) {
		b.entryValidator = v
	}
}

// WithFileInfoValidator sets the validator run against the archive description on build.
func WithFileInfoValidator(v FileInfoValidator) Option {
	return func(b *Builder) {
		b.fileInfoValidator = v
	}
}

// WithLogger sets the logger. It defaults to the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// ForGame returns the options matching the naming rules of a game.
// Known games are "eaw" (Empire at War), "foc" (Forces of Corruption)
// and "generic".
func ForGame(game string) ([]Option, error) {
	switch strings.ToLower(strings.TrimSpace(game)) {
	case "eaw", "foc":
		return []Option{
			WithNormalizer(PetroglyphNormalizer{}),
			WithEncoding(true),
			WithEntryValidator(PetroglyphEntryValidator{}),
			WithFileInfoValidator(PetroglyphFileInfoValidator{}),
		}, nil
	case "generic", "":
		return []Option{
			WithNormalizer(NoopNormalizer{}),
			WithEncoding(true),
			WithEntryValidator(NoopEntryValidator{}),
			WithFileInfoValidator(DefaultFileInfoValidator{}),
		}, nil
	default:
		return nil, fmt.Errorf("unknown game: %s", game)
	}
}
