package builder

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalizer rewrites a target path into the form stored in the archive.
// A returned error rejects the entry and its message is reported to the caller.
type Normalizer interface {
	Normalize(path string) (string, error)
}

// NoopNormalizer keeps paths as they are.
type NoopNormalizer struct{}

func (NoopNormalizer) Normalize(path string) (string, error) {
	return path, nil
}

// PetroglyphNormalizer produces the upper-case, backslash separated paths
// the Petroglyph games look up.
type PetroglyphNormalizer struct{}

func (PetroglyphNormalizer) Normalize(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	path = strings.ReplaceAll(path, "/", `\`)
	path = cases.Upper(language.Und).String(path)

	segments := make([]string, 0, strings.Count(path, `\`)+1)
	for _, seg := range strings.Split(path, `\`) {
		switch {
		case seg == "" || seg == ".":
			continue
		case seg == "..":
			return "", errors.New("path must not navigate to a parent directory")
		case strings.Contains(seg, ":"):
			return "", fmt.Errorf("path must not be rooted: %s", seg)
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		return "", errors.New("path is empty after normalization")
	}
	return strings.Join(segments, `\`), nil
}
