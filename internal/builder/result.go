package builder

import "github.com/ossyrian/megkit/internal/meg"

// Status is the outcome of adding an entry.
type Status int

const (
	StatusAdded Status = iota
	StatusOverwritten
	StatusDuplicateEntry
	StatusFileOrEntryNotFound
	StatusFailedNormalization
	StatusInvalidEntry
)

func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusOverwritten:
		return "overwritten"
	case StatusDuplicateEntry:
		return "duplicate entry"
	case StatusFileOrEntryNotFound:
		return "file or entry not found"
	case StatusFailedNormalization:
		return "failed normalization"
	case StatusInvalidEntry:
		return "invalid entry"
	default:
		return "unknown"
	}
}

// AddResult reports what happened to an added entry. Rejections are
// reported here rather than as errors so a batch of adds can continue.
type AddResult struct {
	Status Status

	// Entry is the staged entry. For a duplicate it is the entry already staged.
	Entry *meg.EntryInfo

	// Overwritten is the entry replaced by Entry.
	Overwritten *meg.EntryInfo

	Message string
}

// Added reports whether the entry is now staged.
func (r AddResult) Added() bool {
	return r.Status == StatusAdded || r.Status == StatusOverwritten
}

func rejected(status Status, message string) AddResult {
	return AddResult{Status: status, Message: message}
}
