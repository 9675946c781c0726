package meg

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrCorruptedFormat is returned for structurally invalid or ambiguous archive data.
	ErrCorruptedFormat = errors.New("corrupted MEG format")

	// ErrUnsupported is returned whenever encryption is requested.
	ErrUnsupported = fmt.Errorf("meg: %w", errors.ErrUnsupported)

	// ErrFileNotInArchive is returned when an archive entry referenced by a
	// builder entry can no longer be found in its archive.
	ErrFileNotInArchive = errors.New("file not in MEG archive")

	// ErrOverflow is returned when a size or offset does not fit the 32-bit fields of the format.
	ErrOverflow = errors.New("meg: size overflow")

	// ErrInvalidOperation is returned when an operation cannot be performed
	// in the current state, e.g. a byte count mismatch while copying entry data.
	ErrInvalidOperation = errors.New("meg: invalid operation")

	// ErrInvalidArgument is returned for nil or malformed arguments.
	ErrInvalidArgument = errors.New("meg: invalid argument")

	// ErrDisposed is returned by mutating calls on a closed builder.
	ErrDisposed = errors.New("meg: builder is disposed")

	// ErrAlreadyExists is returned when the build target exists and overwriting was not requested.
	ErrAlreadyExists = fmt.Errorf("meg: %w", fs.ErrExist)

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("meg: validation rejected")
)

// ValidationError is a policy decision made by a pluggable validator.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Corrupted returns a new ErrCorruptedFormat error with no inner cause.
func Corrupted(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptedFormat, fmt.Sprintf(format, args...))
}
