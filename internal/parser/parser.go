package parser

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/ossyrian/megkit/internal/meg"
)

// MegReader reads information from MEG archives.
type MegReader struct {
	file   io.ReadSeeker
	logger *slog.Logger
}

// NewReader creates a reader over file. A nil logger discards all output.
func NewReader(file io.ReadSeeker, logger *slog.Logger) *MegReader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MegReader{file: file, logger: logger}
}

// Size returns the total size of the underlying stream.
// The read position is restored afterwards.
func (r *MegReader) Size() (size int64, err error) {
	pos, err := r.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("failed to get current position: %w", err)
	}
	defer func() {
		if _, seekErr := r.file.Seek(pos, io.SeekStart); seekErr != nil && err == nil {
			err = fmt.Errorf("failed to seek back to position %d: %w", pos, seekErr)
		}
	}()

	size, err = r.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to seek to end: %w", err)
	}
	return size, nil
}

// ReadMetadata reads the metadata of a version v archive from the start of
// the stream. It returns the metadata along with the number of bytes the
// codec consumed.
func (r *MegReader) ReadMetadata(v meg.Version) (*meg.Metadata, int64, error) {
	codec, err := meg.CodecFor(v)
	if err != nil {
		return nil, 0, err
	}

	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("failed to seek to start: %w", err)
	}

	counter := &countingReader{r: bufio.NewReader(r.file)}
	m, err := codec.ReadMetadata(counter)
	if err != nil {
		return nil, counter.n, err
	}

	r.logger.Debug("read metadata",
		"version", v,
		"file_count", m.Header.FileCount,
		"metadata_size", m.Size(),
		"bytes_read", counter.n,
	)

	return m, counter.n, nil
}

// countingReader counts the bytes handed to its consumer, which is not
// the same as the bytes pulled from the buffered source.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
