package parser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ossyrian/megkit/internal/meg"
)

// recordShape selects how a file table record is checked for plausibility.
type recordShape int

const (
	shapeV2 recordShape = iota
	shapeV3
)

func (s recordShape) version() meg.Version {
	if s == shapeV3 {
		return meg.V3
	}
	return meg.V2
}

// errEndOfStream marks a read that ran past the end of the stream.
var errEndOfStream = errors.New("end of stream")

// DetectVersion determines which wire format the archive uses.
// V1 headers carry no magic number and V2/V3 share one, so the decision is
// heuristic: it is based on header arithmetic and on the plausibility of the
// first and last file table records. The stream is rewound to its start
// before returning.
func (r *MegReader) DetectVersion() (version meg.Version, encrypted bool, err error) {
	size, err := r.Size()
	if err != nil {
		return meg.VersionUnknown, false, err
	}
	if size == 0 {
		return meg.VersionUnknown, false, fmt.Errorf("%w: empty stream", meg.ErrInvalidArgument)
	}

	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return meg.VersionUnknown, false, fmt.Errorf("failed to seek to start: %w", err)
	}
	defer func() {
		if _, seekErr := r.file.Seek(0, io.SeekStart); seekErr != nil && err == nil {
			err = fmt.Errorf("failed to seek back to start: %w", seekErr)
		}
	}()

	version, encrypted, err = r.detectVersion()
	if err != nil {
		if errors.Is(err, errEndOfStream) {
			return meg.VersionUnknown, false, meg.Corrupted("unable to identify MEG version: %v", err)
		}
		return meg.VersionUnknown, false, err
	}

	r.logger.Debug("detected MEG version",
		"version", version,
		"encrypted", encrypted,
	)
	return version, encrypted, nil
}

func (r *MegReader) detectVersion() (meg.Version, bool, error) {
	flags, err := r.readUint32("flags")
	if err != nil {
		return meg.VersionUnknown, false, err
	}
	id, err := r.readUint32("id")
	if err != nil {
		return meg.VersionUnknown, false, err
	}

	// a V1 header is fileNameCount followed by fileCount, which must be equal
	if flags == id {
		return meg.V1, false, nil
	}

	if id != meg.Magic {
		return meg.VersionUnknown, false, meg.Corrupted("unknown MEG magic 0x%08X", id)
	}

	switch flags {
	case meg.FlagsEncrypted:
		return meg.V3, true, nil
	case meg.FlagsUnencrypted:
	default:
		return meg.VersionUnknown, false, meg.Corrupted("unknown header flags 0x%08X", flags)
	}

	dataStart, err := r.readUint32("data start")
	if err != nil {
		return meg.VersionUnknown, false, err
	}
	fileNameCount, err := r.readUint32("file name count")
	if err != nil {
		return meg.VersionUnknown, false, err
	}
	fileCount, err := r.readUint32("file count")
	if err != nil {
		return meg.VersionUnknown, false, err
	}
	if fileCount != fileNameCount {
		return meg.VersionUnknown, false, meg.Corrupted("file count %d does not match file name count %d", fileCount, fileNameCount)
	}

	nameTableSize, err := r.readUint32("name table size")
	if errors.Is(err, errEndOfStream) {
		if fileCount == 0 {
			return meg.V2, false, nil
		}
		return meg.VersionUnknown, false, meg.Corrupted("stream ends before the name table of %d entries", fileCount)
	}
	if err != nil {
		return meg.VersionUnknown, false, err
	}

	if fileCount == 0 {
		// V2 tolerates unrelated trailing bytes after an empty header
		if nameTableSize == 0 {
			return meg.V3, false, nil
		}
		return meg.V2, false, nil
	}

	fileTableSize := uint64(fileCount) * meg.FileTableRecordSize
	if fileTableSize > uint64(dataStart) {
		return meg.VersionUnknown, false, meg.Corrupted("data start %d is before a file table of %d entries", dataStart, fileCount)
	}
	fileTableStart := uint64(dataStart) - fileTableSize

	candidate := shapeV2
	if fileTableStart == meg.HeaderSizeV3+uint64(nameTableSize) {
		candidate = shapeV3
	}

	r.logger.Debug("checking file table plausibility",
		"candidate", candidate.version(),
		"file_table_start", fileTableStart,
		"data_start", dataStart,
		"file_count", fileCount,
	)

	ok, err := r.plausibleFileTable(candidate, fileTableStart, uint64(dataStart), fileCount)
	if err != nil {
		return meg.VersionUnknown, false, err
	}
	if ok {
		return candidate.version(), false, nil
	}

	if candidate == shapeV3 {
		ok, err = r.plausibleFileTable(shapeV2, fileTableStart, uint64(dataStart), fileCount)
		if err != nil {
			return meg.VersionUnknown, false, err
		}
		if ok {
			return meg.V2, false, nil
		}
	}

	return meg.VersionUnknown, false, meg.Corrupted("file table at %d is neither a V2 nor a V3 table", fileTableStart)
}

// plausibleFileTable checks the first and, if there is more than one, the last record of the file table.
func (r *MegReader) plausibleFileTable(shape recordShape, start, dataStart uint64, fileCount uint32) (bool, error) {
	ok, err := r.plausibleRecord(shape, start, 0)
	if err != nil || !ok {
		return ok, err
	}
	if fileCount == 1 {
		return true, nil
	}
	return r.plausibleRecord(shape, dataStart-meg.FileTableRecordSize, fileCount-1)
}

// plausibleRecord checks the record at pos. A V3 record starts with a zero
// uint16 flag; both shapes then hold the checksum followed by the record's
// own index.
func (r *MegReader) plausibleRecord(shape recordShape, pos uint64, index uint32) (bool, error) {
	if _, err := r.file.Seek(int64(pos), io.SeekStart); err != nil {
		return false, fmt.Errorf("failed to seek to file record at %d: %w", pos, err)
	}

	if shape == shapeV3 {
		var flag uint16
		if err := r.read(&flag, "record flag"); err != nil {
			return false, ignoreEndOfStream(err)
		}
		if flag != 0 {
			return false, nil
		}
	}

	if _, err := r.readUint32("record checksum"); err != nil {
		return false, ignoreEndOfStream(err)
	}
	got, err := r.readUint32("record index")
	if err != nil {
		return false, ignoreEndOfStream(err)
	}
	return got == index, nil
}

func (r *MegReader) readUint32(what string) (uint32, error) {
	var v uint32
	err := r.read(&v, what)
	return v, err
}

func (r *MegReader) read(data any, what string) error {
	if err := binary.Read(r.file, binary.LittleEndian, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w while reading %s", errEndOfStream, what)
		}
		return fmt.Errorf("failed to read %s: %w", what, err)
	}
	return nil
}

// ignoreEndOfStream treats a record cut off by the end of the stream as implausible.
func ignoreEndOfStream(err error) error {
	if errors.Is(err, errEndOfStream) {
		return nil
	}
	return err
}
