package meg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// maxPreallocRecords bounds slice preallocation from untrusted counts.
const maxPreallocRecords = 1 << 16

// Codec reads and writes the metadata of one MEG version.
type Codec interface {
	Version() Version
	ReadMetadata(r io.Reader) (*Metadata, error)
	WriteMetadata(w io.Writer, m *Metadata) error
}

// CodecFor returns the codec for version v.
func CodecFor(v Version) (Codec, error) {
	switch v {
	case V1, V2, V3:
		return codec{version: v}, nil
	default:
		return nil, fmt.Errorf("%w: no codec for MEG version %s", ErrInvalidArgument, v)
	}
}

// wire shapes of the version specific records
type (
	headerV1 struct {
		FileNameCount uint32
		FileCount     uint32
	}

	headerV2 struct {
		Flags         uint32
		ID            uint32
		DataStart     uint32
		FileNameCount uint32
		FileCount     uint32
	}

	headerV3 struct {
		Flags         uint32
		ID            uint32
		DataStart     uint32
		FileNameCount uint32
		FileCount     uint32
		NameTableSize uint32
	}

	fileRecordV1 struct {
		Checksum  uint32
		Index     uint32
		Size      uint32
		Offset    uint32
		NameIndex uint32
	}

	fileRecordV3 struct {
		Flags     uint16
		Checksum  uint32
		Index     uint32
		Size      uint32
		Offset    uint32
		NameIndex uint16
	}
)

type codec struct {
	version Version
}

func (c codec) Version() Version {
	return c.version
}

// ReadMetadata parses header, name table and file table sequentially.
// It does not check the checksum order of the file table.
func (c codec) ReadMetadata(r io.Reader) (*Metadata, error) {
	h, err := c.readHeader(r)
	if err != nil {
		return nil, err
	}

	names, err := readNameTable(r, h.FileCount)
	if err != nil {
		return nil, err
	}

	files, err := c.readFileTable(r, h.FileCount)
	if err != nil {
		return nil, err
	}

	return &Metadata{
		Version: c.version,
		Header:  h,
		Names:   names,
		Files:   files,
	}, nil
}

func (c codec) readHeader(r io.Reader) (Header, error) {
	var h Header

	switch c.version {
	case V1:
		var raw headerV1
		if err := readLE(r, &raw, "header"); err != nil {
			return h, err
		}
		h.FileNameCount, h.FileCount = raw.FileNameCount, raw.FileCount
	case V2:
		var raw headerV2
		if err := readLE(r, &raw, "header"); err != nil {
			return h, err
		}
		h = Header{
			Flags:         raw.Flags,
			ID:            raw.ID,
			DataStart:     raw.DataStart,
			FileNameCount: raw.FileNameCount,
			FileCount:     raw.FileCount,
		}
	case V3:
		var raw headerV3
		if err := readLE(r, &raw, "header"); err != nil {
			return h, err
		}
		h = Header(raw)
	}

	if c.version != V1 {
		if h.ID != Magic {
			return h, Corrupted("invalid MEG magic: expected 0x%08X, got 0x%08X", Magic, h.ID)
		}
		if h.Flags == FlagsEncrypted {
			return h, fmt.Errorf("encrypted %s archive: %w", c.version, ErrUnsupported)
		}
		if h.Flags != FlagsUnencrypted {
			return h, Corrupted("invalid header flags 0x%08X", h.Flags)
		}
	}

	if h.FileCount != h.FileNameCount {
		return h, Corrupted("file count %d does not match file name count %d", h.FileCount, h.FileNameCount)
	}
	if h.FileCount > math.MaxInt32 {
		return h, Corrupted("file count %d exceeds the addressable range", h.FileCount)
	}

	return h, nil
}

// readNameTable reads count names verbatim. No legality filtering happens
// here so archives from non-conformant tools stay readable.
func readNameTable(r io.Reader, count uint32) (NameTable, error) {
	names := make(NameTable, 0, min(count, maxPreallocRecords))
	for i := uint32(0); i < count; i++ {
		var length uint16
		if err := readLE(r, &length, fmt.Sprintf("name length %d", i)); err != nil {
			return nil, err
		}

		raw := make([]byte, length)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, streamError(err, fmt.Sprintf("name %d", i))
		}

		names = append(names, NameTableRecord{Name: DecodeName(raw), Raw: raw})
	}
	return names, nil
}

func (c codec) readFileTable(r io.Reader, count uint32) (FileTable, error) {
	files := make(FileTable, 0, min(count, maxPreallocRecords))
	for i := uint32(0); i < count; i++ {
		what := fmt.Sprintf("file record %d", i)

		if c.version == V3 {
			var raw fileRecordV3
			if err := readLE(r, &raw, what); err != nil {
				return nil, err
			}
			if raw.Flags&1 != 0 {
				return nil, fmt.Errorf("encrypted %s: %w", what, ErrUnsupported)
			}
			files = append(files, FileTableRecord{
				Flags:     raw.Flags,
				Checksum:  raw.Checksum,
				Index:     raw.Index,
				Size:      raw.Size,
				Offset:    raw.Offset,
				NameIndex: uint32(raw.NameIndex),
			})
			continue
		}

		var raw fileRecordV1
		if err := readLE(r, &raw, what); err != nil {
			return nil, err
		}
		files = append(files, FileTableRecord{
			Checksum:  raw.Checksum,
			Index:     raw.Index,
			Size:      raw.Size,
			Offset:    raw.Offset,
			NameIndex: raw.NameIndex,
		})
	}
	return files, nil
}

// WriteMetadata serializes m in the wire layout of the codec's version.
func (c codec) WriteMetadata(w io.Writer, m *Metadata) error {
	if m == nil {
		return fmt.Errorf("%w: nil metadata", ErrInvalidArgument)
	}
	if m.Version != c.version {
		return fmt.Errorf("%w: %s metadata given to %s codec", ErrInvalidArgument, m.Version, c.version)
	}
	if m.Header.FileCount != m.Header.FileNameCount ||
		int(m.Header.FileCount) != len(m.Files) || len(m.Names) != len(m.Files) {
		return fmt.Errorf("%w: inconsistent table sizes", ErrInvalidArgument)
	}

	if err := c.writeHeader(w, m.Header); err != nil {
		return err
	}

	for i, name := range m.Names {
		if len(name.Raw) > MaxNameLength {
			return fmt.Errorf("%w: name %d is %d bytes", ErrOverflow, i, len(name.Raw))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(name.Raw))); err != nil {
			return fmt.Errorf("failed to write name length %d: %w", i, err)
		}
		if _, err := w.Write(name.Raw); err != nil {
			return fmt.Errorf("failed to write name %d: %w", i, err)
		}
	}

	for i, rec := range m.Files {
		if err := c.writeFileRecord(w, rec); err != nil {
			return fmt.Errorf("failed to write file record %d: %w", i, err)
		}
	}

	return nil
}

func (c codec) writeHeader(w io.Writer, h Header) error {
	var raw any
	switch c.version {
	case V1:
		raw = headerV1{FileNameCount: h.FileNameCount, FileCount: h.FileCount}
	case V2:
		raw = headerV2{
			Flags:         h.Flags,
			ID:            h.ID,
			DataStart:     h.DataStart,
			FileNameCount: h.FileNameCount,
			FileCount:     h.FileCount,
		}
	case V3:
		raw = headerV3(h)
	}

	if err := binary.Write(w, binary.LittleEndian, raw); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

func (c codec) writeFileRecord(w io.Writer, rec FileTableRecord) error {
	if c.version == V3 {
		if rec.NameIndex > math.MaxUint16 {
			return fmt.Errorf("%w: name index %d", ErrOverflow, rec.NameIndex)
		}
		return binary.Write(w, binary.LittleEndian, fileRecordV3{
			Flags:     rec.Flags,
			Checksum:  rec.Checksum,
			Index:     rec.Index,
			Size:      rec.Size,
			Offset:    rec.Offset,
			NameIndex: uint16(rec.NameIndex),
		})
	}

	return binary.Write(w, binary.LittleEndian, fileRecordV1{
		Checksum:  rec.Checksum,
		Index:     rec.Index,
		Size:      rec.Size,
		Offset:    rec.Offset,
		NameIndex: rec.NameIndex,
	})
}

// readLE reads a little-endian value, turning a short read into ErrCorruptedFormat.
func readLE(r io.Reader, data any, what string) error {
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return streamError(err, what)
	}
	return nil
}

// streamError maps end of stream to ErrCorruptedFormat and passes every other error through.
func streamError(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Corrupted("unexpected end of stream reading %s", what)
	}
	return fmt.Errorf("failed to read %s: %w", what, err)
}
