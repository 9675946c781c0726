// Package megtest builds MEG archives in memory for tests.
package megtest

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ossyrian/megkit/internal/meg"
)

// Entry is a named payload of a synthetic archive.
type Entry struct {
	Path string
	Data []byte
}

// Archive serializes entries, in the given order, as a complete archive of version v.
func Archive(t testing.TB, v meg.Version, entries ...Entry) []byte {
	t.Helper()

	var metaSize int
	{
		m, err := meg.NewMetadata(v, false, dataEntries(entries, 0))
		require.NoError(t, err)
		metaSize = m.Size()
	}

	m, err := meg.NewMetadata(v, false, dataEntries(entries, uint32(metaSize)))
	require.NoError(t, err)

	codec, err := meg.CodecFor(v)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, codec.WriteMetadata(&buf, m))
	require.Equal(t, metaSize, buf.Len())

	for _, e := range entries {
		buf.Write(e.Data)
	}
	return buf.Bytes()
}

func dataEntries(entries []Entry, start uint32) []meg.DataEntry {
	out := make([]meg.DataEntry, len(entries))
	offset := start
	for i, e := range entries {
		out[i] = meg.DataEntry{
			Checksum: meg.PathChecksum(e.Path),
			Path:     e.Path,
			Offset:   offset,
			Size:     uint32(len(e.Data)),
		}
		offset += uint32(len(e.Data))
	}
	return out
}

// LE encodes values as consecutive little-endian integers.
// Accepted types are uint16 and uint32.
func LE(values ...any) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return buf.Bytes()
}

// Name encodes a length-prefixed name table record.
func Name(name string) []byte {
	return append(LE(uint16(len(name))), name...)
}

// Join concatenates byte slices.
func Join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}
