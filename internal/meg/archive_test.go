package meg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ossyrian/megkit/internal/meg"
)

func TestArchive_Find(t *testing.T) {
	entry := func(path string, offset uint32) meg.DataEntry {
		return meg.DataEntry{Checksum: meg.PathChecksum(path), Path: path, Offset: offset}
	}

	a := entry("A.TXT", 100)
	b := entry("B.TXT", 200)
	dup := entry("B.TXT", 300)

	entries := []meg.DataEntry{a, b, dup}
	if a.Checksum > b.Checksum {
		entries = []meg.DataEntry{b, dup, a}
	}
	archive := meg.NewArchive(entries)

	assert.Equal(t, []meg.DataEntry{b, dup}, archive.Find("B.TXT"))
	assert.Equal(t, []meg.DataEntry{a}, archive.Find("A.TXT"))
	assert.Empty(t, archive.Find("C.TXT"))

	assert.True(t, archive.Contains(dup))
	assert.False(t, archive.Contains(entry("B.TXT", 400)))
	assert.Equal(t, 3, archive.Len())
}

func TestArchive_IsImmutable(t *testing.T) {
	entries := []meg.DataEntry{{Path: "A"}}
	archive := meg.NewArchive(entries)
	entries[0].Path = "B"

	got := archive.Entries()
	got[0].Path = "C"

	assert.Equal(t, "A", archive.At(0).Path)
}
