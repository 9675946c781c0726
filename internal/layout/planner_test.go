package layout

import (
	"math"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/megkit/internal/meg"
)

func size(n uint32) *uint32 {
	return &n
}

func local(path string, n *uint32) meg.EntryInfo {
	return meg.EntryInfo{Path: path, Size: n, Origin: meg.LocalFile{Path: path}}
}

func TestPlanner_Offsets(t *testing.T) {
	tests := []struct {
		name         string
		version      meg.Version
		wantMetadata uint32
	}{
		{name: "V1", version: meg.V1, wantMetadata: 8 + (2 + 5) + (2 + 6) + 2*20},
		{name: "V2", version: meg.V2, wantMetadata: 20 + (2 + 5) + (2 + 6) + 2*20},
		{name: "V3", version: meg.V3, wantMetadata: 24 + (2 + 5) + (2 + 6) + 2*20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlanner(afero.NewMemMapFs(), tt.version)

			staged, err := p.Plan([]meg.EntryInfo{
				local("B.TXT", size(10)),
				local("AA.TXT", size(3)),
			}, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.version, staged.Version)
			assert.False(t, staged.Encrypted)
			assert.Equal(t, tt.wantMetadata, staged.MetadataSize)
			require.Len(t, staged.Entries, 2)

			first, second := staged.Entries[0].Entry, staged.Entries[1].Entry
			assert.Equal(t, "B.TXT", first.Path)
			assert.Equal(t, tt.wantMetadata, first.Offset)
			assert.Equal(t, uint32(10), first.Size)
			assert.Equal(t, meg.PathChecksum("B.TXT"), first.Checksum)

			assert.Equal(t, "AA.TXT", second.Path)
			assert.Equal(t, tt.wantMetadata+10, second.Offset)
			assert.Equal(t, uint32(3), second.Size)
		})
	}
}

func TestPlanner_MetadataSizeMatchesCodec(t *testing.T) {
	for _, v := range []meg.Version{meg.V1, meg.V2, meg.V3} {
		t.Run(v.String(), func(t *testing.T) {
			staged, err := NewPlanner(afero.NewMemMapFs(), v).Plan([]meg.EntryInfo{
				local("DATA\\ART\\MODELS\\X.ALO", size(1)),
				local("DATA\\XML\\GAMEOBJECTFILES.XML", size(2)),
			}, nil)
			require.NoError(t, err)

			m, err := meg.NewMetadata(v, false, staged.DataEntries())
			require.NoError(t, err)
			assert.Equal(t, m.Size(), int(staged.MetadataSize))
		})
	}
}

func TestPlanner_ProbesLocalFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a.txt", []byte("hello world"), 0o644))

	staged, err := NewPlanner(fs, meg.V1).Plan([]meg.EntryInfo{
		{Path: "A.TXT", Origin: meg.LocalFile{Path: "/src/a.txt"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(11), staged.Entries[0].Entry.Size)
}

func TestPlanner_Errors(t *testing.T) {
	archived := meg.ArchiveEntry{
		File:  &meg.File{Path: "/x.meg", Version: meg.V1, Archive: meg.NewArchive(nil)},
		Entry: meg.DataEntry{Path: "A"},
	}

	tests := []struct {
		name    string
		version meg.Version
		entries []meg.EntryInfo
		wantErr error
	}{
		{
			name:    "unknown version",
			version: meg.VersionUnknown,
			wantErr: meg.ErrInvalidArgument,
		},
		{
			name:    "missing origin",
			version: meg.V1,
			entries: []meg.EntryInfo{{Path: "A", Size: size(1)}},
			wantErr: meg.ErrInvalidArgument,
		},
		{
			name:    "unknown size from archive origin",
			version: meg.V1,
			entries: []meg.EntryInfo{{Path: "A", Origin: archived}},
			wantErr: meg.ErrInvalidOperation,
		},
		{
			name:    "name too long",
			version: meg.V2,
			entries: []meg.EntryInfo{local(string(make([]byte, meg.MaxNameLength+1)), size(1))},
			wantErr: meg.ErrOverflow,
		},
		{
			name:    "archive beyond 4 GiB",
			version: meg.V1,
			entries: []meg.EntryInfo{
				local("A", size(math.MaxUint32-100)),
				local("B", size(200)),
			},
			wantErr: meg.ErrOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlanner(afero.NewMemMapFs(), tt.version).Plan(tt.entries, nil)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlanner_MissingLocalFile(t *testing.T) {
	_, err := NewPlanner(afero.NewMemMapFs(), meg.V1).Plan([]meg.EntryInfo{
		{Path: "A", Origin: meg.LocalFile{Path: "/does/not/exist"}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to probe size")
}

func TestPlanner_EncryptionFlag(t *testing.T) {
	p := NewPlanner(afero.NewMemMapFs(), meg.V3)

	staged, err := p.Plan([]meg.EntryInfo{
		{Path: "A", Size: size(1), Encrypted: true, Origin: meg.LocalFile{Path: "a"}},
	}, nil)
	require.NoError(t, err)
	assert.True(t, staged.Encrypted)
	assert.Equal(t, uint32(24+3+32), staged.MetadataSize)

	staged, err = p.Plan(nil, &meg.EncryptionData{})
	require.NoError(t, err)
	assert.True(t, staged.Encrypted)
	assert.Empty(t, staged.Entries)
}

func TestPlanner_CustomChecksum(t *testing.T) {
	p := NewPlanner(afero.NewMemMapFs(), meg.V1, WithChecksum(func([]byte) uint32 { return 7 }))

	staged, err := p.Plan([]meg.EntryInfo{local("A", size(0))}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), staged.Entries[0].Entry.Checksum)
}

type largeFileInfo struct {
	os.FileInfo
}

func (largeFileInfo) Size() int64 { return 1 << 32 }

// largeFs reports every file as one byte past 4 GiB.
type largeFs struct {
	afero.Fs
}

func (fs largeFs) Stat(name string) (os.FileInfo, error) {
	info, err := fs.Fs.Stat(name)
	if err != nil {
		return nil, err
	}
	return largeFileInfo{info}, nil
}

func TestPlanner_ProbedFileTooLarge(t *testing.T) {
	fsys := largeFs{afero.NewMemMapFs()}
	require.NoError(t, afero.WriteFile(fsys, "/big", []byte("x"), 0o644))

	_, err := NewPlanner(fsys, meg.V1).Plan([]meg.EntryInfo{
		{Path: "BIG", Origin: meg.LocalFile{Path: "/big"}},
	}, nil)
	require.ErrorIs(t, err, meg.ErrOverflow)
}
