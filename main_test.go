package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/megkit/internal/meg"
	"github.com/ossyrian/megkit/internal/megtest"
	"github.com/ossyrian/megkit/internal/service"
)

func TestEntryTarget(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		want   string
		wantOK bool
	}{
		{name: "backslashes", path: `DATA\XML\A.XML`, want: filepath.Join("out", "DATA", "XML", "A.XML"), wantOK: true},
		{name: "forward slashes", path: "DATA/A.XML", want: filepath.Join("out", "DATA", "A.XML"), wantOK: true},
		{name: "parent", path: `..\A.XML`},
		{name: "absolute", path: `\A.XML`},
		{name: "empty", path: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := entryTarget("out", tt.path)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestVerifyArchive(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc := service.New(fs)

	good := megtest.Archive(t, meg.V2, megtest.Entry{Path: "A", Data: []byte("abc")})
	require.NoError(t, afero.WriteFile(fs, "/good.meg", good, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/bad.meg", []byte{1, 2, 3}, 0o644))

	res := verifyArchive(svc, "/good.meg")
	require.NoError(t, res.err)
	assert.Equal(t, meg.V2, res.version)
	assert.Equal(t, 1, res.entries)

	res = verifyArchive(svc, "/bad.meg")
	require.ErrorIs(t, res.err, meg.ErrCorruptedFormat)
}

func TestExtractEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc := service.New(fs)

	input := megtest.Archive(t, meg.V1, megtest.Entry{Path: `DATA\A.TXT`, Data: []byte("hello")})
	require.NoError(t, afero.WriteFile(fs, "/in.meg", input, 0o644))

	file, err := svc.Load("/in.meg")
	require.NoError(t, err)

	target, ok := entryTarget("/out", file.Archive.At(0).Path)
	require.True(t, ok)
	require.NoError(t, extractEntry(svc, file, file.Archive.At(0), target))

	got, err := afero.ReadFile(fs, "/out/DATA/A.TXT")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}
