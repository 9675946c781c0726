package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/megkit/internal/meg"
)

func TestPetroglyphNormalizer(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "already normalized", input: `DATA\XML\A.XML`, want: `DATA\XML\A.XML`},
		{name: "lower case with slashes", input: "data/xml/a.xml", want: `DATA\XML\A.XML`},
		{name: "leading separators", input: `\\data\a.xml`, want: `DATA\A.XML`},
		{name: "dot segments", input: `.\data\.\a.xml`, want: `DATA\A.XML`},
		{name: "trailing separator", input: "data/", want: "DATA"},
		{name: "null bytes", input: "a\x00b", want: "AB"},
		{name: "non-ASCII is kept", input: "fileö", want: "FILEÖ"},
		{name: "parent segment", input: "data/../a", wantErr: true},
		{name: "drive letter", input: `C:\data\a`, wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "only separators", input: `\.\`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PetroglyphNormalizer{}.Normalize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPetroglyphEntryValidator(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		encrypted bool
		wantErr   string
	}{
		{name: "valid", path: `DATA\XML\A.XML`},
		{name: "placeholder is allowed", path: `FILE?`},
		{name: "empty", path: "", wantErr: "empty"},
		{name: "too long", path: strings.Repeat("A", MaxPetroglyphPathLength+1), wantErr: "longer than"},
		{name: "non-ASCII", path: "FILEÖ", wantErr: "non-ASCII"},
		{name: "control character", path: "A\tB", wantErr: "control character"},
		{name: "forward slash", path: "DATA/A", wantErr: "illegal character"},
		{name: "colon", path: "A:B", wantErr: "illegal character"},
		{name: "trailing separator", path: `DATA\`, wantErr: "ends with a separator"},
		{name: "lower case", path: `data\a`, wantErr: "not upper case"},
		{name: "encrypted", path: "A", encrypted: true, wantErr: "encrypted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PetroglyphEntryValidator{}.Validate(tt.path, tt.encrypted, nil)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, meg.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFileInfoValidators(t *testing.T) {
	plain := []meg.EntryInfo{{Path: "A"}}
	encrypted := []meg.EntryInfo{{Path: "A", Encrypted: true}}
	key := &meg.EncryptionData{}

	tests := []struct {
		name       string
		validator  FileInfoValidator
		info       meg.FileInfo
		entries    []meg.EntryInfo
		wantReject bool
	}{
		{name: "default V2", validator: DefaultFileInfoValidator{}, info: meg.FileInfo{Path: "a.meg", Version: meg.V2}, entries: plain},
		{name: "default encrypted V3", validator: DefaultFileInfoValidator{}, info: meg.FileInfo{Path: "a.meg", Version: meg.V3, Encryption: key}, entries: encrypted},
		{name: "default encrypted V2", validator: DefaultFileInfoValidator{}, info: meg.FileInfo{Path: "a.meg", Version: meg.V2, Encryption: key}, wantReject: true},
		{name: "default encrypted entry in plain archive", validator: DefaultFileInfoValidator{}, info: meg.FileInfo{Path: "a.meg", Version: meg.V3}, entries: encrypted, wantReject: true},
		{name: "default unknown version", validator: DefaultFileInfoValidator{}, info: meg.FileInfo{Path: "a.meg"}, wantReject: true},
		{name: "default empty path", validator: DefaultFileInfoValidator{}, info: meg.FileInfo{Version: meg.V1}, wantReject: true},
		{name: "petroglyph V1", validator: PetroglyphFileInfoValidator{}, info: meg.FileInfo{Path: "CONFIG.MEG", Version: meg.V1}, entries: plain},
		{name: "petroglyph V3", validator: PetroglyphFileInfoValidator{}, info: meg.FileInfo{Path: "a.meg", Version: meg.V3}, wantReject: true},
		{name: "petroglyph extension", validator: PetroglyphFileInfoValidator{}, info: meg.FileInfo{Path: "a.zip", Version: meg.V1}, wantReject: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator.Validate(tt.info, tt.entries)
			if tt.wantReject {
				require.ErrorIs(t, err, meg.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestForGame(t *testing.T) {
	for _, game := range []string{"eaw", "FOC", "generic"} {
		opts, err := ForGame(game)
		require.NoError(t, err, game)
		assert.NotEmpty(t, opts)
	}

	_, err := ForGame("halo")
	require.Error(t, err)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "duplicate entry", StatusDuplicateEntry.String())
	assert.Equal(t, "unknown", Status(42).String())
}
