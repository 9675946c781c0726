package meg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ossyrian/megkit/internal/meg"
)

func TestEncodePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"DATA\\XML\\UNITS.XML", "DATA\\XML\\UNITS.XML"},
		{"fileÖ", "file?"},
		{"fileÄ", "file?"},
		{"日本", "??"},
		{"a\xffb", "a?b"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, meg.EncodePath(tt.input), "EncodePath(%q)", tt.input)
		assert.True(t, meg.IsEncoded(meg.EncodePath(tt.input)))
	}

	assert.False(t, meg.IsEncoded("fileÖ"))
}

func TestDecodeName(t *testing.T) {
	assert.Equal(t, "ABC", meg.DecodeName([]byte("ABC")))
	assert.Equal(t, "??", meg.DecodeName([]byte{0xC3, 0x96}))
	assert.Equal(t, "", meg.DecodeName(nil))
}

func TestParseVersion(t *testing.T) {
	for input, want := range map[string]meg.Version{"v1": meg.V1, "V2": meg.V2, " 3 ": meg.V3} {
		got, err := meg.ParseVersion(input)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := meg.ParseVersion("v4")
	assert.Error(t, err)
}

func TestVersion_Sizes(t *testing.T) {
	assert.Equal(t, 8, meg.V1.HeaderSize())
	assert.Equal(t, 20, meg.V2.HeaderSize())
	assert.Equal(t, 24, meg.V3.HeaderSize())
	assert.Equal(t, 32, meg.V3.FileRecordSize(true))
	assert.Equal(t, 20, meg.V1.FileRecordSize(true))
	assert.Panics(t, func() { meg.VersionUnknown.HeaderSize() })
}
