package config

import (
	"testing"

	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/megkit/internal/meg"
)

func decode(t *testing.T, input map[string]any) (*Config, error) {
	t.Helper()

	cfg := &Config{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       DecodeHook(),
		Result:           cfg,
		WeaklyTypedInput: true,
	})
	require.NoError(t, err)
	return cfg, dec.Decode(input)
}

func TestDecodeHook(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    meg.Version
		wantErr bool
	}{
		{name: "name", input: "v2", want: meg.V2},
		{name: "upper case name", input: "V3", want: meg.V3},
		{name: "number string", input: "1", want: meg.V1},
		{name: "integer", input: 3, want: meg.V3},
		{name: "unknown", input: "v9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := decode(t, map[string]any{"meg_version": tt.input})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.MegVersion)
		})
	}
}

func TestDecodeHook_OtherKeys(t *testing.T) {
	cfg, err := decode(t, map[string]any{
		"input":                "a.meg",
		"game":                 "foc",
		"overwrite_duplicates": "true",
		"concurrency":          "4",
	})
	require.NoError(t, err)

	assert.Equal(t, "a.meg", cfg.InputFile)
	assert.Equal(t, "foc", cfg.Game)
	assert.True(t, cfg.OverwriteDuplicates)
	assert.Equal(t, 4, cfg.Concurrency)
}
