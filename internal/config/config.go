package config

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/ossyrian/megkit/internal/meg"
)

// Config holds app configuration
type Config struct {
	InputFile  string `mapstructure:"input"`
	OutputPath string `mapstructure:"output"`

	// BaseDir is the directory archive paths are made relative to when creating archives.
	// Defaults to each input directory, or the parent of an input file.
	BaseDir string `mapstructure:"base_dir"`

	// MegVersion is the format of created archives (v1, v2, v3)
	MegVersion meg.Version `mapstructure:"meg_version"`

	// Game selects path rules for created archives (generic, eaw, foc)
	Game string `mapstructure:"game"`

	OverwriteDuplicates bool `mapstructure:"overwrite_duplicates"`
	OverwriteOutput     bool `mapstructure:"overwrite_output"`

	// Concurrency is the number of archives verified at once
	Concurrency int `mapstructure:"concurrency"`

	DryRun       bool   `mapstructure:"dry_run"`
	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}

// DecodeHook converts config values that need more than a type conversion,
// such as "v2" into meg.V2.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(versionHook)
}

func versionHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeFor[meg.Version]() || from.Kind() != reflect.String {
		return data, nil
	}
	v, err := meg.ParseVersion(data.(string))
	if err != nil {
		return nil, err
	}
	return v, nil
}
