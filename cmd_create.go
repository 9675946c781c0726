package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ossyrian/megkit/internal/builder"
	"github.com/ossyrian/megkit/internal/meg"
)

var createCmd = &cobra.Command{
	Use:   "create <paths...>",
	Short: "Create an archive from files and directories",
	Args:  cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		err := bindFlags(cmd.Flags(), map[string]string{
			"output":               "output",
			"base-dir":             "base_dir",
			"meg-version":          "meg_version",
			"game":                 "game",
			"overwrite-duplicates": "overwrite_duplicates",
			"overwrite":            "overwrite_output",
		})
		if err != nil {
			return err
		}
		return setup()
	},
	RunE: create,
}

func init() {
	createCmd.Flags().StringP("output", "o", "", "path of the .meg file to create (required)")
	createCmd.Flags().String("base-dir", "", "directory entry paths are relative to (default: each input directory)")
	createCmd.Flags().String("meg-version", "v1", "MEG format version (v1, v2, v3)")
	createCmd.Flags().String("game", "generic", "path rules to apply (generic, eaw, foc)")
	createCmd.Flags().Bool("overwrite-duplicates", false, "let later files replace earlier ones with the same archive path")
	createCmd.Flags().Bool("overwrite", false, "replace the output file if it exists")
	createCmd.MarkFlagRequired("output")
}

func create(cmd *cobra.Command, args []string) error {
	svc := newService()
	fs := svc.FS()

	opts, err := builder.ForGame(cfg.Game)
	if err != nil {
		return err
	}
	opts = append(opts,
		builder.WithOverwriteDuplicates(cfg.OverwriteDuplicates),
		builder.WithFileSizes(true),
		builder.WithLogger(slog.Default()),
	)

	b := builder.New(svc, opts...)
	defer b.Close()

	var results []builder.AddResult
	for _, input := range args {
		info, err := fs.Stat(input)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", input, err)
		}

		base := cfg.BaseDir
		if base == "" {
			base = input
			if !info.IsDir() {
				base = filepath.Dir(input)
			}
		}

		err = afero.Walk(fs, input, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(base, path)
			if err != nil {
				return fmt.Errorf("failed to make %s relative to %s: %w", path, base, err)
			}

			res, err := b.AddFile(path, rel, false)
			if err != nil {
				return err
			}
			logAddResult(path, res)
			results = append(results, res)
			return nil
		})
		if err != nil {
			return err
		}
	}

	rejected := lo.CountBy(results, func(r builder.AddResult) bool { return !r.Added() })
	slog.Info("staged entries",
		"file_count", b.Len(),
		"rejected", rejected,
	)

	if cfg.DryRun {
		slog.Info("dry run, not writing archive", "output", cfg.OutputPath)
		return nil
	}

	return b.Build(&meg.FileInfo{Path: cfg.OutputPath, Version: cfg.MegVersion}, cfg.OverwriteOutput)
}

func logAddResult(source string, res builder.AddResult) {
	switch res.Status {
	case builder.StatusAdded:
		slog.Debug("added file", "source", source, "path", res.Entry.Path)
	case builder.StatusOverwritten:
		slog.Info("replaced duplicate", "source", source, "path", res.Entry.Path)
	default:
		slog.Warn("skipped file",
			"source", source,
			"status", res.Status.String(),
			"reason", res.Message,
		)
	}
}
