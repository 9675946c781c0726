package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ossyrian/megkit/internal/meg"
	"github.com/ossyrian/megkit/internal/service"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Copy the entries of an archive to a directory",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		err := bindFlags(cmd.Flags(), map[string]string{
			"input":  "input",
			"output": "output",
		})
		if err != nil {
			return err
		}
		return setup()
	},
	RunE: extract,
}

func init() {
	extractCmd.Flags().StringP("input", "i", "", "path to .meg file to extract (required)")
	extractCmd.Flags().StringP("output", "o", "", "directory to extract to (required)")
	extractCmd.MarkFlagRequired("input")
	extractCmd.MarkFlagRequired("output")
}

func extract(cmd *cobra.Command, args []string) error {
	svc := newService()

	file, err := svc.Load(cfg.InputFile)
	if err != nil {
		return err
	}

	// later duplicates overwrite earlier ones, matching how the games resolve them
	var extracted int
	for _, e := range file.Archive.Entries() {
		target, ok := entryTarget(cfg.OutputPath, e.Path)
		if !ok {
			slog.Warn("skipping entry outside of output directory", "path", e.Path)
			continue
		}

		if cfg.DryRun {
			slog.Info("would extract entry", "path", e.Path, "target", target, "size", e.Size)
			continue
		}

		if err := extractEntry(svc, file, e, target); err != nil {
			return err
		}
		slog.Debug("extracted entry", "path", e.Path, "target", target, "size", e.Size)
		extracted++
	}

	slog.Info("extracted archive",
		"input", cfg.InputFile,
		"output", cfg.OutputPath,
		"file_count", extracted,
	)
	return nil
}

// entryTarget maps an archive path onto dir. Paths that would escape dir are rejected.
func entryTarget(dir, entryPath string) (string, bool) {
	rel := filepath.FromSlash(strings.ReplaceAll(entryPath, `\`, "/"))
	if !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.Join(dir, rel), true
}

func extractEntry(svc *service.Service, file *meg.File, e meg.DataEntry, target string) error {
	fs := svc.FS()

	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}

	src, err := svc.OpenEntry(file, e)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := fs.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to extract %s: %w", e.Path, err)
	}
	return closeFile(dst)
}

func closeFile(f afero.File) error {
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", f.Name(), err)
	}
	return nil
}
