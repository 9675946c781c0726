package main

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/ossyrian/megkit/internal/meg"
	"github.com/ossyrian/megkit/internal/service"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <files...>",
	Short: "Load archives and read back every entry",
	Args:  cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags(), map[string]string{"concurrency": "concurrency"}); err != nil {
			return err
		}
		return setup()
	},
	RunE: verify,
}

func init() {
	verifyCmd.Flags().IntP("concurrency", "j", runtime.NumCPU(), "number of archives verified at once")
}

type verifyResult struct {
	path    string
	version meg.Version
	entries int
	err     error
}

func verify(cmd *cobra.Command, args []string) error {
	svc := newService()

	p := pool.NewWithResults[verifyResult]().WithMaxGoroutines(max(cfg.Concurrency, 1))
	for _, path := range args {
		p.Go(func() verifyResult {
			return verifyArchive(svc, path)
		})
	}
	results := p.Wait()

	for _, r := range results {
		if r.err != nil {
			slog.Error("archive failed verification", "path", r.path, "error", r.err)
			continue
		}
		slog.Info("archive verified", "path", r.path, "version", r.version, "file_count", r.entries)
	}

	failed := lo.CountBy(results, func(r verifyResult) bool { return r.err != nil })
	if failed > 0 {
		return fmt.Errorf("%d of %d archives failed verification", failed, len(results))
	}
	return nil
}

// verifyArchive loads the archive at path and reads every entry to its end.
func verifyArchive(svc *service.Service, path string) verifyResult {
	res := verifyResult{path: path}

	file, err := svc.Load(path)
	if err != nil {
		res.err = err
		return res
	}
	res.version = file.Version

	for _, e := range file.Archive.Entries() {
		if err := readEntry(svc, file, e); err != nil {
			res.err = err
			return res
		}
		res.entries++
	}
	return res
}

func readEntry(svc *service.Service, file *meg.File, e meg.DataEntry) error {
	rc, err := svc.OpenEntry(file, e)
	if err != nil {
		return err
	}
	defer rc.Close()

	n, err := io.Copy(io.Discard, rc)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", e.Path, err)
	}
	if n != int64(e.Size) {
		return meg.Corrupted("entry %s has %d of %d bytes", e.Path, n, e.Size)
	}
	return nil
}
