package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <files...>",
	Short: "Print the MEG version of archives",
	Args:  cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	RunE: identify,
}

func identify(cmd *cobra.Command, args []string) error {
	svc := newService()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	var failed int
	for _, path := range args {
		version, encrypted, err := svc.IdentifyVersion(path)
		if err != nil {
			slog.Error("could not identify archive", "path", path, "error", err)
			failed++
			continue
		}
		fmt.Fprintf(w, "%s\t%s\tencrypted=%t\n", path, version, encrypted)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be identified", failed, len(args))
	}
	return nil
}
