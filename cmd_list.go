package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the entries of an archive",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags(), map[string]string{"input": "input"}); err != nil {
			return err
		}
		return setup()
	},
	RunE: list,
}

func init() {
	listCmd.Flags().StringP("input", "i", "", "path to .meg file to list (required)")
	listCmd.MarkFlagRequired("input")
}

func list(cmd *cobra.Command, args []string) error {
	file, err := newService().Load(cfg.InputFile)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "CHECKSUM\tOFFSET\tSIZE\t PATH\n")
	for _, e := range file.Archive.Entries() {
		fmt.Fprintf(w, "%08X\t%d\t%d\t %s\n", e.Checksum, e.Offset, e.Size, e.Path)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s, %d entries\n", file.Version, file.Archive.Len())
	return nil
}
