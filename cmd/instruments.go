package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/risk-inventory/internal/catalog"
)

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List the questionnaire instruments in the catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		all := catalog.All()
		infos := make([]catalog.Info, len(all))
		for i, in := range all {
			infos[i] = in.Info()
		}
		if cmd.Flags().Changed("format") || outputPath != "" {
			return writeOutput(infos)
		}
		formatInstruments(os.Stdout, infos)
		return nil
	},
}

func formatInstruments(w io.Writer, infos []catalog.Info) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tITEMS\tDIMENSIONS\tSCALE")
	for _, in := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			in.ID, in.Name, in.Type, in.Items, len(in.Dimensions), in.Scale)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	rootCmd.AddCommand(instrumentsCmd)
}
