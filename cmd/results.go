package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/risk-inventory/internal/model"
	"github.com/sells-group/risk-inventory/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored analysis results",
}

// -- results list --

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		typ, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		results, err := st.List(ctx, store.Filter{
			Type:   model.AnalysisType(typ),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return eris.Wrap(err, "results list")
		}

		if cmd.Flags().Changed("format") || outputPath != "" {
			return writeOutput(results)
		}
		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No results found.")
			return nil
		}
		formatResultsList(os.Stdout, results)
		return nil
	},
}

// -- results get --

var resultsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a stored result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := st.Get(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "results get")
		}
		return writeOutput(res)
	},
}

func init() {
	resultsListCmd.Flags().String("type", "", "filter by analysis type (e.g. copsoq_iii, turnover)")
	resultsListCmd.Flags().Int("limit", 50, "max results to show")
	resultsListCmd.Flags().Int("offset", 0, "results to skip")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsGetCmd)
	rootCmd.AddCommand(resultsCmd)
}
