package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/risk-inventory/internal/model"
	"github.com/sells-group/risk-inventory/internal/store"
)

// writeOutput renders v to --output (or stdout) in the --format encoding.
func writeOutput(v any) error {
	if outputPath == "" {
		return encode(os.Stdout, outputFormat, v)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrapf(err, "output: create %s", outputPath)
	}
	if err := encode(f, outputFormat, v); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "output: close")
}

func encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "output: encode json")
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "output: encode yaml")
		}
		return eris.Wrap(enc.Close(), "output: encode yaml")
	default:
		return eris.Errorf("output: unsupported format %q", format)
	}
}

// reportValidation prints validation messages, one per line.
func reportValidation(w io.Writer, v model.ValidationResult) {
	for _, e := range v.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	for _, m := range v.Warnings {
		fmt.Fprintf(w, "warning: %s\n", m)
	}
	for _, s := range v.Suggestions {
		fmt.Fprintf(w, "suggestion: %s\n", s)
	}
}

func openStore(ctx context.Context) (store.ResultStore, error) {
	return store.Open(ctx, cfg.Store)
}

func addSaveFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("save", false, "persist the result in the configured store")
}

// finish optionally saves res and then writes it out.
func finish(cmd *cobra.Command, res *model.AnalysisResult) error {
	if save, _ := cmd.Flags().GetBool("save"); save {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Save(ctx, res); err != nil {
			return eris.Wrap(err, "save result")
		}
		zap.L().Info("result saved",
			zap.String("id", res.ID),
			zap.String("type", string(res.Type)),
		)
	}
	return writeOutput(res)
}

func formatResultsList(w io.Writer, results []model.AnalysisResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tRISK\tCREATED")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Type,
			r.Name,
			r.Level(),
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush() //nolint:errcheck
}
