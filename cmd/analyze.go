package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/fetcher"
	"github.com/sells-group/risk-inventory/internal/scoring"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a questionnaire response table",
	Long: "Reads a CSV or XLSX export of questionnaire answers (local path or http(s) URL), " +
		"scores it against a catalog instrument and prints the analysis result.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		id, _ := cmd.Flags().GetString("instrument")
		file, _ := cmd.Flags().GetString("file")
		name, _ := cmd.Flags().GetString("name")

		in, err := catalog.Lookup(id)
		if err != nil {
			return err
		}

		set, err := fetcher.ReadTable(ctx, file, tableOptions(cmd))
		if err != nil {
			return err
		}

		strict := cfg.Scoring.Strict
		if cmd.Flags().Changed("strict") {
			strict, _ = cmd.Flags().GetBool("strict")
		}
		if name == "" {
			name = baseName(file)
		}

		res, v, err := scoring.NewProcessor(in, scoring.WithStrict(strict)).Process(set, name)
		reportValidation(os.Stderr, v)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}
		if res == nil {
			return eris.New("analyze: validation failed")
		}

		zap.L().Info("questionnaire scored",
			zap.String("instrument", in.ID),
			zap.Int("rows", len(set.Rows)),
			zap.String("risk_level", string(res.Level())),
		)
		return finish(cmd, res)
	},
}

// tableOptions builds reader options from the shared table flags.
func tableOptions(cmd *cobra.Command) fetcher.TableOptions {
	sheet, _ := cmd.Flags().GetString("sheet")
	enc, _ := cmd.Flags().GetString("encoding")
	return fetcher.TableOptions{
		CSV:     fetcher.CSVOptions{Encoding: enc, TrimSpace: true, LazyQuotes: true},
		XLSX:    fetcher.XLSXOptions{SheetName: sheet},
		Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}),
	}
}

func addTableFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "response table (.csv, .tsv, .txt or .xlsx; path or URL)")
	cmd.Flags().String("sheet", "", "XLSX sheet name (default: first sheet)")
	cmd.Flags().String("encoding", "", "CSV text encoding: utf-8, latin1 or windows-1252")
	_ = cmd.MarkFlagRequired("file")
}

func baseName(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func init() {
	analyzeCmd.Flags().String("instrument", "", "instrument ID (copsoq3, copsoq2, cbi, duwas)")
	analyzeCmd.Flags().String("name", "", "analysis name (default: file name)")
	analyzeCmd.Flags().Bool("strict", false, "classify by the worst dimension instead of the mean")
	_ = analyzeCmd.MarkFlagRequired("instrument")
	addTableFlags(analyzeCmd)
	addSaveFlag(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}
