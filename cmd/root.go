package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/risk-inventory/internal/config"
)

var cfg *config.Config

var (
	outputFormat string
	outputPath   string
)

var rootCmd = &cobra.Command{
	Use:   "risk-inventory",
	Short: "Occupational health risk inventory",
	Long: "Scores psychosocial questionnaires (COPSOQ, CBI, DUWAS), measures absenteeism and turnover, " +
		"and consolidates them into a risk inventory with a probability x severity matrix.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		mode := "cli"
		if cmd.Name() == serveCmd.Name() {
			mode = "serve"
		}
		if err := c.Validate(mode); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "json", "output format: json or yaml")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "write output to a file instead of stdout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
