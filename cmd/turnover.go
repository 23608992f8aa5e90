package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/risk-inventory/internal/turnover"
)

var turnoverCmd = &cobra.Command{
	Use:   "turnover",
	Short: "Compute turnover rate and its financial impact",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := cmd.Flags()
		name, _ := f.GetString("name")
		in := turnover.Input{Costs: cfg.Costs}
		in.StartHeadcount, _ = f.GetInt("start-headcount")
		in.EndHeadcount, _ = f.GetInt("end-headcount")
		in.Hires, _ = f.GetInt("hires")
		in.Separations, _ = f.GetInt("separations")
		in.PeriodMonths, _ = f.GetInt("months")
		in.Sector, _ = f.GetString("sector")

		for flag, dst := range map[string]*float64{
			"separation-cost":   &in.Costs.Separation,
			"hiring-cost":       &in.Costs.Hiring,
			"productivity-cost": &in.Costs.Productivity,
			"annual-salary":     &in.Costs.AnnualSalary,
		} {
			if f.Changed(flag) {
				*dst, _ = f.GetFloat64(flag)
			}
		}

		c := turnover.NewCalculator(cfg.Benchmarks.Turnover)
		res, v, err := c.Process(in, name)
		reportValidation(os.Stderr, v)
		if err != nil {
			return eris.Wrap(err, "turnover")
		}

		zap.L().Info("turnover computed",
			zap.Float64("annual_rate", res.Data["annual_rate"]),
			zap.Float64("financial_impact", res.Data["financial_impact"]),
			zap.String("risk_level", string(res.Level())),
		)
		return finish(cmd, res)
	},
}

func init() {
	f := turnoverCmd.Flags()
	f.String("name", "turnover", "analysis name")
	f.Int("start-headcount", 0, "headcount at the start of the period")
	f.Int("end-headcount", 0, "headcount at the end of the period")
	f.Int("hires", 0, "hires during the period")
	f.Int("separations", 0, "separations during the period")
	f.Int("months", 12, "period length in months")
	f.String("sector", "", "sector used to pick the benchmark")
	f.Float64("separation-cost", 0, "cost per separation (default from config)")
	f.Float64("hiring-cost", 0, "cost per hire (default from config)")
	f.Float64("productivity-cost", 0, "productivity loss per replacement (default from config)")
	f.Float64("annual-salary", 0, "average annual salary per head (default from config)")
	_ = turnoverCmd.MarkFlagRequired("start-headcount")
	_ = turnoverCmd.MarkFlagRequired("end-headcount")
	addSaveFlag(turnoverCmd)
	rootCmd.AddCommand(turnoverCmd)
}
