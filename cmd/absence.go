package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/risk-inventory/internal/absence"
	"github.com/sells-group/risk-inventory/internal/fetcher"
)

var absenceCmd = &cobra.Command{
	Use:   "absence",
	Short: "Compute absenteeism rate and Bradford factors",
	Long: "Reads a table of absence spells (subject, first day, last day) and computes the absence rate " +
		"over the window, per-subject Bradford factors and the risk tier against the sector benchmark.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		file, _ := cmd.Flags().GetString("file")
		name, _ := cmd.Flags().GetString("name")
		startRaw, _ := cmd.Flags().GetString("start")
		endRaw, _ := cmd.Flags().GetString("end")
		headcount, _ := cmd.Flags().GetInt("headcount")
		sector, _ := cmd.Flags().GetString("sector")

		start, ok := absence.ParseDate(startRaw)
		if !ok {
			return eris.Errorf("absence: invalid --start %q", startRaw)
		}
		end, ok := absence.ParseDate(endRaw)
		if !ok {
			return eris.Errorf("absence: invalid --end %q", endRaw)
		}
		if end.Before(start) {
			return eris.New("absence: --end is before --start")
		}

		set, err := fetcher.ReadTable(ctx, file, tableOptions(cmd))
		if err != nil {
			return err
		}
		if name == "" {
			name = baseName(file)
		}

		cols := absence.DefaultColumns()
		if v, _ := cmd.Flags().GetString("subject-col"); v != "" {
			cols.Subject = v
		}
		if v, _ := cmd.Flags().GetString("start-col"); v != "" {
			cols.Start = v
		}
		if v, _ := cmd.Flags().GetString("end-col"); v != "" {
			cols.End = v
		}

		e := absence.NewEngine(cfg.Benchmarks.Absence)
		res, v, err := e.ProcessTable(absence.TableInput{
			Set:         set,
			Columns:     cols,
			WindowStart: start,
			WindowEnd:   end,
			Headcount:   headcount,
			Sector:      sector,
		}, name)
		reportValidation(os.Stderr, v)
		if err != nil {
			return eris.Wrap(err, "absence")
		}
		if res == nil {
			return eris.New("absence: validation failed")
		}

		zap.L().Info("absence computed",
			zap.Float64("rate", res.Data["absence_rate"]),
			zap.String("risk_level", string(res.Level())),
		)
		return finish(cmd, res)
	},
}

func init() {
	absenceCmd.Flags().String("name", "", "analysis name (default: file name)")
	absenceCmd.Flags().String("start", "", "window start date (YYYY-MM-DD or DD/MM/YYYY)")
	absenceCmd.Flags().String("end", "", "window end date (YYYY-MM-DD or DD/MM/YYYY)")
	absenceCmd.Flags().Int("headcount", 0, "mean headcount over the window")
	absenceCmd.Flags().String("sector", "", "sector used to pick the benchmark")
	absenceCmd.Flags().String("subject-col", "", "subject column (default employee_id)")
	absenceCmd.Flags().String("start-col", "", "first-day column (default start_date)")
	absenceCmd.Flags().String("end-col", "", "last-day column (default end_date)")
	_ = absenceCmd.MarkFlagRequired("start")
	_ = absenceCmd.MarkFlagRequired("end")
	_ = absenceCmd.MarkFlagRequired("headcount")
	addTableFlags(absenceCmd)
	addSaveFlag(absenceCmd)
	rootCmd.AddCommand(absenceCmd)
}
