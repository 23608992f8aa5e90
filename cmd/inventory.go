package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/risk-inventory/internal/inventory"
	"github.com/sells-group/risk-inventory/internal/model"
	"github.com/sells-group/risk-inventory/internal/store"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Consolidate analyses into a risk inventory",
	Long: "Builds the risk inventory, executive summary and probability x severity matrix from a " +
		"psychosocial analysis plus optional burnout, work-addiction, absence and turnover results. " +
		"Each result is given as a stored result ID or a path to a JSON result file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		f := cmd.Flags()

		flags := []string{"psychosocial", "burnout", "work-addiction", "absence", "turnover"}
		refs := make([]string, len(flags))
		for i, name := range flags {
			refs[i], _ = f.GetString(name)
		}

		results, err := loadResults(ctx, refs, openStore)
		if err != nil {
			return err
		}

		in := inventory.Input{
			Psychosocial:  results[0],
			Burnout:       results[1],
			WorkAddiction: results[2],
		}
		if in.AbsenceRate, err = rateFlag(cmd, "absence-rate", results[3]); err != nil {
			return err
		}
		if in.TurnoverRate, err = rateFlag(cmd, "turnover-rate", results[4]); err != nil {
			return err
		}

		inv, err := inventory.NewEngine().Consolidate(in)
		if err != nil {
			return err
		}

		zap.L().Info("inventory consolidated",
			zap.Int("entries", len(inv.Entries)),
			zap.String("overall_level", string(inv.Executive.OverallLevel)),
		)
		return writeOutput(inv)
	},
}

// rateFlag prefers an explicit rate flag over the rate carried by res.
func rateFlag(cmd *cobra.Command, flag string, res *model.AnalysisResult) (*float64, error) {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetFloat64(flag)
		return &v, nil
	}
	return inventory.RateFrom(res)
}

// loadResults resolves each non-empty reference concurrently. A reference
// naming an existing file is read as a JSON result; anything else is looked
// up by ID in the store returned by open.
func loadResults(ctx context.Context, refs []string, open func(context.Context) (store.ResultStore, error)) ([]*model.AnalysisResult, error) {
	out := make([]*model.AnalysisResult, len(refs))

	var st store.ResultStore
	for _, ref := range refs {
		if ref == "" || isFile(ref) {
			continue
		}
		s, err := open(ctx)
		if err != nil {
			return nil, err
		}
		defer s.Close() //nolint:errcheck
		st = s
		break
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		if ref == "" {
			continue
		}
		g.Go(func() error {
			res, err := loadResult(gctx, st, ref)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func loadResult(ctx context.Context, st store.ResultStore, ref string) (*model.AnalysisResult, error) {
	if isFile(ref) {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, eris.Wrapf(err, "inventory: read %s", ref)
		}
		var res model.AnalysisResult
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, eris.Wrapf(err, "inventory: decode %s", ref)
		}
		return &res, nil
	}
	res, err := st.Get(ctx, ref)
	if err != nil {
		return nil, eris.Wrapf(err, "inventory: load result %s", ref)
	}
	return res, nil
}

func isFile(ref string) bool {
	info, err := os.Stat(ref)
	return err == nil && !info.IsDir()
}

func init() {
	f := inventoryCmd.Flags()
	f.String("psychosocial", "", "COPSOQ result (ID or JSON file)")
	f.String("burnout", "", "CBI result (ID or JSON file)")
	f.String("work-addiction", "", "DUWAS result (ID or JSON file)")
	f.String("absence", "", "absenteeism result (ID or JSON file)")
	f.String("turnover", "", "turnover result (ID or JSON file)")
	f.Float64("absence-rate", 0, "absence rate in percent (overrides --absence)")
	f.Float64("turnover-rate", 0, "annual turnover rate in percent (overrides --turnover)")
	_ = inventoryCmd.MarkFlagRequired("psychosocial")
	rootCmd.AddCommand(inventoryCmd)
}
