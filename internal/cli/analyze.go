package cli

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"StockLens/internal/model"
	"StockLens/internal/recorder"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Analyze a symbol over a date range",
		Long: `Fetch daily bars for SYMBOL and print the analysis.
Example: stocklens analyze AAPL --start 2024-01-02 --end 2024-12-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRange(start, end, time.Now())
			if err != nil {
				return err
			}
			svc, rec, err := a.newService()
			if err != nil {
				return err
			}
			defer rec.Close()

			res, err := svc.Analyze(cmd.Context(), args[0], from, to, recorder.TriggerCLI)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(renderAnalysis(res) + "\n"))
			return err
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Start date in YYYY-MM-DD format (one year before end if not provided)")
	cmd.Flags().StringVar(&end, "end", "", "End date in YYYY-MM-DD format (today if not provided)")
	return cmd
}

// parseRange resolves the --start/--end flags against now.
func parseRange(start, end string, now time.Time) (time.Time, time.Time, error) {
	to := now
	if end != "" {
		t, err := time.Parse(model.DateLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Errorf("invalid --end %q, use YYYY-MM-DD", end)
		}
		to = t
	}
	from := to.AddDate(-1, 0, 0)
	if start != "" {
		t, err := time.Parse(model.DateLayout, start)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Errorf("invalid --start %q, use YYYY-MM-DD", start)
		}
		from = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("end date cannot be before start date")
	}
	return from, to, nil
}
