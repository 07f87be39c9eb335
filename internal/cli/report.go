package cli

import (
	"fmt"
	"time"

	"merchant-desk/internal/report"
	"merchant-desk/internal/service"

	"github.com/spf13/cobra"
)

func (a *App) reportService(cmd *cobra.Command) (service.ReportService, *time.Location, error) {
	loc, err := a.cfg.Report.Location()
	if err != nil {
		return nil, nil, err
	}
	stores, err := a.openStores(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return service.NewReportService(stores.Orders, stores.Expenses, loc), loc, nil
}

// parseBound accepts RFC3339 or a calendar date; a date used as an end bound covers the whole day
func parseBound(raw string, loc *time.Location, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339", raw)
	}
	if end {
		return report.EndOfDay(t), nil
	}
	return t, nil
}

func (a *App) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Revenue and expense reports",
	}

	standard := &cobra.Command{
		Use:   "standard",
		Short: "Daily, weekly, monthly and yearly totals as of now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reports, _, err := a.reportService(cmd)
			if err != nil {
				return err
			}
			out, err := reports.StandardReports(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	var start, end string
	window := &cobra.Command{
		Use:   "window --start <date> --end <date>",
		Short: "Totals for a closed window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reports, loc, err := a.reportService(cmd)
			if err != nil {
				return err
			}
			from, err := parseBound(start, loc, false)
			if err != nil {
				return err
			}
			to, err := parseBound(end, loc, true)
			if err != nil {
				return err
			}
			out, err := reports.Window(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	window.Flags().StringVar(&start, "start", "", "window start")
	window.Flags().StringVar(&end, "end", "", "window end, inclusive")
	window.MarkFlagRequired("start")
	window.MarkFlagRequired("end")

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "All-time sales and order count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reports, _, err := a.reportService(cmd)
			if err != nil {
				return err
			}
			out, err := reports.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.AddCommand(standard, window, dashboard)
	return cmd
}
