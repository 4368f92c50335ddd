package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
)

type reportOptions struct {
	req    analytics.Request
	pretty bool
	now    func() time.Time
}

func newReportCommand(global *globalOptions) *cobra.Command {
	opts := &reportOptions{now: time.Now}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute the dashboard report and print it as JSON",
		Example: `  aiwu-statsctl report --dsn 'wp:secret@tcp(db:3306)/wordpress' --from 2025-03-01 --to 2025-03-31
  aiwu-statsctl report --fixture events.json --plan pro --pretty`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, global, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.req.DateFrom, "from", "", "First day of the window (YYYY-MM-DD)")
	flags.StringVar(&opts.req.DateTo, "to", "", "Last day of the window (YYYY-MM-DD)")
	flags.StringVar(&opts.req.Plan, "plan", "all", "Plan filter for the user listing (all, free, pro)")
	flags.StringVar(&opts.req.Feature, "feature", "", "Feature filter for the user listing and recent conversions")
	flags.IntVar(&opts.req.Page, "page", 1, "User listing page")
	flags.IntVar(&opts.req.PerPage, "per-page", analytics.DefaultPerPage, "User listing page size")
	flags.BoolVar(&opts.pretty, "pretty", false, "Indent the JSON output")

	return cmd
}

func runReport(cmd *cobra.Command, global *globalOptions, opts *reportOptions) error {
	cat, err := global.loadCatalog()
	if err != nil {
		return err
	}
	loc, err := global.location()
	if err != nil {
		return err
	}
	store, err := global.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	engine := analytics.NewEngine(store, analytics.StaticCatalog(cat),
		analytics.WithLogger(global.logger(cmd)),
		analytics.WithLocation(loc),
		analytics.WithClock(opts.now),
	)

	report, err := engine.ComputeDashboard(cmd.Context(), opts.req)
	if err != nil {
		return fmt.Errorf("failed to compute report: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}
