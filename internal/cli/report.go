//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-etl/internal/report"
)

var (
	reportCharts         []string
	reportJSON           bool
	reportMinRouteOrders int
	reportTopStates      int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the dashboard charts",
	Long: `Query the warehouse and print each dashboard chart as a text bar
chart, or as JSON with --json. A chart whose query fails shows its error
and does not stop the others.

Examples:
  pgedge-etl report
  pgedge-etl report --chart payment_distribution --chart top_states
  pgedge-etl report --json`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringSliceVar(&reportCharts, "chart", nil,
		"charts to print (default: all)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false,
		"print the charts as JSON")
	addReportFlags(reportCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&reportMinRouteOrders, "min-route-orders", 0,
		"minimum orders for a logistics route to be shown")
	cmd.Flags().IntVar(&reportTopStates, "top-states", 0,
		"number of states in the purchase frequency chart")
}

func applyReportFlags() {
	if reportMinRouteOrders > 0 {
		cfg.Report.MinRouteOrders = reportMinRouteOrders
	}
	if reportTopStates > 0 {
		cfg.Report.TopStates = reportTopStates
	}
}

func runReport(cmd *cobra.Command, args []string) error {
	applyReportFlags()
	if err := cfg.ValidateReport(); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, 4)
	if err != nil {
		return err
	}
	defer store.Close()

	r := report.New(store.Pool(), store.WarehouseSchema(), report.Options{
		MinRouteOrders: cfg.Report.MinRouteOrders,
		TopStates:      cfg.Report.TopStates,
	})

	var charts []report.Chart
	if len(reportCharts) == 0 {
		charts = r.All(ctx)
	} else {
		for _, name := range reportCharts {
			c, err := r.Chart(ctx, name)
			if err != nil {
				return err
			}
			charts = append(charts, c)
		}
	}

	if reportJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(charts)
	}

	for _, c := range charts {
		if err := report.Render(cmd.OutOrStdout(), c); err != nil {
			return err
		}
	}
	return nil
}
