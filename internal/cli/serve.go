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
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-etl/internal/report"
	"github.com/pgEdge/pgedge-etl/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard charts as a JSON API",
	Long: `Serve the dashboard charts and run metadata over HTTP until
interrupted.

Routes:
  GET /api/v1/health
  GET /api/v1/metadata
  GET /api/v1/dashboard
  GET /api/v1/charts
  GET /api/v1/charts/{name}

Example:
  pgedge-etl serve --addr :8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (default: :8080)")
	addReportFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	applyReportFlags()
	if serveAddr != "" {
		cfg.Serve.Addr = serveAddr
	}
	if err := cfg.ValidateReport(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := openStore(ctx, 4)
	if err != nil {
		return err
	}
	defer store.Close()

	r := report.New(store.Pool(), store.WarehouseSchema(), report.Options{
		MinRouteOrders: cfg.Report.MinRouteOrders,
		TopStates:      cfg.Report.TopStates,
	})

	return server.New(r, store).ListenAndServe(ctx, cfg.Serve.Addr)
}
