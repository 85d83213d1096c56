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
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-etl/internal/fetch"
)

var (
	fetchBaseURL   string
	fetchOutputDir string
	fetchEndpoints []string
	fetchTimeout   int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Extract JSON API collections into CSV files",
	Long: `Fetch each endpoint of a JSON API and write it as <endpoint>.csv.
Each endpoint must return an array of objects. Columns are the snake_cased
union of the object keys; missing values are written as "Unknown". A
failing endpoint is logged and skipped.

Example:
  pgedge-etl fetch --base-url https://potterapi-fedeperin.vercel.app/en \
    --endpoint characters --endpoint houses --output-dir ./hp_data`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchBaseURL, "base-url", "",
		"API base URL")
	fetchCmd.Flags().StringVar(&fetchOutputDir, "output-dir", "",
		"directory the CSV files are written to")
	fetchCmd.Flags().StringSliceVar(&fetchEndpoints, "endpoint", nil,
		"endpoints to fetch")
	fetchCmd.Flags().IntVar(&fetchTimeout, "timeout", 0,
		"per-request timeout in seconds")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetchBaseURL != "" {
		cfg.Fetch.BaseURL = fetchBaseURL
	}
	if fetchOutputDir != "" {
		cfg.Fetch.OutputDir = fetchOutputDir
	}
	if len(fetchEndpoints) > 0 {
		cfg.Fetch.Endpoints = fetchEndpoints
	}
	if fetchTimeout > 0 {
		cfg.Fetch.Timeout = fetchTimeout
	}
	if err := cfg.ValidateFetch(); err != nil {
		return err
	}

	client, err := fetch.NewClient(cfg.Fetch.BaseURL, time.Duration(cfg.Fetch.Timeout)*time.Second)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := fetch.NewExtractor(client, cfg.Fetch.OutputDir).Run(ctx, cfg.Fetch.Endpoints)
	for _, r := range results {
		if r.Err != nil {
			cmd.Printf("  %-20s failed\n", r.Endpoint)
			continue
		}
		cmd.Printf("  %-20s %6d rows  %s\n", r.Endpoint, r.Rows, r.File)
	}
	return err
}
