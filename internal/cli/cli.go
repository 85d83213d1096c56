//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-etl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-etl/internal/config"
	"github.com/pgEdge/pgedge-etl/internal/db"
	"github.com/pgEdge/pgedge-etl/internal/logging"
	"github.com/pgEdge/pgedge-etl/internal/pipeline"
	"github.com/pgEdge/pgedge-etl/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string
	logFile    string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-etl",
		Short: "E-commerce CSV to star schema ETL for PostgreSQL",
		Long: `pgedge-etl stages raw e-commerce CSV exports in PostgreSQL, conforms
them into dimension tables, assembles an order line-item fact table with
date and time dimensions, and reports on the result.

Typical use:
  pgedge-etl generate --orders 5000
  pgedge-etl run --data-dir ./data
  pgedge-etl report`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-etl.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"also append JSON log lines to this file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(generateCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}

	// Reinitialize logger with config
	return logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.Logging.Pretty,
		File:   cfg.Logging.File,
	})
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// openStore connects to the configured database and makes sure the
// staging and warehouse schemas exist.
func openStore(ctx context.Context, parallelism int) (*db.Store, error) {
	pool, err := db.Connect(ctx, cfg.ConnString(), int32(parallelism))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := db.NewStore(pool, cfg.Schemas.Staging, cfg.Schemas.Warehouse)
	if err := store.EnsureSchemas(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the transform steps in execution order",
	Long: `List every transform step in the order it runs, with the tables it
writes and the steps it waits for.`,
	Run: func(cmd *cobra.Command, args []string) {
		printSteps(cmd, pipeline.ETL())
	},
}

func printSteps(cmd *cobra.Command, g *pipeline.Graph) {
	for _, s := range g.Steps() {
		deps := "-"
		if len(s.DependsOn) > 0 {
			deps = strings.Join(s.DependsOn, ", ")
		}
		cmd.Printf("  %-12s %-40s after: %s\n", s.Name, strings.Join(s.Tables, ", "), deps)
	}
}
