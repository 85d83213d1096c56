//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package main is the entry point for pgedge-etl.
package main

import (
	"fmt"
	"os"

	"github.com/pgEdge/pgedge-etl/internal/cli"
	"github.com/pgEdge/pgedge-etl/internal/logging"
)

func main() {
	err := cli.Execute()
	logging.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
