// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/AleutianAI/gangway/cmd/gangway/config"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	servePort       int
	serveDataset    string
	serveSessionDir string
	serveInMemory   bool
	serveNoWatch    bool
	serveGinMode    string
	searchDataset   string
	searchLimit     int
	searchJSON      bool
	fetchBucket     string
	fetchOutPath    string
	fetchSAKeyPath  string

	rootCmd = &cobra.Command{
		Use:   "gangway",
		Short: "A cli to serve and query hierarchical industry classification datasets",
		Long: `Gangway loads NAICS-style classification datasets and serves the
				intake wizard API. It also ships offline tools for searching,
				validating, and fetching dataset files.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// All commands read their defaults from ~/.gangway/gangway.yaml.
			return config.Load()
		},
	}

	// --- Service ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the intake HTTP service",
		Run:   runServe, // Defined in cmd_serve.go
	}

	// --- Offline Tools ---
	searchCmd = &cobra.Command{
		Use:   "search [query]",
		Short: "Search a classification dataset without starting the service",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch, // Defined in cmd_search.go
	}
	validateCmd = &cobra.Command{
		Use:   "validate [dataset-file]",
		Short: "Check a dataset file against the structural rules",
		Long: `validate loads a dataset file and runs the full index build over it.
				Exit code 0 means the dataset is servable, 1 means it parsed but
				violates structural rules, 2 means it could not be read at all.`,
		Args: cobra.ExactArgs(1),
		Run:  runValidate, // Defined in cmd_validate.go
	}

	// --- GCS ---
	fetchCmd = &cobra.Command{
		Use:   "fetch [object-path]",
		Short: "Download a published dataset vintage from GCS",
		Args:  cobra.MaximumNArgs(1),
		Run:   runFetch, // Defined in cmd_fetch.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
	serveCmd.Flags().StringVar(&serveDataset, "dataset", "", "Dataset file to serve (overrides config)")
	serveCmd.Flags().StringVar(&serveSessionDir, "session-dir", "", "Badger directory for wizard sessions (overrides config)")
	serveCmd.Flags().BoolVar(&serveInMemory, "in-memory-sessions", false, "Keep wizard sessions in memory only; they die with the process")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Disable dataset hot reload")
	serveCmd.Flags().StringVar(&serveGinMode, "gin-mode", "", "Gin mode: debug, release, test (overrides config)")

	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchDataset, "dataset", "", "Dataset file to search (overrides config)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum results to print (0 = all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Emit results as JSON for scripting")

	rootCmd.AddCommand(validateCmd)

	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchBucket, "bucket", "", "GCS bucket holding dataset vintages (overrides config)")
	fetchCmd.Flags().StringVarP(&fetchOutPath, "out", "o", "", "Local destination path (default: configured dataset path)")
	fetchCmd.Flags().StringVar(&fetchSAKeyPath, "sa-key", "", "Service account key file (default: application default credentials)")
}
