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
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/AleutianAI/gangway/cmd/gangway/config"
	"github.com/AleutianAI/gangway/services/taxonomy"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func runSearch(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	datasetPath := config.Global.Dataset.Path
	if cmd.Flags().Changed("dataset") {
		datasetPath = searchDataset
	}

	tree, err := loader.LoadFile(datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dataset %s: %v\n", datasetPath, err)
		os.Exit(1)
	}
	idx, err := taxonomy.Build(tree)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Dataset %s failed validation: %v\n", datasetPath, err)
		os.Exit(1)
	}

	matches := taxonomy.NewEngine(idx).Search(query)
	total := len(matches)
	if searchLimit > 0 && len(matches) > searchLimit {
		matches = matches[:searchLimit]
	}

	if searchJSON {
		printSearchJSON(query, total, matches)
		return
	}

	if len(matches) == 0 {
		fmt.Printf("No matches for %q in dataset version %s\n", query, tree.Version)
		return
	}

	// Plain tab-separated rows when piped, an aligned table on a terminal.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		for _, m := range matches {
			fmt.Printf("%s\t%s\n", m.Node.Code, m.Node.Title)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tLEVEL\tMATCH\tTITLE")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", m.Node.Code, m.Node.Level(), m.Rank, m.Node.Title)
	}
	w.Flush()
	fmt.Printf("\nShowing %d of %d match(es) for %q in dataset version %s\n",
		len(matches), total, query, tree.Version)
}

func printSearchJSON(query string, total int, matches []taxonomy.Match) {
	type row struct {
		Code  string `json:"code"`
		Title string `json:"title"`
		Level int    `json:"level"`
		Rank  string `json:"rank"`
	}
	out := struct {
		Query   string `json:"query"`
		Total   int    `json:"total"`
		Results []row  `json:"results"`
	}{Query: query, Total: total, Results: make([]row, 0, len(matches))}

	for _, m := range matches {
		out.Results = append(out.Results, row{
			Code:  m.Node.Code,
			Title: m.Node.Title,
			Level: m.Node.Level(),
			Rank:  m.Rank.String(),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}
