// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_taxonomy_docs generates a markdown reference from a classification dataset.
//
// Usage:
//
//	go run scripts/generate_taxonomy_docs.go data/naics_2022.json > docs/classification_reference.md
//
// The generated documentation includes:
//   - Summary statistics per hierarchy level
//   - A sector table of contents
//   - Per-sector drilldown tables in publication order
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/gangway/services/taxonomy"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
)

// levelNames maps the derived hierarchy level to its classification name.
var levelNames = map[int]string{
	1: "Sector",
	2: "Subsector",
	3: "Industry Group",
	4: "Industry",
	5: "National Industry",
}

func main() {
	path := "data/naics_2022.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	tree, err := loader.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading dataset %s: %v\n", path, err)
		os.Exit(1)
	}

	idx, err := taxonomy.Build(tree)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building index: %v\n", err)
		os.Exit(1)
	}

	generateMarkdown(path, idx)
}

// generateMarkdown outputs the full markdown documentation.
func generateMarkdown(path string, idx *taxonomy.Index) {
	fmt.Println("# Classification Reference")
	fmt.Println()
	fmt.Println("## Overview")
	fmt.Println()
	fmt.Printf("This document is a browsable reference for the `%s` classification dataset\n", idx.Version())
	fmt.Println("served by gangway. Codes are 2 to 6 digits; each extra digit narrows the")
	fmt.Println("classification by one level.")
	fmt.Println()
	fmt.Printf("**Generated:** %s\n", time.Now().Format("2006-01-02 15:04:05 UTC"))
	fmt.Println()

	// Statistics
	levelCounts := countLevels(idx)

	fmt.Println("## Summary Statistics")
	fmt.Println()
	fmt.Println("| Level | Name | Count |")
	fmt.Println("|-------|------|-------|")
	for level := 1; level <= 5; level++ {
		fmt.Printf("| %d | %s | %d |\n", level, levelNames[level], levelCounts[level])
	}
	fmt.Printf("| | **Total** | **%d** |\n", idx.Len())
	fmt.Println()

	// Sector table of contents
	roots := idx.Roots()

	fmt.Println("## Sectors")
	fmt.Println()
	for _, root := range roots {
		fmt.Printf("- [%s - %s](#%s)\n", root.Code, root.Title, anchorFor(root))
	}
	fmt.Println()

	// Per-sector drilldown
	for _, root := range roots {
		fmt.Println("---")
		fmt.Println()
		fmt.Printf("## %s - %s\n", root.Code, root.Title)
		fmt.Println()
		fmt.Println("| Code | Level | Title |")
		fmt.Println("|------|-------|-------|")
		printSubtree(idx, root)
		fmt.Println()
	}

	// Footer
	fmt.Println("---")
	fmt.Println()
	fmt.Printf("*This document is auto-generated from `%s`.*\n", path)
	fmt.Println()
	fmt.Printf("*To regenerate: `go run scripts/generate_taxonomy_docs.go %s > docs/classification_reference.md`*\n", path)
}

// printSubtree walks a sector depth-first in publication order, indenting
// titles by hierarchy depth so the drilldown reads as a tree.
func printSubtree(idx *taxonomy.Index, n *taxonomy.Node) {
	indent := strings.Repeat("&nbsp;&nbsp;", n.Level()-1)
	fmt.Printf("| `%s` | %s | %s%s |\n", n.Code, levelNames[n.Level()], indent, n.Title)

	children, err := idx.Children(n.Code)
	if err != nil {
		return
	}
	for _, child := range children {
		printSubtree(idx, child)
	}
}

// countLevels tallies how many nodes sit at each hierarchy level.
func countLevels(idx *taxonomy.Index) map[int]int {
	counts := make(map[int]int)
	for _, root := range idx.Roots() {
		walk(idx, root, counts)
	}
	return counts
}

func walk(idx *taxonomy.Index, n *taxonomy.Node, counts map[int]int) {
	counts[n.Level()]++
	children, err := idx.Children(n.Code)
	if err != nil {
		return
	}
	for _, child := range children {
		walk(idx, child, counts)
	}
}

// anchorFor builds the GitHub-style heading anchor for a sector section.
func anchorFor(n *taxonomy.Node) string {
	heading := fmt.Sprintf("%s - %s", n.Code, n.Title)
	anchor := strings.ToLower(heading)
	anchor = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-':
			return r
		default:
			return -1
		}
	}, anchor)
	return strings.ReplaceAll(anchor, " ", "-")
}
