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
	"errors"
	"fmt"
	"os"

	"github.com/AleutianAI/gangway/services/taxonomy"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
	"github.com/spf13/cobra"
)

// Exit codes for the validate command.
const (
	ValidateExitSuccess  = 0 // Dataset is structurally valid
	ValidateExitFindings = 1 // Dataset parsed but violates structural rules
	ValidateExitError    = 2 // Dataset could not be read or decoded
)

// runValidate loads the dataset and runs the full index build over it.
// Findings are printed one per line so a dataset author can fix every
// problem in a single pass.
func runValidate(cmd *cobra.Command, args []string) {
	path := args[0]

	tree, err := loader.LoadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, loader.ErrDatasetNotFound):
			fmt.Fprintf(os.Stderr, "Dataset file not found: %s\n", path)
		case errors.Is(err, loader.ErrInvalidDataset):
			fmt.Fprintf(os.Stderr, "Dataset cannot be decoded: %v\n", err)
		default:
			fmt.Fprintf(os.Stderr, "Failed to read dataset: %v\n", err)
		}
		os.Exit(ValidateExitError)
	}

	if _, err := taxonomy.Build(tree); err != nil {
		var buildErr *taxonomy.BuildError
		if errors.As(err, &buildErr) {
			fmt.Fprintf(os.Stderr, "Dataset %s failed validation with %d finding(s):\n%s\n",
				path, len(buildErr.Errors), buildErr.ErrorList())
			os.Exit(ValidateExitFindings)
		}
		fmt.Fprintf(os.Stderr, "Failed to build index: %v\n", err)
		os.Exit(ValidateExitError)
	}

	fmt.Printf("Dataset %s is valid: version %s, %d nodes\n", path, tree.Version, len(tree.Nodes))
	os.Exit(ValidateExitSuccess)
}
