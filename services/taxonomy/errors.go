// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package taxonomy provides the in-memory industry-classification core.
//
// The taxonomy package contains Index, an immutable structure built from a
// Tree of classification nodes, offering O(1) lookups by code, precomputed
// root-first ancestor chains, and Engine, a deterministic ranked search over
// codes and titles.
//
// # Ownership Model
//
// Build copies the input Tree's nodes; the Index owns its copies:
//   - Nodes returned by Lookup, Roots, Children, and AncestorChain MUST NOT
//     be mutated by callers
//   - The Index never changes after Build; to pick up a new dataset, Build
//     a new Index and swap the reference (see the loader package)
//
// # Thread Safety
//
// An Index is immutable after Build and safe for unsynchronized concurrent
// reads. Engine holds only a reference to an Index and is equally safe.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for taxonomy operations.
var (
	// ErrMalformedTaxonomy is returned by Build when the input tree violates
	// a structural invariant. Every violation wraps this sentinel, so
	// errors.Is(err, ErrMalformedTaxonomy) matches regardless of which
	// invariant failed.
	ErrMalformedTaxonomy = errors.New("malformed taxonomy")

	// ErrUnknownCode is returned when a code is not present in the index.
	ErrUnknownCode = errors.New("unknown classification code")
)

// BuildError aggregates every structural violation found during Build.
//
// Build validates the whole tree before failing so that a dataset author
// sees all problems at once rather than fixing them one rebuild at a time.
//
// BuildError implements the standard errors.Unwrap() interface for Go 1.20+
// multi-error unwrapping.
type BuildError struct {
	// Errors contains all individual violations. Each wraps
	// ErrMalformedTaxonomy and names the offending entry or code.
	Errors []error
}

// Error returns a human-readable summary of the violations.
//
// Format depends on error count:
//   - 1 error: returns that error's message directly
//   - 2+ errors: returns count and first error with "and N more" suffix
func (e *BuildError) Error() string {
	if len(e.Errors) == 0 {
		return "build error with no errors" // Defensive
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v (and %d more)",
		len(e.Errors), e.Errors[0], len(e.Errors)-1)
}

// Unwrap returns the underlying errors for use with errors.Is and errors.As.
func (e *BuildError) Unwrap() []error {
	return e.Errors
}

// ErrorList returns a formatted string with all violations, one per line.
//
// This is what the validate CLI command prints so a dataset author can fix
// every problem in a single pass.
func (e *BuildError) ErrorList() string {
	if len(e.Errors) == 0 {
		return ""
	}
	var b strings.Builder
	for i, err := range e.Errors {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}
