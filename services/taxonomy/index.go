// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package taxonomy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/gangway/pkg/validation"
)

// Index is an immutable lookup structure over a classification Tree.
//
// # Description
//
// Build validates the tree, copies its nodes, and precomputes everything the
// read paths need: a code-to-node map, root-first ancestor chains, children
// adjacency in publication order, lexicographically sorted codes for prefix
// search, and normalized titles with token sets for ranked title search.
//
// # Thread Safety
//
// Immutable after Build. All methods are safe for unsynchronized concurrent
// use. Returned slices are copies; the nodes they point at are shared and
// must not be mutated.
type Index struct {
	version string
	nodes   map[string]*Node
	chains  map[string][]*Node
	roots   []*Node
	ordered []*Node
	codes   []string // all codes, ascending
	entries []searchEntry
}

// Build validates a Tree and produces an Index.
//
// # Description
//
// Validation is exhaustive: every violation in the tree is collected into a
// single *BuildError rather than failing on the first one. Violations are:
//   - syntactically invalid code (not 2..6 digits)
//   - duplicate code
//   - parentless node that is not a 2-digit sector
//   - parent code that resolves to no node
//   - parent code that is not a prefix of the child's code
//   - parent code that is not exactly one digit shorter than the child's
//
// On failure no partial Index is returned; a previously built Index remains
// fully usable.
//
// # Inputs
//
//   - tree: the dataset to index. Node order is publication order and is
//     preserved in Roots and Children listings.
//
// # Outputs
//
//   - *Index: the built index, nil on error.
//   - error: *BuildError wrapping ErrMalformedTaxonomy for every violation.
func Build(tree *Tree) (*Index, error) {
	ctx, span := startOperationSpan(context.Background(), "Build")
	defer span.End()
	start := time.Now()

	idx, err := build(tree)

	size := 0
	if idx != nil {
		size = idx.Len()
	}
	setOperationSpanResult(span, size, err == nil)
	recordOperationMetrics(ctx, "build", time.Since(start), size, err == nil)
	if err == nil {
		recordIndexSize(ctx, size)
	}
	return idx, err
}

func build(tree *Tree) (*Index, error) {
	if tree == nil {
		return nil, &BuildError{Errors: []error{
			fmt.Errorf("%w: nil tree", ErrMalformedTaxonomy),
		}}
	}
	if len(tree.Nodes) == 0 {
		return nil, &BuildError{Errors: []error{
			fmt.Errorf("%w: tree has no nodes", ErrMalformedTaxonomy),
		}}
	}

	var violations []error

	// Pass 1: code syntax and uniqueness. Invalid entries are excluded from
	// the structural passes but still reported.
	nodes := make(map[string]*Node, len(tree.Nodes))
	ordered := make([]*Node, 0, len(tree.Nodes))
	for i := range tree.Nodes {
		src := &tree.Nodes[i]
		if err := validation.ValidateCode(src.Code); err != nil {
			violations = append(violations,
				fmt.Errorf("%w: entry[%d] %q: %v", ErrMalformedTaxonomy, i, src.Code, err))
			continue
		}
		if _, dup := nodes[src.Code]; dup {
			violations = append(violations,
				fmt.Errorf("%w: entry[%d] %s: duplicate code", ErrMalformedTaxonomy, i, src.Code))
			continue
		}
		n := &Node{Code: src.Code, Title: src.Title, ParentCode: src.ParentCode}
		nodes[n.Code] = n
		ordered = append(ordered, n)
	}

	// Pass 2: parent structure. Depth is derived from code length, so the
	// chain is contiguous exactly when every parent is one digit shorter.
	for _, n := range ordered {
		if n.ParentCode == "" {
			if len(n.Code) != validation.MinCodeLen {
				violations = append(violations,
					fmt.Errorf("%w: node %s: parentless node must be a %d-digit sector",
						ErrMalformedTaxonomy, n.Code, validation.MinCodeLen))
			}
			continue
		}
		parent, ok := nodes[n.ParentCode]
		if !ok {
			violations = append(violations,
				fmt.Errorf("%w: node %s: parent %s not found", ErrMalformedTaxonomy, n.Code, n.ParentCode))
			continue
		}
		if !strings.HasPrefix(n.Code, parent.Code) {
			violations = append(violations,
				fmt.Errorf("%w: node %s: code does not extend parent %s", ErrMalformedTaxonomy, n.Code, parent.Code))
			continue
		}
		if len(n.Code) != len(parent.Code)+1 {
			violations = append(violations,
				fmt.Errorf("%w: node %s: depth gap from parent %s", ErrMalformedTaxonomy, n.Code, parent.Code))
		}
	}

	if len(violations) > 0 {
		return nil, &BuildError{Errors: violations}
	}

	// Derivations below run on a structurally valid tree.
	idx := &Index{
		version: tree.Version,
		nodes:   nodes,
		chains:  make(map[string][]*Node, len(ordered)),
		ordered: ordered,
		codes:   make([]string, 0, len(ordered)),
		entries: make([]searchEntry, 0, len(ordered)),
	}

	for _, n := range ordered {
		if n.IsRoot() {
			idx.roots = append(idx.roots, n)
			continue
		}
		parent := nodes[n.ParentCode]
		parent.Children = append(parent.Children, n.Code)
	}

	// Root-first ancestor chains, self included as the last element. The
	// parent checks above rule out cycles: every step strictly shortens the
	// code and terminates at a 2-digit root.
	for _, n := range ordered {
		chain := make([]*Node, n.Level())
		cur := n
		for i := len(chain) - 1; i >= 0; i-- {
			chain[i] = cur
			cur = nodes[cur.ParentCode]
		}
		idx.chains[n.Code] = chain
	}

	for code := range nodes {
		idx.codes = append(idx.codes, code)
	}
	sort.Strings(idx.codes)

	for _, n := range ordered {
		idx.entries = append(idx.entries, newSearchEntry(n))
	}

	return idx, nil
}

// Version returns the dataset vintage tag the index was built from.
func (idx *Index) Version() string {
	return idx.version
}

// Len returns the number of indexed nodes.
func (idx *Index) Len() int {
	return len(idx.nodes)
}

// Lookup returns the node for an exact code.
//
// O(1); never scans. The returned node is shared and must not be mutated.
func (idx *Index) Lookup(code string) (*Node, bool) {
	n, ok := idx.nodes[code]
	return n, ok
}

// Roots returns the 2-digit sector nodes in publication order.
func (idx *Index) Roots() []*Node {
	out := make([]*Node, len(idx.roots))
	copy(out, idx.roots)
	return out
}

// Children returns a code's direct children in publication order.
//
// Returns ErrUnknownCode when the code is not indexed. A leaf yields an
// empty slice, not an error.
func (idx *Index) Children(code string) ([]*Node, error) {
	n, ok := idx.nodes[code]
	if !ok {
		return nil, fmt.Errorf("children %s: %w", code, ErrUnknownCode)
	}
	out := make([]*Node, len(n.Children))
	for i, c := range n.Children {
		out[i] = idx.nodes[c]
	}
	return out, nil
}

// AncestorChain returns the root-first lineage of a code, the node itself
// included as the last element.
//
// # Description
//
// Chains are precomputed at Build, so this is a map hit plus a slice copy.
// A root's chain has length 1. Returns ErrUnknownCode when the code is not
// indexed.
func (idx *Index) AncestorChain(code string) ([]*Node, error) {
	chain, ok := idx.chains[code]
	if !ok {
		return nil, fmt.Errorf("ancestor chain %s: %w", code, ErrUnknownCode)
	}
	out := make([]*Node, len(chain))
	copy(out, chain)
	return out, nil
}
