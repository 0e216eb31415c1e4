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
	"sort"
	"strings"
	"time"
	"unicode"
)

// Rank classifies how a match was found. Lower ranks are better and appear
// first in search results.
type Rank int

const (
	// RankExactCode: the query equals a node's code. At most one per search.
	RankExactCode Rank = iota

	// RankCodePrefix: the query is a proper prefix of the node's code.
	RankCodePrefix

	// RankTitle: the query matches the node's title, either as a normalized
	// substring or as a token subset.
	RankTitle
)

// String returns the wire name of the rank.
func (r Rank) String() string {
	switch r {
	case RankExactCode:
		return "exact_code"
	case RankCodePrefix:
		return "code_prefix"
	case RankTitle:
		return "title"
	default:
		return "unknown"
	}
}

// Match pairs a result node with the rank tier it matched at.
type Match struct {
	Node *Node `json:"node"`
	Rank Rank  `json:"rank"`
}

// Engine performs deterministic ranked search over an Index.
//
// # Description
//
// Results come back in three tiers, concatenated rank-ascending:
//
//	rank 0  exact code equality (at most one result)
//	rank 1  code-prefix matches, code ascending
//	rank 2  title matches, shortest normalized title first, ties by code
//
// A node appears at most once, at its best rank. Title matching accepts a
// normalized substring hit or a token-subset hit: every query token present
// in the title's token set, order-independent, so "processing data" still
// finds "Data Processing, Hosting, and Related Services".
//
// Identical (term, index) pairs always produce the identical ordered result.
// There is no randomness and no time-based tie-break, which keeps paging and
// UI diffing stable across calls.
//
// # Thread Safety
//
// Engine is stateless over an immutable Index and safe for concurrent use.
// Debounce and cancellation of stale queries belong to the calling layer;
// Search itself is synchronous and has no error mode.
type Engine struct {
	idx *Index
}

// NewEngine returns a search engine over idx.
func NewEngine(idx *Index) *Engine {
	return &Engine{idx: idx}
}

// Search returns ranked matches for a free-text term.
//
// # Inputs
//
//   - term: raw user input. Normalized (lowercase, whitespace collapsed,
//     trimmed) before matching. Empty or whitespace-only terms return nil.
//
// # Outputs
//
//   - []Match: rank-ascending matches, deterministic order, no cap. Callers
//     that page or truncate slice the result after this ordering.
func (e *Engine) Search(term string) []Match {
	if e == nil || e.idx == nil {
		return nil
	}
	start := time.Now()

	q := normalize(term)
	if q == "" {
		return nil
	}

	var out []Match
	seen := make(map[string]struct{})

	// Rank 0: exact code.
	if n, ok := e.idx.nodes[q]; ok {
		out = append(out, Match{Node: n, Rank: RankExactCode})
		seen[n.Code] = struct{}{}
	}

	// Rank 1: code prefix. Codes sharing a prefix are a contiguous run in
	// the sorted code list, so scan from the insertion point of q.
	if isDigits(q) {
		from := sort.SearchStrings(e.idx.codes, q)
		for _, code := range e.idx.codes[from:] {
			if !strings.HasPrefix(code, q) {
				break
			}
			if _, dup := seen[code]; dup {
				continue
			}
			out = append(out, Match{Node: e.idx.nodes[code], Rank: RankCodePrefix})
			seen[code] = struct{}{}
		}
	}

	// Rank 2: title containment or token subset.
	qTokens := tokenSet(q)
	var titleHits []*searchEntry
	for i := range e.idx.entries {
		entry := &e.idx.entries[i]
		if _, dup := seen[entry.node.Code]; dup {
			continue
		}
		if strings.Contains(entry.normTitle, q) || containsAllTokens(entry.tokens, qTokens) {
			titleHits = append(titleHits, entry)
		}
	}
	sort.Slice(titleHits, func(i, j int) bool {
		a, b := titleHits[i], titleHits[j]
		if len(a.normTitle) != len(b.normTitle) {
			return len(a.normTitle) < len(b.normTitle)
		}
		return a.node.Code < b.node.Code
	})
	for _, entry := range titleHits {
		out = append(out, Match{Node: entry.node, Rank: RankTitle})
	}

	recordSearchMetrics(context.Background(), time.Since(start), len(out))
	return out
}

// searchEntry holds the per-node precomputed title forms. Built once during
// Build so Search never re-normalizes titles.
type searchEntry struct {
	node      *Node
	normTitle string
	tokens    map[string]struct{}
}

func newSearchEntry(n *Node) searchEntry {
	nt := normalize(n.Title)
	return searchEntry{node: n, normTitle: nt, tokens: tokenSet(nt)}
}

// normalize lowercases, collapses consecutive whitespace, and trims.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// tokenSet splits a normalized string into its alphanumeric tokens.
// Punctuation separates tokens, so "hosting," and "hosting" collide.
func tokenSet(s string) map[string]struct{} {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	fields := strings.Fields(mapped)
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// containsAllTokens reports whether every query token appears in the title's
// token set. An empty query token set never matches; that keeps punctuation-
// only queries from matching everything.
func containsAllTokens(title, query map[string]struct{}) bool {
	if len(query) == 0 || len(query) > len(title) {
		return false
	}
	for tok := range query {
		if _, ok := title[tok]; !ok {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
