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
	"errors"
	"strings"
	"sync"
	"testing"
)

// testTree returns a fresh NAICS-flavored fixture in publication order.
// Two sectors, one fully materialized drill path each.
func testTree() *Tree {
	return &Tree{
		Version: "2022",
		Nodes: []Node{
			{Code: "51", Title: "Information"},
			{Code: "512", Title: "Motion Picture and Sound Recording Industries", ParentCode: "51"},
			{Code: "5121", Title: "Motion Picture and Video Industries", ParentCode: "512"},
			{Code: "518", Title: "Computing Infrastructure Providers, Data Processing, Web Hosting, and Related Services", ParentCode: "51"},
			{Code: "5182", Title: "Data Processing, Hosting, and Related Services", ParentCode: "518"},
			{Code: "51821", Title: "Data Processing, Hosting, and Related Services", ParentCode: "5182"},
			{Code: "518210", Title: "Computing Infrastructure Providers, Data Processing, Web Hosting, and Related Services", ParentCode: "51821"},
			{Code: "52", Title: "Finance and Insurance"},
			{Code: "522", Title: "Credit Intermediation and Related Activities", ParentCode: "52"},
			{Code: "5221", Title: "Depository Credit Intermediation", ParentCode: "522"},
			{Code: "52211", Title: "Commercial Banking", ParentCode: "5221"},
			{Code: "522110", Title: "Commercial Banking", ParentCode: "52211"},
		},
	}
}

// mustBuild builds the fixture or fails the test.
func mustBuild(t *testing.T) *Index {
	t.Helper()
	idx, err := Build(testTree())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return idx
}

func codesOf(nodes []*Node) string {
	codes := make([]string, len(nodes))
	for i, n := range nodes {
		codes[i] = n.Code
	}
	return strings.Join(codes, ",")
}

func TestBuild(t *testing.T) {
	t.Run("valid tree", func(t *testing.T) {
		idx, err := Build(testTree())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if idx.Len() != 12 {
			t.Errorf("Len() = %d, want 12", idx.Len())
		}
		if idx.Version() != "2022" {
			t.Errorf("Version() = %q, want 2022", idx.Version())
		}
	})

	t.Run("nil tree is malformed", func(t *testing.T) {
		idx, err := Build(nil)
		if idx != nil {
			t.Error("expected nil index")
		}
		if !errors.Is(err, ErrMalformedTaxonomy) {
			t.Errorf("expected ErrMalformedTaxonomy, got %v", err)
		}
	})

	t.Run("empty tree is malformed", func(t *testing.T) {
		_, err := Build(&Tree{Version: "2022"})
		if !errors.Is(err, ErrMalformedTaxonomy) {
			t.Errorf("expected ErrMalformedTaxonomy, got %v", err)
		}
	})

	t.Run("missing parent fails build", func(t *testing.T) {
		tree := &Tree{
			Version: "2022",
			Nodes: []Node{
				{Code: "51", Title: "Information"},
				// 5182 absent: 51821 has no resolvable parent.
				{Code: "51821", Title: "Data Processing, Hosting, and Related Services", ParentCode: "5182"},
			},
		}
		idx, err := Build(tree)
		if idx != nil {
			t.Error("expected nil index on malformed input")
		}
		if !errors.Is(err, ErrMalformedTaxonomy) {
			t.Errorf("expected ErrMalformedTaxonomy, got %v", err)
		}
		if !strings.Contains(err.Error(), "parent 5182 not found") {
			t.Errorf("error should name the missing parent: %v", err)
		}
	})

	t.Run("duplicate code fails build", func(t *testing.T) {
		tree := testTree()
		tree.Nodes = append(tree.Nodes, Node{Code: "51", Title: "Information Again"})
		_, err := Build(tree)
		if !errors.Is(err, ErrMalformedTaxonomy) {
			t.Errorf("expected ErrMalformedTaxonomy, got %v", err)
		}
		if !strings.Contains(err.Error(), "duplicate code") {
			t.Errorf("error should mention duplicate code: %v", err)
		}
	})

	t.Run("invalid code syntax fails build", func(t *testing.T) {
		for _, bad := range []string{"", "5", "1234567", "51-52", "ABC123"} {
			tree := testTree()
			tree.Nodes = append(tree.Nodes, Node{Code: bad, Title: "Broken"})
			_, err := Build(tree)
			if !errors.Is(err, ErrMalformedTaxonomy) {
				t.Errorf("code %q: expected ErrMalformedTaxonomy, got %v", bad, err)
			}
		}
	})

	t.Run("parentless node below sector level fails build", func(t *testing.T) {
		tree := &Tree{
			Version: "2022",
			Nodes: []Node{
				{Code: "51", Title: "Information"},
				{Code: "518", Title: "Computing Infrastructure Providers"},
			},
		}
		_, err := Build(tree)
		if !errors.Is(err, ErrMalformedTaxonomy) {
			t.Errorf("expected ErrMalformedTaxonomy, got %v", err)
		}
		if !strings.Contains(err.Error(), "parentless") {
			t.Errorf("error should mention the parentless violation: %v", err)
		}
	})

	t.Run("parent not a prefix fails build", func(t *testing.T) {
		tree := &Tree{
			Version: "2022",
			Nodes: []Node{
				{Code: "51", Title: "Information"},
				{Code: "52", Title: "Finance and Insurance"},
				{Code: "518", Title: "Computing Infrastructure Providers", ParentCode: "52"},
			},
		}
		_, err := Build(tree)
		if !errors.Is(err, ErrMalformedTaxonomy) {
			t.Errorf("expected ErrMalformedTaxonomy, got %v", err)
		}
		if !strings.Contains(err.Error(), "does not extend parent") {
			t.Errorf("error should mention the prefix violation: %v", err)
		}
	})

	t.Run("depth gap fails build", func(t *testing.T) {
		tree := &Tree{
			Version: "2022",
			Nodes: []Node{
				{Code: "51", Title: "Information"},
				// Skips the 518 level entirely.
				{Code: "5182", Title: "Data Processing, Hosting, and Related Services", ParentCode: "51"},
			},
		}
		_, err := Build(tree)
		if !errors.Is(err, ErrMalformedTaxonomy) {
			t.Errorf("expected ErrMalformedTaxonomy, got %v", err)
		}
		if !strings.Contains(err.Error(), "depth gap") {
			t.Errorf("error should mention the depth gap: %v", err)
		}
	})

	t.Run("all violations reported at once", func(t *testing.T) {
		tree := &Tree{
			Version: "2022",
			Nodes: []Node{
				{Code: "51", Title: "Information"},
				{Code: "51", Title: "Duplicate"},
				{Code: "bad", Title: "Syntax"},
				{Code: "51821", Title: "Orphan", ParentCode: "5182"},
			},
		}
		_, err := Build(tree)
		var buildErr *BuildError
		if !errors.As(err, &buildErr) {
			t.Fatalf("expected *BuildError, got %T", err)
		}
		if len(buildErr.Errors) != 3 {
			t.Errorf("expected 3 violations, got %d: %s", len(buildErr.Errors), buildErr.ErrorList())
		}
		if lines := strings.Split(buildErr.ErrorList(), "\n"); len(lines) != 3 {
			t.Errorf("ErrorList should have 3 lines, got %d", len(lines))
		}
	})

	t.Run("input children are discarded and recomputed", func(t *testing.T) {
		tree := testTree()
		tree.Nodes[0].Children = []string{"99", "98"}
		idx, err := Build(tree)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		kids, err := idx.Children("51")
		if err != nil {
			t.Fatalf("Children failed: %v", err)
		}
		if got := codesOf(kids); got != "512,518" {
			t.Errorf("Children(51) = %s, want 512,518", got)
		}
	})
}

func TestIndex_Lookup(t *testing.T) {
	idx := mustBuild(t)

	t.Run("existing code", func(t *testing.T) {
		n, ok := idx.Lookup("518210")
		if !ok {
			t.Fatal("expected to find 518210")
		}
		if n.ParentCode != "51821" {
			t.Errorf("ParentCode = %s, want 51821", n.ParentCode)
		}
		if n.Level() != 5 {
			t.Errorf("Level() = %d, want 5", n.Level())
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		if _, ok := idx.Lookup("999999"); ok {
			t.Error("expected miss for 999999")
		}
	})

	t.Run("lookup is exact, not normalized", func(t *testing.T) {
		if _, ok := idx.Lookup(" 51"); ok {
			t.Error("expected miss for padded code")
		}
	})
}

func TestIndex_Roots(t *testing.T) {
	idx := mustBuild(t)

	roots := idx.Roots()
	if got := codesOf(roots); got != "51,52" {
		t.Errorf("Roots() = %s, want 51,52 (publication order)", got)
	}

	t.Run("returns defensive copy", func(t *testing.T) {
		roots[0] = nil
		fresh := idx.Roots()
		if fresh[0] == nil {
			t.Error("index was mutated through the returned slice")
		}
	})
}

func TestIndex_Children(t *testing.T) {
	idx := mustBuild(t)

	t.Run("publication order preserved", func(t *testing.T) {
		kids, err := idx.Children("51")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := codesOf(kids); got != "512,518" {
			t.Errorf("Children(51) = %s, want 512,518", got)
		}
	})

	t.Run("leaf has no children and no error", func(t *testing.T) {
		kids, err := idx.Children("518210")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(kids) != 0 {
			t.Errorf("expected no children, got %s", codesOf(kids))
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := idx.Children("999999")
		if !errors.Is(err, ErrUnknownCode) {
			t.Errorf("expected ErrUnknownCode, got %v", err)
		}
	})
}

func TestIndex_AncestorChain(t *testing.T) {
	idx := mustBuild(t)

	t.Run("root chain is just the root", func(t *testing.T) {
		chain, err := idx.AncestorChain("51")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := codesOf(chain); got != "51" {
			t.Errorf("chain = %s, want 51", got)
		}
	})

	t.Run("leaf chain is root-first and ends at self", func(t *testing.T) {
		chain, err := idx.AncestorChain("518210")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := codesOf(chain); got != "51,518,5182,51821,518210" {
			t.Errorf("chain = %s, want 51,518,5182,51821,518210", got)
		}
	})

	t.Run("chain length equals level", func(t *testing.T) {
		for _, code := range []string{"51", "512", "5121", "5182", "51821", "518210"} {
			chain, err := idx.AncestorChain(code)
			if err != nil {
				t.Fatalf("chain %s: %v", code, err)
			}
			n, _ := idx.Lookup(code)
			if len(chain) != n.Level() {
				t.Errorf("chain %s: len = %d, want level %d", code, len(chain), n.Level())
			}
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := idx.AncestorChain("000000")
		if !errors.Is(err, ErrUnknownCode) {
			t.Errorf("expected ErrUnknownCode, got %v", err)
		}
	})

	t.Run("returns defensive copy", func(t *testing.T) {
		chain, _ := idx.AncestorChain("518210")
		chain[0] = nil
		fresh, _ := idx.AncestorChain("518210")
		if fresh[0] == nil {
			t.Error("index was mutated through the returned slice")
		}
	})
}

func TestIndex_ConcurrentReads(t *testing.T) {
	idx := mustBuild(t)
	engine := NewEngine(idx)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				idx.Lookup("518210")
				idx.Roots()
				_, _ = idx.Children("51")
				_, _ = idx.AncestorChain("518210")
				engine.Search("data processing")
			}
		}()
	}
	wg.Wait()
}

func TestBuildError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := &BuildError{Errors: []error{errors.New("test error")}}
		if err.Error() != "test error" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := &BuildError{Errors: []error{
			errors.New("first"),
			errors.New("second"),
			errors.New("third"),
		}}
		if msg := err.Error(); msg != "3 errors: first (and 2 more)" {
			t.Errorf("unexpected message: %s", msg)
		}
	})

	t.Run("errors.Is works with wrapped sentinels", func(t *testing.T) {
		err := &BuildError{Errors: []error{
			ErrMalformedTaxonomy,
			ErrUnknownCode,
		}}
		if !errors.Is(err, ErrMalformedTaxonomy) {
			t.Error("errors.Is should find ErrMalformedTaxonomy")
		}
		if !errors.Is(err, ErrUnknownCode) {
			t.Error("errors.Is should find ErrUnknownCode")
		}
	})
}
