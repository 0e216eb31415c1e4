// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package loader

import (
	"context"
	"os"
	"testing"
	"time"
)

// waitForVersion polls the provider until it reports version or the
// deadline passes.
func waitForVersion(t *testing.T, p *Provider, version string, deadline time.Duration) bool {
	t.Helper()
	stop := time.Now().Add(deadline)
	for time.Now().Before(stop) {
		if p.Version() == version {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	p, path := newTestProvider(t)

	w, err := NewWatcher(p, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if !w.IsWatching() {
		t.Error("expected IsWatching after Start")
	}

	if err := os.WriteFile(path, []byte(datasetV2), 0o644); err != nil {
		t.Fatalf("rewrite dataset: %v", err)
	}
	if !waitForVersion(t, p, "2023", 5*time.Second) {
		t.Fatalf("watcher never reloaded, version still %q", p.Version())
	}
}

func TestWatcher_FailedReloadKeepsIndex(t *testing.T) {
	p, path := newTestProvider(t)

	w, err := NewWatcher(p, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("rewrite dataset: %v", err)
	}
	// Give the debounce window time to flush and the reload to fail.
	time.Sleep(500 * time.Millisecond)

	if p.Version() != "2022" {
		t.Errorf("Version() = %q, want previous 2022", p.Version())
	}
	if _, ok := p.Index().Lookup("518"); !ok {
		t.Error("previous index should survive a failed reload")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	p, path := newTestProvider(t)

	w, err := NewWatcher(p, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	sibling := path + ".bak"
	if err := os.WriteFile(sibling, []byte(datasetV2), 0o644); err != nil {
		t.Fatalf("write sibling: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if p.Version() != "2022" {
		t.Errorf("sibling write triggered reload, version = %q", p.Version())
	}
}

func TestWatcher_Stop(t *testing.T) {
	p, _ := newTestProvider(t)

	w, err := NewWatcher(p)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	w.Stop()
	if w.IsWatching() {
		t.Error("expected IsWatching false after Stop")
	}
	// Stop is idempotent.
	w.Stop()
}

func TestWatcher_StartTwice(t *testing.T) {
	p, _ := newTestProvider(t)

	w, err := NewWatcher(p)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	// Second Start is a no-op.
	if err := w.Start(context.Background()); err != nil {
		t.Errorf("second Start returned %v", err)
	}
	if !w.IsWatching() {
		t.Error("expected IsWatching after double Start")
	}
}
