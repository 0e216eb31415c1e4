// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package events

import (
	"sync"
	"testing"
	"time"

	"github.com/AleutianAI/gangway/pkg/logging"
)

func TestEmitter_SubscribeAndEmit(t *testing.T) {
	e := NewEmitter(WithSessionID("session-1"))

	var mu sync.Mutex
	var got []*Event
	e.Subscribe(func(event *Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, event)
	})

	e.Emit(TypeNodeSelected, &NodeSelectedData{Code: "518210", Level: 5})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Type != TypeNodeSelected {
		t.Errorf("type = %s, want node_selected", got[0].Type)
	}
	if got[0].SessionID != "session-1" {
		t.Errorf("session = %s, want session-1", got[0].SessionID)
	}
	if got[0].ID == "" {
		t.Error("event ID should be set")
	}
	data, ok := got[0].Data.(*NodeSelectedData)
	if !ok {
		t.Fatalf("data type = %T, want *NodeSelectedData", got[0].Data)
	}
	if data.Code != "518210" {
		t.Errorf("code = %s, want 518210", data.Code)
	}
}

func TestEmitter_TypeFilter(t *testing.T) {
	e := NewEmitter()

	var count int
	e.Subscribe(func(event *Event) { count++ }, TypeNodeSelected)

	e.Emit(TypeNodeFocused, &NodeFocusedData{Code: "51"})
	e.Emit(TypeNodeSelected, &NodeSelectedData{Code: "518210"})
	e.Emit(TypeSearchPerformed, &SearchPerformedData{Query: "data"})

	if count != 1 {
		t.Errorf("expected 1 handled event, got %d", count)
	}
}

func TestEmitter_CustomFilter(t *testing.T) {
	e := NewEmitter()

	var count int
	e.SubscribeWithFilter(
		func(event *Event) { count++ },
		func(event *Event) bool {
			data, ok := event.Data.(*NodeSelectedData)
			return ok && data.Level >= 5
		},
	)

	e.Emit(TypeNodeSelected, &NodeSelectedData{Code: "51", Level: 1})
	e.Emit(TypeNodeSelected, &NodeSelectedData{Code: "518210", Level: 5})

	if count != 1 {
		t.Errorf("expected 1 handled event, got %d", count)
	}
}

func TestEmitter_Unsubscribe(t *testing.T) {
	e := NewEmitter()

	var count int
	id := e.Subscribe(func(event *Event) { count++ })

	e.Emit(TypeColumnOpened, nil)
	if !e.Unsubscribe(id) {
		t.Error("Unsubscribe should return true for a live subscription")
	}
	e.Emit(TypeColumnOpened, nil)

	if count != 1 {
		t.Errorf("expected 1 handled event, got %d", count)
	}
	if e.Unsubscribe(id) {
		t.Error("Unsubscribe should return false the second time")
	}
	if e.SubscriptionCount() != 0 {
		t.Errorf("expected 0 subscriptions, got %d", e.SubscriptionCount())
	}
}

func TestEmitter_HandlerPanicRecovered(t *testing.T) {
	e := NewEmitter()

	e.Subscribe(func(event *Event) { panic("observer bug") })

	var count int
	e.Subscribe(func(event *Event) { count++ })

	// Must not panic, and the second handler still runs.
	e.Emit(TypeNodeSelected, &NodeSelectedData{Code: "518210"})

	if count != 1 {
		t.Errorf("second handler should still run, got %d", count)
	}
}

func TestEmitter_Buffer(t *testing.T) {
	t.Run("buffers events", func(t *testing.T) {
		e := NewEmitter()
		e.Emit(TypeColumnOpened, &ColumnOpenedData{RootCount: 20})
		e.Emit(TypeNodeFocused, &NodeFocusedData{Code: "51"})

		if got := len(e.GetBuffer()); got != 2 {
			t.Errorf("buffer len = %d, want 2", got)
		}
		byType := e.GetBufferByType(TypeNodeFocused)
		if len(byType) != 1 {
			t.Errorf("focused events = %d, want 1", len(byType))
		}
	})

	t.Run("drops oldest at capacity", func(t *testing.T) {
		e := NewEmitter(WithBufferSize(2))
		e.Emit(TypeColumnOpened, nil)
		e.Emit(TypeNodeFocused, &NodeFocusedData{Code: "51"})
		e.Emit(TypeNodeSelected, &NodeSelectedData{Code: "518210"})

		buf := e.GetBuffer()
		if len(buf) != 2 {
			t.Fatalf("buffer len = %d, want 2", len(buf))
		}
		if buf[0].Type != TypeNodeFocused {
			t.Errorf("oldest kept = %s, want node_focused", buf[0].Type)
		}
	})

	t.Run("clear empties buffer", func(t *testing.T) {
		e := NewEmitter()
		e.Emit(TypeColumnOpened, nil)
		e.ClearBuffer()
		if got := len(e.GetBuffer()); got != 0 {
			t.Errorf("buffer len = %d, want 0", got)
		}
	})
}

func TestEmitter_ConcurrentEmit(t *testing.T) {
	e := NewEmitter()
	collector := NewMetricsCollector()
	e.Subscribe(collector.Handler())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.Emit(TypeSearchPerformed, &SearchPerformedData{Query: "data"})
			}
		}()
	}
	wg.Wait()

	if got := collector.Count(TypeSearchPerformed); got != 500 {
		t.Errorf("count = %d, want 500", got)
	}
}

func TestMetricsCollector(t *testing.T) {
	e := NewEmitter()
	collector := NewMetricsCollector()
	e.Subscribe(collector.Handler())

	e.Emit(TypeColumnOpened, nil)
	e.Emit(TypeNodeSelected, &NodeSelectedData{Code: "518210"})
	e.Emit(TypeNodeSelected, &NodeSelectedData{Code: "522110"})

	if got := collector.Count(TypeNodeSelected); got != 2 {
		t.Errorf("selected count = %d, want 2", got)
	}
	if got := collector.Count(TypeDatasetReloaded); got != 0 {
		t.Errorf("reloaded count = %d, want 0", got)
	}

	snap := collector.Snapshot()
	if snap[TypeColumnOpened] != 1 {
		t.Errorf("snapshot opened = %d, want 1", snap[TypeColumnOpened])
	}

	// Snapshot is a copy
	snap[TypeColumnOpened] = 99
	if got := collector.Count(TypeColumnOpened); got != 1 {
		t.Errorf("collector mutated through snapshot: %d", got)
	}
}

func TestLoggingHandler(t *testing.T) {
	exporter := logging.NewBufferedExporter()
	logger := logging.New(logging.Config{
		Level:    logging.LevelDebug,
		Exporter: exporter,
		Quiet:    true,
	})
	defer logger.Close()

	e := NewEmitter(WithSessionID("session-9"))
	e.Subscribe(NewLoggingHandler(logger))

	e.Emit(TypeNodeSelected, &NodeSelectedData{Code: "518210", Level: 5})
	e.Emit(TypeSearchPerformed, &SearchPerformedData{
		Query:       "data processing",
		ResultCount: 4,
		Duration:    3 * time.Millisecond,
	})

	time.Sleep(100 * time.Millisecond)

	entries := exporter.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	// Export is async, so match by message instead of position.
	var found bool
	for _, entry := range entries {
		if entry.Message != "classification selected" {
			continue
		}
		found = true
		if entry.Attrs["code"] != "518210" {
			t.Errorf("code attr = %v, want 518210", entry.Attrs["code"])
		}
		if entry.Attrs["session_id"] != "session-9" {
			t.Errorf("session attr = %v, want session-9", entry.Attrs["session_id"])
		}
	}
	if !found {
		t.Error("no 'classification selected' entry logged")
	}
}
