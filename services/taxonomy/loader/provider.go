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
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/gangway/pkg/logging"
	"github.com/AleutianAI/gangway/services/taxonomy"
	"github.com/AleutianAI/gangway/services/taxonomy/events"
)

// snapshot pairs an index with its search engine so readers always see a
// matching pair.
type snapshot struct {
	idx    *taxonomy.Index
	engine *taxonomy.Engine
}

// Provider owns the live classification index and its rebuild-and-swap
// lifecycle.
//
// # Description
//
// The current index sits behind an atomic pointer. Readers take whatever
// snapshot is live at call time and keep using it for their whole request;
// a reload builds a complete new index first and swaps the pointer last, so
// in-flight reads never observe a half-built state. A failed reload leaves
// the previous snapshot in place.
//
// Concurrent Reload calls are deduplicated with singleflight: one rebuild
// runs, everyone gets its result.
//
// # Thread Safety
//
// Safe for concurrent use.
type Provider struct {
	source  string
	current atomic.Pointer[snapshot]
	flight  singleflight.Group
	logger  *logging.Logger
	emitter *events.Emitter
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the provider's logger.
func WithLogger(logger *logging.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithEmitter attaches an event emitter. Successful reloads then emit
// dataset_reloaded events.
func WithEmitter(e *events.Emitter) ProviderOption {
	return func(p *Provider) {
		p.emitter = e
	}
}

// NewProvider loads the dataset at source and returns a ready provider.
//
// # Inputs
//
//   - ctx: governs the initial load.
//   - source: dataset file path (.json, .yaml, or .yml).
//
// # Outputs
//
//   - *Provider: serving the freshly built index.
//   - error: any load or build failure; no provider is returned on error,
//     so a service fails fast on a broken dataset at startup.
func NewProvider(ctx context.Context, source string, opts ...ProviderOption) (*Provider, error) {
	p := &Provider{source: source}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.Default()
	}

	if err := p.Reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload rebuilds the index from the source file and swaps it in.
//
// # Description
//
// Load and build run off to the side; the live snapshot is replaced only
// after the new index is fully built. On any failure the previous snapshot
// stays live and the error is returned. Concurrent callers share a single
// rebuild.
func (p *Provider) Reload(ctx context.Context) error {
	_, err, _ := p.flight.Do("reload", func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tree, err := LoadFile(p.source)
		if err != nil {
			p.logger.Error("dataset load failed", "source", p.source, "error", err)
			return nil, err
		}

		idx, err := taxonomy.Build(tree)
		if err != nil {
			p.logger.Error("dataset build failed", "source", p.source, "error", err)
			return nil, err
		}

		p.current.Store(&snapshot{idx: idx, engine: taxonomy.NewEngine(idx)})
		p.logger.Info("dataset loaded",
			"source", p.source,
			"version", idx.Version(),
			"node_count", idx.Len(),
		)
		if p.emitter != nil {
			p.emitter.Emit(events.TypeDatasetReloaded, &events.DatasetReloadedData{
				Version:   idx.Version(),
				NodeCount: idx.Len(),
				Source:    p.source,
			})
		}
		return nil, nil
	})
	return err
}

// Index returns the live index.
func (p *Provider) Index() *taxonomy.Index {
	return p.current.Load().idx
}

// Engine returns the search engine over the live index.
func (p *Provider) Engine() *taxonomy.Engine {
	return p.current.Load().engine
}

// Version returns the live dataset vintage.
func (p *Provider) Version() string {
	return p.current.Load().idx.Version()
}

// Source returns the dataset path the provider reloads from.
func (p *Provider) Source() string {
	return p.source
}
