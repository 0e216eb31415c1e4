// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cascade implements the multi-column drill-down state of the intake
// wizard.
//
// A Controller holds one wizard's view over an immutable taxonomy index:
// a list of columns (one ordered sibling slice per materialized depth), the
// focused node, and the selected node. Column i+1 always contains exactly
// the children of the focus-path node in column i; columns beyond the focus
// path are never materialized.
//
// The controller manages state, not presentation. It returns column data for
// whatever front end renders it.
//
// # Thread Safety
//
// Controller is safe for concurrent use. All state transitions run under an
// internal mutex; events are emitted after the lock is released so observers
// may call back into the controller.
package cascade

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AleutianAI/gangway/services/taxonomy"
	"github.com/AleutianAI/gangway/services/taxonomy/events"
)

// ErrNilIndex is returned by New when no index is supplied.
var ErrNilIndex = errors.New("nil taxonomy index")

// Selection is the durable outcome of a Select call.
//
// Trail is the root-first ancestor chain ending at the selected node, ready
// for display as a breadcrumb or for profile storage. Only Select produces a
// Selection; focus changes never do.
type Selection struct {
	Node  *taxonomy.Node   `json:"node"`
	Trail []*taxonomy.Node `json:"trail"`
}

// Controller drives one wizard's cascading column state.
type Controller struct {
	mu       sync.Mutex
	idx      *taxonomy.Index
	emitter  *events.Emitter
	columns  [][]*taxonomy.Node
	focus    *taxonomy.Node
	selected *taxonomy.Node
}

// Option configures a Controller.
type Option func(*Controller)

// WithEmitter attaches an event emitter. Transitions then emit
// column_opened, node_focused, and node_selected events.
func WithEmitter(e *events.Emitter) Option {
	return func(c *Controller) {
		c.emitter = e
	}
}

// New creates a Controller over an index.
//
// The controller starts with no materialized columns; call Open to show the
// root column.
func New(idx *taxonomy.Index, opts ...Option) (*Controller, error) {
	if idx == nil {
		return nil, ErrNilIndex
	}
	c := &Controller{idx: idx}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Open resets the wizard to its initial state: one column holding the
// sector roots, no focus, no selection.
//
// Idempotent; safe to call at any point to start over.
func (c *Controller) Open() {
	c.mu.Lock()
	c.columns = [][]*taxonomy.Node{c.idx.Roots()}
	c.focus = nil
	c.selected = nil
	rootCount := len(c.columns[0])
	c.mu.Unlock()

	c.emit(events.TypeColumnOpened, &events.ColumnOpenedData{
		Version:   c.idx.Version(),
		RootCount: rootCount,
	})
}

// Focus moves focus to a code and rematerializes the column path to it.
//
// # Description
//
// Columns are recomputed from the node's ancestor chain: column 0 is the
// roots, column i the children of the chain's (i-1)th node, plus one more
// column with the focused node's own children when it has any. Focusing a
// shallower node drops the deeper columns.
//
// Focus alone never produces a Selection.
//
// # Outputs
//
//   - error: wraps taxonomy.ErrUnknownCode when the code is not indexed;
//     the column state is left untouched in that case.
func (c *Controller) Focus(code string) error {
	chain, err := c.idx.AncestorChain(code)
	if err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	node := chain[len(chain)-1]

	c.mu.Lock()
	c.columns = c.columnsFor(chain)
	c.focus = node
	columnCount := len(c.columns)
	c.mu.Unlock()

	c.emit(events.TypeNodeFocused, &events.NodeFocusedData{
		Code:        node.Code,
		Level:       node.Level(),
		ColumnCount: columnCount,
	})
	return nil
}

// Select records a code as the wizard's answer.
//
// # Description
//
// Select performs the equivalent of Focus(code) and additionally produces
// the durable Selection with its root-first trail. A new Selection always
// supersedes the previous one; selections never merge.
//
// # Outputs
//
//   - Selection: the selected node and its trail.
//   - error: wraps taxonomy.ErrUnknownCode when the code is not indexed;
//     neither focus nor selection state changes in that case.
func (c *Controller) Select(code string) (Selection, error) {
	chain, err := c.idx.AncestorChain(code)
	if err != nil {
		return Selection{}, fmt.Errorf("select: %w", err)
	}
	node := chain[len(chain)-1]

	c.mu.Lock()
	c.columns = c.columnsFor(chain)
	c.focus = node
	c.selected = node
	c.mu.Unlock()

	trail := make([]string, len(chain))
	for i, n := range chain {
		trail[i] = n.Code
	}
	c.emit(events.TypeNodeSelected, &events.NodeSelectedData{
		Code:  node.Code,
		Level: node.Level(),
		Trail: trail,
	})

	return Selection{Node: node, Trail: chain}, nil
}

// GetColumns returns the materialized columns, outermost first.
//
// Before Open the result is empty. The returned slices are copies; the
// nodes they point at are shared and must not be mutated.
func (c *Controller) GetColumns() [][]*taxonomy.Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]*taxonomy.Node, len(c.columns))
	for i, col := range c.columns {
		cp := make([]*taxonomy.Node, len(col))
		copy(cp, col)
		out[i] = cp
	}
	return out
}

// GetTrail returns the root-first trail of the current selection, or nil
// when nothing is selected.
func (c *Controller) GetTrail() []*taxonomy.Node {
	c.mu.Lock()
	selected := c.selected
	c.mu.Unlock()

	if selected == nil {
		return nil
	}
	chain, _ := c.idx.AncestorChain(selected.Code)
	return chain
}

// Focused returns the focused node, if any.
func (c *Controller) Focused() (*taxonomy.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus, c.focus != nil
}

// Selected returns the selected node, if any.
func (c *Controller) Selected() (*taxonomy.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != nil
}

// columnsFor materializes the column path for a root-first chain.
// Callers hold c.mu; the index itself needs no synchronization.
func (c *Controller) columnsFor(chain []*taxonomy.Node) [][]*taxonomy.Node {
	cols := [][]*taxonomy.Node{c.idx.Roots()}
	for i, n := range chain {
		// Chain nodes are always indexed, so Children cannot fail here.
		kids, _ := c.idx.Children(n.Code)
		if i == len(chain)-1 {
			if len(kids) > 0 {
				cols = append(cols, kids)
			}
			break
		}
		cols = append(cols, kids)
	}
	return cols
}

func (c *Controller) emit(eventType events.Type, data any) {
	if c.emitter == nil {
		return
	}
	c.emitter.Emit(eventType, data)
}
