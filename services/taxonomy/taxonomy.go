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

// Node is a single classification entry.
//
// # Description
//
// A node is identified by a fixed-width numeric code of 2 to 6 digits. The
// hierarchy level is derived from the code length, never stored: a 2-digit
// code is a level-1 sector, a 6-digit code is a level-5 national industry.
// A node's parent code, when present, is the node's own code with the last
// digit removed.
//
// Children is derived during Build and lists child codes in dataset
// publication order. It is empty on nodes fed into Build; any value set by
// the caller is discarded and recomputed.
type Node struct {
	// Code is the numeric classification code, 2..6 digits.
	Code string `json:"code" yaml:"code"`

	// Title is the official classification title.
	Title string `json:"title" yaml:"title"`

	// ParentCode is empty for 2-digit sector roots.
	ParentCode string `json:"parent,omitempty" yaml:"parent,omitempty"`

	// Children holds child codes in publication order. Derived at Build.
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`
}

// Level returns the hierarchy depth derived from the code length.
//
// A 2-digit code is level 1, a 6-digit code is level 5. The result is only
// meaningful for a syntactically valid code; Build guarantees that for every
// indexed node.
func (n *Node) Level() int {
	return len(n.Code) - 1
}

// IsRoot reports whether the node is a top-level sector.
func (n *Node) IsRoot() bool {
	return n.ParentCode == ""
}

// Tree is an ordered classification dataset.
//
// # Description
//
// Nodes appear in publication order; Build preserves that order in root and
// children listings. A Tree is plain input data and carries no invariants of
// its own. Build validates everything before an Index is produced, so a Tree
// from an untrusted dataset file is safe to hand over as-is.
type Tree struct {
	// Version identifies the dataset vintage, e.g. "2022".
	Version string `json:"version" yaml:"version"`

	// Nodes in publication order.
	Nodes []Node `json:"nodes" yaml:"nodes"`
}
