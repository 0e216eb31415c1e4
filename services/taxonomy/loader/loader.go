// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package loader reads classification datasets from disk and serves the
// built index through a hot-reloadable Provider.
//
// A dataset file is JSON or YAML with a version tag and an ordered entry
// list:
//
//	{
//	  "version": "2022",
//	  "entries": [
//	    {"code": "51", "title": "Information"},
//	    {"code": "518", "title": "Computing Infrastructure Providers", "parent": "51"}
//	  ]
//	}
//
// Entry order is publication order and survives into the index's root and
// children listings. The loader validates fields (code syntax, required
// titles); structural invariants are enforced again by taxonomy.Build, which
// never trusts its input.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/gangway/pkg/validation"
	"github.com/AleutianAI/gangway/services/taxonomy"
)

// Sentinel errors for dataset loading.
var (
	// ErrDatasetNotFound is returned when the dataset file does not exist.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrInvalidDataset is returned when the dataset cannot be decoded or
	// fails field validation.
	ErrInvalidDataset = errors.New("invalid dataset")
)

// Format identifies a dataset encoding.
type Format string

const (
	// FormatJSON decodes with encoding/json.
	FormatJSON Format = "json"

	// FormatYAML decodes with yaml.v3.
	FormatYAML Format = "yaml"
)

// datasetValidate is the validator instance for dataset entries.
// Initialized in init() with the classcode validator.
var datasetValidate *validator.Validate

func init() {
	datasetValidate = validator.New()
	_ = datasetValidate.RegisterValidation("classcode", validateClassCode)
}

// validateClassCode accepts fixed-width numeric classification codes.
func validateClassCode(fl validator.FieldLevel) bool {
	return validation.ValidateCode(fl.Field().String()) == nil
}

// datasetFile mirrors the on-disk dataset layout.
type datasetFile struct {
	Version string         `json:"version" yaml:"version" validate:"required"`
	Entries []datasetEntry `json:"entries" yaml:"entries" validate:"required,min=1,dive"`
}

type datasetEntry struct {
	Code   string `json:"code" yaml:"code" validate:"required,classcode"`
	Title  string `json:"title" yaml:"title" validate:"required"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty" validate:"omitempty,classcode"`
}

// LoadFile reads a dataset file, dispatching on its extension.
//
// # Inputs
//
//   - path: a .json, .yaml, or .yml dataset file.
//
// # Outputs
//
//   - *taxonomy.Tree: decoded tree in publication order, ready for Build.
//   - error: ErrDatasetNotFound when the file is absent, ErrInvalidDataset
//     for anything the decoder or field validation rejects.
func LoadFile(path string) (*taxonomy.Tree, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidDataset, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dataset %s: %w", path, ErrDatasetNotFound)
		}
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	tree, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return tree, nil
}

// Parse decodes and field-validates dataset bytes.
func Parse(data []byte, format Format) (*taxonomy.Tree, error) {
	var file datasetFile
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidDataset, format)
	}

	if err := datasetValidate.Struct(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	tree := &taxonomy.Tree{
		Version: file.Version,
		Nodes:   make([]taxonomy.Node, len(file.Entries)),
	}
	for i, entry := range file.Entries {
		tree.Nodes[i] = taxonomy.Node{
			Code:       entry.Code,
			Title:      entry.Title,
			ParentCode: entry.Parent,
		}
	}
	return tree, nil
}
