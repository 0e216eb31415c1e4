// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for user-supplied values.
//
// This package contains validators for inputs that cross trust boundaries:
// classification codes arriving from HTTP requests, dataset files, and CLI
// arguments. Validating here keeps the taxonomy core free of re-checks on
// every hot-path lookup.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// codePattern matches valid classification codes.
// Codes are fixed-width numeric strings: 2 digits (sector) through
// 6 digits (national industry). Length determines nesting level.
var codePattern = regexp.MustCompile(`^[0-9]{2,6}$`)

// MinCodeLen and MaxCodeLen bound the accepted code widths.
const (
	MinCodeLen = 2
	MaxCodeLen = 6
)

// ValidateCode validates a classification code string.
//
// Valid codes:
//   - 2-6 characters
//   - Digits 0-9 only (no separators, no letters)
//
// Returns an error if the code is invalid.
//
// Example:
//
//	if err := validation.ValidateCode(code); err != nil {
//	    return nil, fmt.Errorf("invalid code: %w", err)
//	}
//	// Safe to use as an index key
func ValidateCode(code string) error {
	if code == "" {
		return fmt.Errorf("code cannot be empty")
	}

	if !codePattern.MatchString(code) {
		return fmt.Errorf("invalid code format: %q (must be 2-6 digits)", code)
	}

	return nil
}

// ValidateCodes validates multiple classification codes.
// Returns an error listing all invalid codes if any fail validation.
func ValidateCodes(codes []string) error {
	var invalid []string
	for _, c := range codes {
		if err := ValidateCode(c); err != nil {
			invalid = append(invalid, c)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid codes: %v", invalid)
	}
	return nil
}

// SanitizeCode normalizes and validates a classification code.
// Returns the trimmed code if valid, or an error if invalid.
//
// Use this on raw request input before touching the index:
//
//	safeCode, err := validation.SanitizeCode(userInput)
//	if err != nil {
//	    return err
//	}
//	// safeCode is trimmed and validated
func SanitizeCode(code string) (string, error) {
	normalized := strings.TrimSpace(code)
	if err := ValidateCode(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// CodeLevel returns the nesting level derived from code length.
// A 2-digit sector is level 1; each additional digit adds one level,
// up to level 5 for a 6-digit code.
func CodeLevel(code string) (int, error) {
	if err := ValidateCode(code); err != nil {
		return 0, err
	}
	return len(code) - 1, nil
}
