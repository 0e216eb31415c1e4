// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/gangway/pkg/validation"
	"github.com/AleutianAI/gangway/services/intake/datatypes"
	"github.com/AleutianAI/gangway/services/taxonomy"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
)

// HandleCodeLookup serves GET /v1/classification/codes/:code.
//
// Returns 400 for a syntactically invalid code and 404 for a valid code
// that is not in the loaded taxonomy.
func HandleCodeLookup(provider *loader.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := validation.SanitizeCode(c.Param("code"))
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse(err.Error()))
			return
		}

		node, ok := provider.Index().Lookup(code)
		if !ok {
			c.JSON(http.StatusNotFound, datatypes.NewErrorResponse("unknown classification code"))
			return
		}

		c.JSON(http.StatusOK, datatypes.NewNodeView(node))
	}
}

// HandleCodeChildren serves GET /v1/classification/codes/:code/children.
//
// Children come back in dataset publication order. A leaf returns an
// empty list, not an error.
func HandleCodeChildren(provider *loader.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := validation.SanitizeCode(c.Param("code"))
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse(err.Error()))
			return
		}

		children, err := provider.Index().Children(code)
		if err != nil {
			if errors.Is(err, taxonomy.ErrUnknownCode) {
				c.JSON(http.StatusNotFound, datatypes.NewErrorResponse("unknown classification code"))
				return
			}
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("lookup failed"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"code":     code,
			"children": datatypes.NewNodeViews(children),
		})
	}
}

// HandleCodeTrail serves GET /v1/classification/codes/:code/trail.
//
// The trail is the root-first ancestor chain ending at the code itself.
func HandleCodeTrail(provider *loader.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := validation.SanitizeCode(c.Param("code"))
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.NewErrorResponse(err.Error()))
			return
		}

		chain, err := provider.Index().AncestorChain(code)
		if err != nil {
			if errors.Is(err, taxonomy.ErrUnknownCode) {
				c.JSON(http.StatusNotFound, datatypes.NewErrorResponse("unknown classification code"))
				return
			}
			c.JSON(http.StatusInternalServerError, datatypes.NewErrorResponse("lookup failed"))
			return
		}

		c.JSON(http.StatusOK, datatypes.NewTrailResponse("", code, chain))
	}
}
