// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

/*
Package modules manages administrator-defined custom portal modules.

A custom module is a tile on the portal surface: a title, a stable module ID
derived from that title, and an uploaded image rendered as the tile artwork.
Module IDs are slugs, so two modules whose titles collapse to the same slug
cannot coexist.
*/
package modules

import "time"

// CustomModule is one administrator-defined portal tile.
//
// The image bytes are stored inline (bytea) rather than on a blob store:
// tiles are small, capped by MaxImageBytes, and few.
type CustomModule struct {
	ModuleID    string    `json:"module_id"`
	Title       string    `json:"title"`
	ContentType string    `json:"content_type"`
	Image       []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ModuleSummary is the list representation of a module, without image bytes.
type ModuleSummary struct {
	ModuleID    string    `json:"module_id"`
	Title       string    `json:"title"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Limits for module fields.
const (
	MaxTitleLength    = 120
	MaxModuleIDLength = 64
)

// Field identifiers for validation and JSON mapping.
const (
	FieldTitle       = "title"
	FieldModuleID    = "module_id"
	FieldImage       = "image"
	FieldContentType = "content_type"
)
