// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

/*
Package content implements the portal's generic key/value content store.

Administrators publish free-form text under well-known keys (today only the
global announcement banner); approved members read them. The store is
deliberately schemaless so new portal surfaces can claim keys without a
migration.
*/
package content

import "time"

// Entry is one published content value.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaxValueLength bounds a single content value.
const MaxValueLength = 4096

// Field identifiers for validation and JSON mapping.
const (
	FieldKey   = "key"
	FieldValue = "value"
)
