// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// # Receipt Store

// ReceiptStore persists the pending-request receipt between runs, so the
// portal can show "request pending, code QX7B" without asking the server.
//
// # Identity Scoping
//
// The stored receipt is bound to the identity that created it. Loading
// under a different identity silently clears the file: a receipt must
// never leak across sign-ins on a shared machine.
type ReceiptStore struct {
	path string
}

// storedReceipt is the on-disk document.
type storedReceipt struct {
	Identity   string    `json:"identity"`
	Name       string    `json:"name"`
	FourCharID string    `json:"four_char_id"`
	SavedAt    time.Time `json:"saved_at"`
}

// NewReceiptStore creates a store persisting to the given file path.
// Parent directories are created on first save.
func NewReceiptStore(path string) *ReceiptStore {
	return &ReceiptStore{path: path}
}

// Load returns the receipt saved for the given identity.
//
// Returns (nil, false) when no receipt exists, the file is corrupt, or the
// receipt belongs to a different identity — the latter two also clear the
// file so the bad state cannot recur.
func (s *ReceiptStore) Load(identity string) (*Receipt, bool) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}

	var stored storedReceipt
	if err := json.Unmarshal(raw, &stored); err != nil {
		_ = os.Remove(s.path)
		return nil, false
	}

	if stored.Identity != identity {
		_ = os.Remove(s.path)
		return nil, false
	}

	return &Receipt{Name: stored.Name, FourCharID: stored.FourCharID}, true
}

// Save persists a receipt for the given identity, replacing any previous one.
func (s *ReceiptStore) Save(identity string, receipt *Receipt) error {
	stored := storedReceipt{
		Identity:   identity,
		Name:       receipt.Name,
		FourCharID: receipt.FourCharID,
		SavedAt:    time.Now().UTC(),
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("staffdesk: encoding receipt: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("staffdesk: creating receipt directory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("staffdesk: writing receipt: %w", err)
	}
	return nil
}

// Clear removes any saved receipt. Missing files are not an error.
func (s *ReceiptStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("staffdesk: clearing receipt: %w", err)
	}
	return nil
}
