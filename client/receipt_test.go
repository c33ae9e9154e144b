// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package client_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranquang/staffdesk/client"
)

func newStore(t *testing.T) *client.ReceiptStore {
	t.Helper()
	return client.NewReceiptStore(filepath.Join(t.TempDir(), "receipt.json"))
}

/*
TestReceiptStore_RoundTrip verifies save, load, and clear for one identity.
*/
func TestReceiptStore_RoundTrip(t *testing.T) {
	store := newStore(t)
	receipt := &client.Receipt{Name: "Alice", FourCharID: "QX7B"}

	// 1. Nothing saved yet
	_, ok := store.Load("idp|alice")
	assert.False(t, ok)

	// 2. Save and reload
	require.NoError(t, store.Save("idp|alice", receipt))
	loaded, ok := store.Load("idp|alice")
	require.True(t, ok)
	assert.Equal(t, "Alice", loaded.Name)
	assert.Equal(t, "QX7B", loaded.FourCharID)

	// 3. Clear is idempotent
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, ok = store.Load("idp|alice")
	assert.False(t, ok)
}

/*
TestReceiptStore_IdentityScoped verifies that a receipt saved by one
identity is invisible to another, and that the mismatch clears the file so
the original identity cannot see it afterwards either.
*/
func TestReceiptStore_IdentityScoped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.json")
	store := client.NewReceiptStore(path)

	require.NoError(t, store.Save("idp|alice", &client.Receipt{Name: "Alice", FourCharID: "QX7B"}))

	// 1. A different identity on the same machine sees nothing
	_, ok := store.Load("idp|bob")
	assert.False(t, ok)

	// 2. The stale file was removed by the mismatch
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// 3. Even the original identity no longer finds it
	_, ok = store.Load("idp|alice")
	assert.False(t, ok)
}

/*
TestReceiptStore_CorruptFile verifies that an unreadable receipt file is
treated as absent and removed.
*/
func TestReceiptStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := client.NewReceiptStore(path)
	_, ok := store.Load("idp|alice")
	assert.False(t, ok)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
