// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranquang/staffdesk/internal/platform/sec"
)

func newTestTokenService(t *testing.T) *sec.TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return sec.NewTokenServiceFromKeys(key, &key.PublicKey, "id.staffdesk.test")
}

/*
TestTokenService_RoundTrip verifies that a generated token verifies and
carries the identity in both the custom claim and the subject.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTestTokenService(t)

	token, err := service.GenerateIdentityToken("idp|alice", time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "idp|alice", claims.Principal())
	assert.Equal(t, "idp|alice", claims.Subject)
}

/*
TestTokenService_RejectsExpired verifies that expired tokens fail verification.
*/
func TestTokenService_RejectsExpired(t *testing.T) {
	service := newTestTokenService(t)

	token, err := service.GenerateIdentityToken("idp|alice", -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

/*
TestTokenService_RejectsForeignKey verifies that a token signed by another
key pair is rejected.
*/
func TestTokenService_RejectsForeignKey(t *testing.T) {
	signer := newTestTokenService(t)
	verifier := newTestTokenService(t)

	token, err := signer.GenerateIdentityToken("idp|alice", time.Minute)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

/*
TestBootstrapToken verifies hashing and checking of the bootstrap secret.
*/
func TestBootstrapToken(t *testing.T) {
	hash, err := sec.HashBootstrapToken("hunter2")
	require.NoError(t, err)

	assert.True(t, sec.CheckBootstrapToken("hunter2", hash))
	assert.False(t, sec.CheckBootstrapToken("wrong", hash))
}
