// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

// Package sec provides cryptographic primitives and identity-token handling.
//
// # Architecture
//
// This package isolates security-sensitive code (token verification, bootstrap
// secret checking) from the domain logic. It acts as an Infrastructure service
// injected into the transport layer via the [middleware.TokenVerifier] interface.
//
// Staffdesk does not mint end-user identities itself: accounts live in an
// external identity provider that issues RS256 tokens. This package verifies
// them and exposes the stable subject as the caller Identity. The signing path
// exists for tests and local development, where the real provider is absent.
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside an identity token.
//
// # Identity
//
// The Identity claim is the opaque, stable caller principal from the identity
// provider. It is the sole key for all per-user state; the portal never
// inspects its structure.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Identity duplicates the Subject under a short custom claim so older
	// provider tokens that only set "idn" keep verifying.
	Identity string `json:"idn"`
}

// Principal returns the caller identity, preferring the custom claim and
// falling back to the registered Subject.
func (c *AuthClaims) Principal() string {
	if c.Identity != "" {
		return c.Identity
	}
	return c.Subject
}

// TokenService handles verification (and, for tests, generation) of RS256 tokens.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
}

// NewTokenService creates a new TokenService.
// It reads RSA keys from the provided filesystem paths. The private key path
// may be empty when the server only verifies tokens issued elsewhere.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	service := &TokenService{issuer: issuer}

	if privateKeyPath != "" {
		privateKeyData, err := os.ReadFile(privateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("sec: failed to read private key from %s: %w", privateKeyPath, err)
		}

		privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
		if err != nil {
			return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
		}
		service.privateKey = privateKey
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}
	service.publicKey = publicKey

	return service, nil
}

// NewTokenServiceFromKeys constructs a TokenService from in-memory keys.
// Used by tests that generate a throwaway key pair.
func NewTokenServiceFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string) *TokenService {
	return &TokenService{privateKey: privateKey, publicKey: publicKey, issuer: issuer}
}

// GenerateIdentityToken creates a signed token for the given identity.
func (service *TokenService) GenerateIdentityToken(identity string, timeToLive time.Duration) (string, error) {
	if service.privateKey == nil {
		return "", fmt.Errorf("sec: token service has no signing key")
	}

	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Identity: identity,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a token string.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	if claims.Principal() == "" {
		return nil, fmt.Errorf("sec: token carries no identity")
	}

	return claims, nil
}
