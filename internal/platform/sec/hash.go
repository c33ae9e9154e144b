// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashBootstrapToken hashes the admin bootstrap secret using bcrypt.
// Operators run this once and put the hash, not the plaintext, into the
// environment.
func HashBootstrapToken(plainTextToken string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash bootstrap token: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckBootstrapToken compares a presented bootstrap secret with the stored hash.
func CheckBootstrapToken(plainTextToken, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextToken))
	return err == nil
}
