// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when a session is started without a token.
var ErrNoToken = errors.New("session: missing token")

// Claims are the operator identity fields carried in the console token.
// CreatedAt floors the backlog fetch: rows older than the operator
// account never surface.
type Claims struct {
	UserID    string `json:"userId"`
	CreatedAt string `json:"created_at"`
	jwt.RegisteredClaims
}

// AccountCreatedAt returns the backlog floor. It prefers the explicit
// created_at claim, falls back to the token's IssuedAt, and finally to
// the zero time, which fetches the whole backlog.
func (c *Claims) AccountCreatedAt() time.Time {
	if c.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, c.CreatedAt); err == nil {
			return t
		}
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// ParseClaims extracts claims from a console token. With a secret the
// signature is verified as HMAC; without one the token is decoded
// unverified, for deployments where the console fronts its own auth.
func ParseClaims(token, secret string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}
		return claims, nil
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("session: invalid token")
	}
	return claims, nil
}
