package identity

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoIdentityClaims is returned when a token decodes but names no role.
var ErrNoIdentityClaims = errors.New("access token carries no identity claims")

// FromAccessToken rebuilds a Snapshot from the claims of an access token.
//
// The signature is NOT verified: the client has no key, and the result is
// only used for routing until the API confirms the identity.
func FromAccessToken(accessToken string) (*Snapshot, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return nil, ErrNoIdentityClaims
	}

	s := &Snapshot{
		Role: Role(role),
	}
	if id, ok := int64Claim(claims["id"]); ok {
		s.ID = id
	} else if sub, err := claims.GetSubject(); err == nil {
		if id, ok := int64Claim(sub); ok {
			s.ID = id
		}
	}
	s.Name, _ = claims["name"].(string)
	s.Email, _ = claims["email"].(string)
	if academyID, ok := int64Claim(claims["academyId"]); ok {
		s.AcademyID = &academyID
	}
	s.AcademyAdmin, _ = claims["academyAdmin"].(bool)

	return s, nil
}

// int64Claim accepts the shapes a numeric claim takes after JSON decoding.
func int64Claim(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
