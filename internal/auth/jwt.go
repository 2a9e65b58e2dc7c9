// Package auth provides bearer-token issuing/verification, password hashing
// and the HTTP middleware that guards the audit API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /api/register stores a username and a bcrypt hash
//  2. POST /api/login checks the hash and returns a signed JWT (1 hour)
//  3. The client sends "Authorization: Bearer <jwt>" on every audit request
//  4. RequireAuth verifies the signature and expiry and puts the caller's
//     identity (user ID + username) into the request context
//
// WHY JWT?
// The token is stateless: the server keeps no session table. Everything
// needed to identify the caller is inside the signed token, so verifying a
// request costs one HMAC and no database round trip. The flip side is that a
// token can't be revoked early; it simply stops verifying when it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/contract-auditor/internal/apperror"
	"github.com/sakif/contract-auditor/internal/model"
)

const (
	// DefaultTokenTTL is how long a login stays valid.
	DefaultTokenTTL = time.Hour

	issuer = "contract-auditor"
)

// ErrTokenExpired is wrapped by Validate when the only problem is expiry.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies access tokens with an HMAC secret.
// The same secret is used for both operations; it comes from JWT_SECRET.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and the
// default one-hour lifetime.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: DefaultTokenTTL}, nil
}

// claims is the JWT payload: the standard registered claims (sub = user ID)
// plus the username, so handlers can show who is logged in without a lookup.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Generate signs a token for id that expires after the service TTL.
func (s *TokenService) Generate(id model.Identity) (string, error) {
	return s.GenerateWithDuration(id, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime.
// Tests use a negative duration to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id model.Identity, d time.Duration) (string, error) {
	if id.UserID == "" {
		return "", errors.New("auth: cannot sign a token without a user ID")
	}

	now := time.Now()
	c := claims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity it carries.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired, and has an expiry at all
//   - Issuer matches (tokens from other apps sharing the secret are rejected)
//   - Algorithm is HS256 (prevents "alg: none" and algorithm confusion)
func (s *TokenService) Validate(tokenStr string) (model.Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Identity{}, ErrTokenExpired
		}
		return model.Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return model.Identity{}, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return model.Identity{}, errors.New("auth: token has no subject")
	}

	return model.Identity{UserID: c.Subject, Username: c.Username}, nil
}

// Authenticate is Validate with the API's error kinds: an empty token is
// apperror.Unauthorized, anything that fails verification is
// apperror.InvalidToken.
func (s *TokenService) Authenticate(tokenStr string) (model.Identity, error) {
	if tokenStr == "" {
		return model.Identity{}, apperror.Unauthorized()
	}
	id, err := s.Validate(tokenStr)
	if err != nil {
		return model.Identity{}, apperror.InvalidToken(err)
	}
	return id, nil
}
