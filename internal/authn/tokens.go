// Package authn issues and verifies the gateway's own bearer tokens and CSRF
// cookies, hashes admin/user passwords, and maintains the per-user token
// revocation ledger. None of this has a direct analog in the teacher, which
// authenticates callers via wallet signatures rather than issued tokens; the
// package follows the teacher's error-handling and logging idiom while the
// token mechanics themselves are grounded on golang-jwt/jwt's standard usage.
package authn

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload issued on login.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer issues and verifies bearer tokens signed with a single HMAC secret.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
}

// NewIssuer constructs an Issuer. secret must be non-empty (enforced at config
// validation time) and lifetime defaults to one hour when zero.
func NewIssuer(secret string, lifetime time.Duration) *Issuer {
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	return &Issuer{secret: []byte(secret), lifetime: lifetime}
}

// Issue creates a signed bearer token for userID/role, expiring after the
// issuer's configured lifetime. The returned token_id (the JWT's jti claim)
// is what the revocation ledger tracks, so refresh/invalidate can target
// this exact session instead of every token the user holds.
func (i *Issuer) Issue(userID, role string) (signed, tokenID string, expiresAt time.Time, err error) {
	now := time.Now()
	expiresAt = now.Add(i.lifetime)
	tokenID = uuid.NewString()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err = token.SignedString(i.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return signed, tokenID, expiresAt, nil
}

// TokenID returns the token_id (jti claim) carried by claims.
func (c *Claims) TokenID() string {
	return c.RegisteredClaims.ID
}

// ErrInvalidToken is returned for any malformed, expired, or mis-signed token.
var ErrInvalidToken = errors.New("authn: invalid or expired token")

// Verify parses and validates a bearer token, returning its claims.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against its stored hash.
func CheckPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
