// Package authtoken implements the NRF's process-local OAuth2-style bearer
// token issuer and verifier (design notes §9: "retain the HS256 shape but
// isolate issue/verify behind a crisp abstraction").
package authtoken

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer signs and verifies HS256 bearer tokens with a key generated fresh at
// NF boot. Tokens never survive a restart, matching the "no persisted state"
// requirement in the external-interfaces section.
type Issuer struct {
	key    []byte
	nfInst string
}

// Claims carries the fields named in the external-interfaces section.
type Claims struct {
	Subject string `json:"sub"`
	Scope   string `json:"scope"`
	jwt.RegisteredClaims
}

// NewIssuer creates an issuer bound to the NRF's own instance id (used as iss;
// aud is always "nrf").
func NewIssuer(nfInstanceID string) (*Issuer, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return &Issuer{key: key, nfInst: nfInstanceID}, nil
}

// KeyFingerprint returns a short, non-sensitive identifier for logging — never
// the key itself.
func (i *Issuer) KeyFingerprint() string {
	return hex.EncodeToString(i.key[:4])
}

// Issue mints a token for subject sub with the given scope and lifetime ttl.
func (i *Issuer) Issue(sub, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Subject: sub,
		Scope:   scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.nfInst,
			Audience:  jwt.ClaimStrings{"nrf"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.key)
}

// Verify parses and validates a bearer token, returning its claims on success.
// Expired or unsigned (or wrong-key) tokens are rejected — the caller maps
// that to the "unauthenticated" kind.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}
