package assets

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrInvalidToken = errors.New("invalid asset token")

type tokenClaims struct {
	AssetID   string `json:"assetId"`
	ExpiresAt int64  `json:"exp"`
}

// TokenSigner mints and verifies short-lived HMAC tokens that gate
// asset downloads without putting long-lived credentials in URLs.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenSigner{secret: []byte(strings.TrimSpace(secret)), ttl: ttl}
}

// Sign returns a token bound to one asset id. Signing never fails on
// well-formed input; the claims struct is marshal-safe.
func (s *TokenSigner) Sign(assetID string) string {
	claims := tokenClaims{
		AssetID:   strings.TrimSpace(assetID),
		ExpiresAt: time.Now().UTC().Add(s.ttl).Unix(),
	}
	payload, _ := json.Marshal(claims)

	encodedPayload := base64.RawURLEncoding.EncodeToString(payload)
	return encodedPayload + "." + s.signPayload(encodedPayload)
}

// Verify checks signature and expiry and returns the asset id the
// token was bound to.
func (s *TokenSigner) Verify(rawToken string) (string, error) {
	parts := strings.Split(strings.TrimSpace(rawToken), ".")
	if len(parts) != 2 {
		return "", ErrInvalidToken
	}

	encodedPayload, signature := parts[0], parts[1]
	if !hmac.Equal([]byte(signature), []byte(s.signPayload(encodedPayload))) {
		return "", ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return "", ErrInvalidToken
	}

	claims := tokenClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", ErrInvalidToken
	}
	if claims.AssetID == "" {
		return "", ErrInvalidToken
	}
	if claims.ExpiresAt < time.Now().UTC().Unix() {
		return "", ErrInvalidToken
	}
	return claims.AssetID, nil
}

func (s *TokenSigner) signPayload(encodedPayload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
