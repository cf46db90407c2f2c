package assets

import (
	"strings"
	"testing"
	"time"
)

func TestTokenSignVerifyRoundTrip(t *testing.T) {
	signer := NewTokenSigner("secret", time.Minute)

	token := signer.Sign("asset-123")
	assetID, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if assetID != "asset-123" {
		t.Fatalf("unexpected asset id %q", assetID)
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	signer := NewTokenSigner("secret", time.Minute)
	token := signer.Sign("asset-123")

	parts := strings.Split(token, ".")
	tampered := parts[0] + "x." + parts[1]
	if _, err := signer.Verify(tampered); err == nil {
		t.Fatal("tampered payload must not verify")
	}

	if _, err := signer.Verify(parts[0]); err == nil {
		t.Fatal("missing signature must not verify")
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token := NewTokenSigner("secret-a", time.Minute).Sign("asset-123")
	if _, err := NewTokenSigner("secret-b", time.Minute).Verify(token); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestTokenExpires(t *testing.T) {
	signer := NewTokenSigner("secret", time.Minute)
	signer.ttl = -2 * time.Second

	token := signer.Sign("asset-123")
	if _, err := signer.Verify(token); err == nil {
		t.Fatal("expired token must not verify")
	}
}
