package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID: userID,
		Email:  " shopper@example.com ",
		Role:   enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "shopper@example.com" {
		t.Fatalf("expected trimmed email, got %q", claims.Email)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("issuer mismatch: %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected generated jti")
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(now) {
		t.Fatalf("expected expiry in the future")
	}
}

func TestMintAccessTokenValidatesInput(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{Role: enums.UserRoleAdmin}); err == nil {
		t.Fatalf("expected missing user id error")
	}
	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: uuid.New(), Role: "owner"}); err == nil {
		t.Fatalf("expected invalid role error")
	}
	bad := cfg
	bad.Secret = ""
	if _, err := MintAccessToken(bad, now, AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleAdmin}); err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestParseAccessTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	cfg := testJWTConfig()
	payload := AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	expired, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), payload)
	if err != nil {
		t.Fatalf("mint expired token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}

	other := cfg
	other.Issuer = "someone-else"
	foreign, err := MintAccessToken(other, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint foreign token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, foreign); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, AccessTokenClaims{UserID: payload.UserID, Role: payload.Role})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, unsigned); err == nil || !strings.Contains(err.Error(), "signing method") {
		t.Fatalf("expected signing method rejection, got %v", err)
	}
}
