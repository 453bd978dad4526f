package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/platform/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokens(now time.Time) *Tokens {
	tokens := NewTokens(config.AuthConfig{JWTSecret: testSecret, Issuer: "contract-claims", TokenTTL: time.Hour})
	tokens.now = func() time.Time { return now }
	return tokens
}

func TestTokens_IssueAndParse(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	tokens := newTestTokens(now)

	p := access.Principal{UserID: "7", Role: access.RoleProgrammeCoordinator, Name: "Coordinator", Email: "pc@example.com"}
	raw, expiresAt, err := tokens.Issue(p)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	got, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got != p {
		t.Fatalf("expected %+v, got %+v", p, got)
	}
}

func TestTokens_ParseRejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	tokens := newTestTokens(now)
	valid, _, err := tokens.Issue(access.Principal{UserID: "1", Role: access.RoleLecturer})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	expired := newTestTokens(now.Add(2 * time.Hour))

	otherIssuer := NewTokens(config.AuthConfig{JWTSecret: testSecret, Issuer: "someone-else", TokenTTL: time.Hour})
	otherIssuer.now = func() time.Time { return now }
	foreign, _, _ := otherIssuer.Issue(access.Principal{UserID: "1", Role: access.RoleLecturer})

	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "dean",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "contract-claims",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: "contract-claims"},
	}).SignedString([]byte(testSecret))

	cases := []struct {
		name   string
		tokens *Tokens
		raw    string
	}{
		{"garbage", tokens, "not.a.token"},
		{"expired", expired, valid},
		{"wrong issuer", tokens, foreign},
		{"unknown role", tokens, badRole},
		{"missing expiry", tokens, noExpiry},
		{"tampered", tokens, valid + "x"},
	}

	for _, tc := range cases {
		if _, err := tc.tokens.Parse(tc.raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", tc.name, err)
		}
	}
}
