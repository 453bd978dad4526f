// Package auth はログイン後に発行するセッショントークン (HS256 JWT) を扱います。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/platform/config"
)

// ErrInvalidToken はトークンが不正または期限切れの場合に返却されます。
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Claims はトークンに含める呼び出し元情報です。Subject にユーザー ID を格納します。
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens はトークンの発行と検証を行います。
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens は設定から Tokens を生成します。
func NewTokens(cfg config.AuthConfig) *Tokens {
	return &Tokens{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// Issue は呼び出し元のトークンと有効期限を返します。
func (t *Tokens) Issue(p access.Principal) (string, time.Time, error) {
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)

	claims := Claims{
		Name:  p.Name,
		Email: p.Email,
		Role:  string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse はトークンを検証し、呼び出し元を復元します。
func (t *Tokens) Parse(raw string) (access.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return access.Principal{}, ErrInvalidToken
	}

	role, err := access.ParseRole(claims.Role)
	if err != nil || claims.Subject == "" {
		return access.Principal{}, ErrInvalidToken
	}

	return access.Principal{
		UserID: claims.Subject,
		Role:   role,
		Name:   claims.Name,
		Email:  claims.Email,
	}, nil
}
