package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/platform/logger"
)

const principalKey = "principal"

// TokenParser はベアラートークンから呼び出し元を復元します。
type TokenParser interface {
	Parse(raw string) (access.Principal, error)
}

// Authenticate は Authorization: Bearer ヘッダーを検証し、呼び出し元を gin コンテキストに格納します。
func Authenticate(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthenticated(c, "authorization header required")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthenticated(c, "invalid authorization header format")
			return
		}

		p, err := parser.Parse(strings.TrimSpace(token))
		if err != nil {
			abortUnauthenticated(c, "invalid or expired token")
			return
		}

		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(logger.WithUser(c.Request.Context(), p.UserID, string(p.Role)))

		c.Next()
	}
}

// GetPrincipal は認証済みの呼び出し元を返します。
func GetPrincipal(c *gin.Context) (access.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthenticated",
		"message": msg,
	})
}
