package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/core/user"
)

// TokenIssuer はログイン成功時にセッショントークンを発行します。
type TokenIssuer interface {
	Issue(p access.Principal) (string, time.Time, error)
}

// AuthHandler はログイン API のハンドラーです。
type AuthHandler struct {
	users  user.UseCase
	tokens TokenIssuer
	log    *slog.Logger
}

// NewAuthHandler は AuthHandler を生成します。
func NewAuthHandler(users user.UseCase, tokens TokenIssuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log}
}

// LoginRequest はログインのリクエストです。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse はログインのレスポンスです。
type LoginResponse struct {
	Token       string       `json:"token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
	DefaultView string       `json:"default_view"`
}

// Login は資格情報を検証してトークンを発行します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_argument", Message: "username and password are required"})
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), user.AuthenticateInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.log.WarnContext(c.Request.Context(), "login failed", "username", req.Username, "error", err)
		writeError(c, h.log, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(u.Principal())
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.InfoContext(c.Request.Context(), "login succeeded", "user_id", u.ID, "role", string(u.Role))
	c.JSON(http.StatusOK, LoginResponse{
		Token:       token,
		ExpiresAt:   expiresAt,
		User:        toUserResponse(u),
		DefaultView: string(access.DefaultView(u.Role)),
	})
}

// Me はトークンの呼び出し元情報を返します。
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toPrincipalResponse(p))
}
