package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/core/user"
)

// UserHandler は職員ディレクトリ API のハンドラーです。
type UserHandler struct {
	svc user.UseCase
	log *slog.Logger
}

// NewUserHandler は UserHandler を生成します。
func NewUserHandler(svc user.UseCase, log *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// ListUsersResponse はユーザー一覧のレスポンスです。
type ListUsersResponse struct {
	Users         []UserResponse `json:"users"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

// List はユーザーの一覧を返します。
func (h *UserHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	in := user.ListUsersInput{Actor: p, PageToken: c.Query("page_token")}

	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, h.log, user.ErrInvalidPageSize)
			return
		}
		in.PageSize = size
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := user.Status(strings.ToLower(raw))
		in.Status = &status
	}

	if raw := strings.TrimSpace(c.Query("role")); raw != "" {
		role := access.Role(strings.ToLower(raw))
		in.Role = &role
	}

	result, err := h.svc.ListUsers(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	users := make([]UserResponse, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, toUserResponse(u))
	}
	c.JSON(http.StatusOK, ListUsersResponse{Users: users, NextPageToken: result.NextPageToken})
}
