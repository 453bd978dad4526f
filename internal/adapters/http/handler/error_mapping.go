package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
	"github.com/ogurasousui/contract-claims/internal/core/user"
)

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func toHTTPError(err error) (int, ErrorResponse) {
	var (
		vErr      *claim.ValidationError
		maxErr    *http.MaxBytesError
		transErr  *claim.InvalidTransitionError
		storedErr *claim.StorageError
	)

	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, ErrorResponse{Error: "invalid_argument", Message: vErr.Message, Field: vErr.Field}
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: "too_large", Message: "request body is too large"}
	case errors.Is(err, claim.ErrInvalidID),
		errors.Is(err, user.ErrInvalidID),
		errors.Is(err, user.ErrInvalidStatus),
		errors.Is(err, user.ErrInvalidPageSize),
		errors.Is(err, user.ErrInvalidPageToken),
		errors.Is(err, access.ErrInvalidRole):
		return http.StatusBadRequest, ErrorResponse{Error: "invalid_argument", Message: err.Error()}
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "invalid username or password"}
	case errors.Is(err, claim.ErrUnauthorized),
		errors.Is(err, user.ErrForbidden),
		errors.Is(err, user.ErrInactiveUser):
		return http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: err.Error()}
	case errors.Is(err, claim.ErrClaimNotFound), errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()}
	case errors.As(err, &transErr):
		return http.StatusConflict, ErrorResponse{Error: "invalid_transition", Message: transErr.Error()}
	case errors.Is(err, claim.ErrInvalidTransition):
		return http.StatusConflict, ErrorResponse{Error: "invalid_transition", Message: err.Error()}
	case errors.Is(err, claim.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: "conflict", Message: "claim was modified concurrently, reload and retry"}
	case errors.As(err, &storedErr):
		return http.StatusBadGateway, ErrorResponse{Error: "storage_unavailable", Message: "document could not be stored"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: "internal server error"}
	}
}

func writeError(c *gin.Context, log *slog.Logger, err error) {
	code, body := toHTTPError(err)
	if code >= http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed", "error", err)
	}
	c.AbortWithStatusJSON(code, body)
}
