package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ogurasousui/contract-claims/internal/platform/config"
)

// ContextKey はコンテキストに格納するログ属性のキーです。
type ContextKey string

const (
	// RequestIDKey はリクエスト ID のキーです。
	RequestIDKey ContextKey = "request_id"
	// UserIDKey は認証済みユーザー ID のキーです。
	UserIDKey ContextKey = "user_id"
	// RoleKey は認証済みユーザーのロールのキーです。
	RoleKey ContextKey = "role"
)

var contextKeys = []ContextKey{RequestIDKey, UserIDKey, RoleKey}

// New は設定に従って slog.Logger を生成します。w が nil の場合は標準出力に書き出します。
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(contextHandler{Handler: handler})
}

func parseLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID はリクエスト ID をコンテキストに格納します。
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUser は認証済みユーザーの情報をコンテキストに格納します。
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RoleKey, role)
}

// RequestID はコンテキストのリクエスト ID を返します。
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

// contextHandler は *Context 系メソッドに渡されたコンテキストの値をレコードに付与します。
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		for _, key := range contextKeys {
			if v, ok := ctx.Value(key).(string); ok && v != "" {
				r.AddAttrs(slog.String(string(key), v))
			}
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}
