package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/contract-claims/internal/adapters/http/middleware"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
	"github.com/ogurasousui/contract-claims/internal/core/user"
)

// Tokens はトークンの発行と検証を行います。
type Tokens interface {
	TokenIssuer
	middleware.TokenParser
}

// Dependencies はルーター構築に必要な依存です。
type Dependencies struct {
	Claims      claim.UseCase
	Users       user.UseCase
	Tokens      Tokens
	HealthCheck func(context.Context) error
	Logger      *slog.Logger
}

// NewRouter は HTTP API のルーティングを構築します。
func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(log), middleware.RequestLogger(log))

	health := NewHealthHandler(deps.HealthCheck, log)
	r.GET("/health", health.Get)

	authHandler := NewAuthHandler(deps.Users, deps.Tokens, log)
	claims := NewClaimHandler(deps.Claims, log)
	reports := NewReportHandler(deps.Claims, log)
	dashboard := NewDashboardHandler(deps.Claims, log)
	users := NewUserHandler(deps.Users, log)

	api := r.Group("/api")
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.Authenticate(deps.Tokens))
	{
		secured.GET("/auth/me", authHandler.Me)

		secured.POST("/claims", claims.Submit)
		secured.GET("/claims", claims.ListAll)
		secured.GET("/claims/mine", claims.ListMine)
		secured.GET("/claims/pending", claims.ListPending)
		secured.GET("/claims/approval", claims.ListApproval)
		secured.GET("/claims/:id", claims.Get)
		secured.POST("/claims/:id/approve", claims.Approve)
		secured.POST("/claims/:id/reject", claims.Reject)
		secured.POST("/claims/:id/documents", claims.AttachDocument)

		secured.GET("/reports/summary", reports.Summary)
		secured.GET("/reports/claims.csv", reports.ClaimsCSV)
		secured.GET("/reports/summary.csv", reports.SummaryCSV)

		secured.GET("/dashboard", dashboard.Get)
		secured.GET("/users", users.List)
	}

	return r
}
