package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName は health サービスで公開するサービス名です。
const ServiceName = "contract_claims.v1.ClaimService"

const defaultCheckInterval = 15 * time.Second

// Server は運用向け gRPC サーバー (grpc.health.v1) のライフサイクルを管理します。
// 依存先の疎通確認を定期的に実行し、結果を health ステータスに反映します。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
	check      func(context.Context) error
	interval   time.Duration
	logger     *slog.Logger
}

// Option は Server の任意設定です。
type Option func(*Server)

// WithCheckInterval は疎通確認の間隔を設定します。
func WithCheckInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New は指定されたアドレスで待ち受ける gRPC サーバーを構築します。check が nil の場合は常に SERVING です。
func New(listenAddr string, check func(context.Context) error, opts ...Option) *Server {
	s := &Server{
		listenAddr: listenAddr,
		health:     health.NewServer(),
		check:      check,
		interval:   defaultCheckInterval,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logUnary))
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)

	return s
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は与えられたリスナーで待ち受けます。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.probe(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.grpcServer.GracefulStop()
				return
			case <-ticker.C:
				s.probe(ctx)
			}
		}
	}()

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// GracefulStop はサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

func (s *Server) probe(ctx context.Context) {
	if s.check == nil {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if err := s.check(checkCtx); err != nil {
		s.logger.WarnContext(ctx, "dependency check failed", "error", err)
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.DebugContext(ctx, "grpc request",
		"method", info.FullMethod,
		"latency_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	return resp, err
}
