package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"skillcoins/internal/infrastructure/config"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
	"skillcoins/internal/presentation/grpc/handler"
	"skillcoins/internal/presentation/grpc/interceptor"
	"skillcoins/internal/presentation/grpc/pb"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// Services gRPCハンドラーが依存するアプリケーションサービス
type Services struct {
	Ledger  handler.BalanceLedger
	Rewards handler.RewardService
	Bridge  handler.CommandBridge
}

// Server gRPCサーバー
//
// Minecraft側のホストサーバーはgrpc.health.v1で疎通を確認する。停止処理に入ると
// NOT_SERVINGに切り替わり、新しい呼び出しを他のインスタンスへ逃がせる。
type Server struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	port     int
	logger   *otelinfra.Logger
}

// NewServer 新しいgRPCサーバーを作成
func NewServer(cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics, svcs Services) (*Server, error) {
	address := fmt.Sprintf(":%d", cfg.GRPC.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	return NewServerWithListener(cfg, logger, metrics, svcs, listener, cfg.GRPC.Port)
}

// NewServerWithListener リスナーを指定してgRPCサーバーを作成（テスト用）
func NewServerWithListener(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	svcs Services,
	listener net.Listener,
	port int,
) (*Server, error) {
	interceptors := []grpc.UnaryServerInterceptor{interceptor.TracingInterceptor()}
	if metrics != nil {
		interceptors = append(interceptors, interceptor.MetricsInterceptor(metrics))
	}
	interceptors = append(interceptors,
		interceptor.ForService(pb.EconomyServiceName, interceptor.AuthInterceptor(&cfg.JWT, logger)),
		interceptor.ForService(pb.AdminServiceName, interceptor.APIKeyInterceptor(&cfg.AdminAPI, logger)),
		interceptor.LoggingInterceptor(logger),
	)

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(interceptors...),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     15 * time.Second,
			MaxConnectionAge:      30 * time.Second,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  5 * time.Second,
			Timeout:               1 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	grpcServer := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	pb.RegisterEconomyServiceServer(grpcServer, handler.NewEconomyHandler(svcs.Ledger, svcs.Rewards, svcs.Bridge))
	healthServer.SetServingStatus(pb.EconomyServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.AdminAPI.Enabled {
		pb.RegisterAdminServiceServer(grpcServer, handler.NewAdminHandler(svcs.Ledger))
		healthServer.SetServingStatus(pb.AdminServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	// リフレクションを有効化（開発環境用）
	if cfg.Environment == "development" {
		reflection.Register(grpcServer)
	}

	return &Server{
		server:   grpcServer,
		health:   healthServer,
		listener: listener,
		port:     port,
		logger:   logger,
	}, nil
}

// Start サーバーを起動。Stopによる終了はエラーにしない
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "gRPC server starting", map[string]interface{}{"port": s.port})
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop ヘルスをNOT_SERVINGにしてから処理中の呼び出しを待って停止する
//
// ctxが先に切れた場合は強制停止してctx.Err()を返す。
func (s *Server) Stop(ctx context.Context) error {
	s.health.Shutdown()
	s.logger.Info(ctx, "gRPC server draining", map[string]interface{}{"port": s.port})

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info(ctx, "gRPC server stopped", nil)
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "gRPC server drain timed out, forcing stop", nil)
		s.server.Stop()
		return ctx.Err()
	}
}

// Port サーバーのポート番号を返す
func (s *Server) Port() int {
	return s.port
}
