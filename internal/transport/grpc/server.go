package grpc

import (
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/needsclan/Gk1/internal/service"
)

const stopGrace = 5 * time.Second

type ServerConfig struct {
	Address string
}

type Server struct {
	server  *grpc.Server
	health  *health.Server
	handler *Handler
	config  ServerConfig
}

func NewServer(svc *service.Services, logger zerolog.Logger, config ServerConfig) *Server {
	handler := NewHandler(svc, logger)

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(logger),
			RecoveryInterceptor(logger),
		),
		grpc.ChainStreamInterceptor(
			StreamLoggingInterceptor(logger),
			StreamRecoveryInterceptor(logger),
		),
	)

	RegisterInboxSyncServer(server, handler)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthSrv)
	reflection.Register(server)

	return &Server{
		server:  server,
		health:  healthSrv,
		handler: handler,
		config:  config,
	}
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// Stop drains unary calls. Subscription streams never end on their own,
// so they are cut after a short grace period.
func (s *Server) Stop() {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopGrace):
		s.server.Stop()
	}
}
