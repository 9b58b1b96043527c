package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/needsclan/Gk1/internal/cli"
	"github.com/needsclan/Gk1/internal/config"
	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/logger"
	"github.com/needsclan/Gk1/internal/repository"
	"github.com/needsclan/Gk1/internal/service"
	grpcTransport "github.com/needsclan/Gk1/internal/transport/grpc"
	mcpTransport "github.com/needsclan/Gk1/internal/transport/mcp"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// CLI modes own stdout.
	if cfg.Mode == config.ModeServer {
		logger.Init(cfg.LogLevel)
	} else {
		logger.InitTo(os.Stderr, cfg.LogLevel)
	}
	log := logger.Module("main")

	store, err := repository.Open(cfg.Backend, cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Str("db", cfg.DatabasePath).Msg("failed to open store")
	}
	defer store.Close()

	svc := service.New(store, logger.Module("service"))
	defer svc.Sessions.CloseAll()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cfg.Mode {
	case config.ModeInteractive:
		handler := cli.NewCommandHandler(svc, domain.ParticipantID(cfg.Participant))
		if err := cli.NewInteractiveCLI(handler, os.Stdin, os.Stdout).Run(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("cli error")
		}
	case config.ModeHeadless:
		handler := cli.NewCommandHandler(svc, domain.ParticipantID(cfg.Participant))
		if err := cli.NewHeadlessCLI(handler, os.Stdin, os.Stdout).Run(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("cli error")
		}
	default:
		runServerMode(ctx, cfg, svc)
	}
}

func runServerMode(ctx context.Context, cfg *config.Config, svc *service.Services) {
	log := logger.Module("main")
	log.Info().
		Str("backend", cfg.Backend).
		Str("db", cfg.DatabasePath).
		Str("grpc", cfg.GRPCAddress).
		Str("mcp", cfg.MCPAddress).
		Msg("inbox sync starting")

	grpcServer := grpcTransport.NewServer(svc, logger.Module("grpc"), grpcTransport.ServerConfig{
		Address: cfg.GRPCAddress,
	})
	mcpServer := mcpTransport.NewServer(svc, logger.Module("mcp"), mcpTransport.ServerConfig{
		Address: cfg.MCPAddress,
	})

	// Sessions opened by RPC and MCP calls are closed once idle.
	go svc.Sessions.RunSweeper(ctx, time.Minute)

	// Error channel for server errors
	errCh := make(chan error, 2)

	go func() {
		log.Info().Str("address", cfg.GRPCAddress).Msg("starting gRPC server")
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		log.Info().Str("address", cfg.MCPAddress).Msg("starting MCP SSE server")
		if err := mcpServer.Start(); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	// Print ready message for subprocess coordination
	fmt.Println("ready")

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("stopping gRPC server")
	grpcServer.Stop()

	log.Info().Msg("stopping MCP server")
	if err := mcpServer.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("MCP server stop error")
	}

	log.Info().Msg("shutdown complete")
}
