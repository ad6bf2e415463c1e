package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc/reflection"

	grpcctx "github.com/dtroode/authkeeper/internal/api/grpc/context"
	"github.com/dtroode/authkeeper/internal/api/grpc/router"
	grpcServer "github.com/dtroode/authkeeper/internal/api/grpc/server"
	"github.com/dtroode/authkeeper/internal/config"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/metrics"
	"github.com/dtroode/authkeeper/internal/model"
	"github.com/dtroode/authkeeper/internal/password"
	"github.com/dtroode/authkeeper/internal/repository/postgres"
	redisrepo "github.com/dtroode/authkeeper/internal/repository/redis"
	"github.com/dtroode/authkeeper/internal/server"
	"github.com/dtroode/authkeeper/internal/service"
	"github.com/dtroode/authkeeper/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	logAppVersion(logger)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	refreshTokenStore, closeRefreshStore, err := newRefreshTokenStore(ctx, cfg, db)
	if err != nil {
		logger.Fatal("failed to initialize refresh token store", "error", err, "store", cfg.RefreshStore)
	}
	defer closeRefreshStore()

	userRepo := postgres.NewUserRepository(db)
	transactor := postgres.NewTransactor(db)
	hasher := password.NewBcrypt(cfg.Password.Cost)
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	authService := service.NewAuth(userRepo, refreshTokenStore, transactor, hasher, tokenManager, logger)
	tokenService := service.NewTokenService(tokenManager, refreshTokenStore, logger)

	m := metrics.New()
	r := router.New(authService, tokenService, grpcctx.NewManager(), m, logger)
	s := r.Register()
	reflection.Register(s)
	gs := grpcServer.NewGRPCServer(s, fmt.Sprintf(":%s", cfg.GRPC.Port))
	sl := server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)
	metricsServer := m.NewServer(fmt.Sprintf(":%s", cfg.Metrics.Port))

	var wg sync.WaitGroup
	wg.Add(2)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting gRPC server", "address", s.Address(), "tls", cfg.GRPC.EnableHTTPS)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start gRPC server", "error", err)
			stop()
		}
	}(gs)
	go func() {
		defer wg.Done()
		logger.Info("Starting metrics server", "address", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start metrics server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	r.Shutdown()
	if err := gs.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", gs.Address())
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during metrics server shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// newRefreshTokenStore selects the refresh token backend. The returned
// function releases its resources.
func newRefreshTokenStore(ctx context.Context, cfg *config.Config, db *postgres.Connection) (model.RefreshTokenStore, func(), error) {
	switch cfg.RefreshStore {
	case config.RefreshStoreRedis:
		client, err := redisrepo.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return redisrepo.NewRefreshTokenStore(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil
	default:
		return postgres.NewRefreshTokenRepository(db), func() {}, nil
	}
}

func logAppVersion(logger *logger.Logger) {
	logger.Info("authkeeper",
		"version", buildVersion,
		"date", buildDate,
		"commit", buildCommit)
}
