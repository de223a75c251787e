package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	httpapi "toolrental-backend/internal/api/http"
	"toolrental-backend/internal/clock"
	"toolrental-backend/internal/config"
	"toolrental-backend/internal/identity"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/migration"
	"toolrental-backend/internal/repository"
	"toolrental-backend/internal/repository/memory"
	"toolrental-backend/internal/repository/postgres"
	"toolrental-backend/internal/security"
	"toolrental-backend/internal/service"
	"toolrental-backend/internal/storage"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", true, "Apply pending migrations on startup (postgres only)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting tool rental backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.GetHTTPAddress(), "grpc", cfg.GetGRPCAddress(), "store", cfg.Store.Type)

	store, err := openStore(cfg, *migrate)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Initialize Storage Service
	blobs, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		logger.Error("Failed to initialize image storage", "error", err)
		log.Fatalf("Failed to initialize image storage: %v", err)
	}
	uploads := storage.Config{
		UploadDir:     cfg.Storage.UploadDir,
		BaseURL:       cfg.Storage.BaseURL,
		MaxFileSizeMB: cfg.Storage.MaxFileSize,
		AllowedTypes:  cfg.Storage.AllowedTypes,
	}

	// Initialize Security
	loc := cfg.Location()
	clk := clock.NewReal(loc)
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())
	provider := identity.NewLocalProvider(store.Repos().Accounts, tokenManager)

	// Initialize Services
	services := &httpapi.Services{
		Inventory:  service.NewInventoryService(store, clk),
		Kardex:     service.NewKardexService(store, clk),
		Loans:      service.NewLoanService(store, clk),
		Items:      service.NewLineItemService(store, clk),
		Settlement: service.NewSettlementService(store, clk),
		Tools:      service.NewToolService(store, blobs, uploads),
		States:     service.NewToolStateService(store),
		Users:      service.NewUserService(store, provider),
	}

	router := httpapi.NewRouter(httpapi.NewHandler(services, tokenManager, uploads, loc))
	httpServer := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// Health checks for orchestrators, with reflection for grpcurl
	var grpcServer *grpc.Server
	if addr := cfg.GetGRPCAddress(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", addr)
			log.Fatalf("Failed to listen: %v", err)
		}
		grpcServer = grpc.NewServer()
		healthServer := health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthServer)
		reflection.Register(grpcServer)
		go watchStore(store, healthServer)

		go func() {
			logger.Info("gRPC health server listening", "address", addr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("Failed to serve gRPC", "error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info("Server stopped")
}

// openStore connects the configured backend. Postgres schemas are migrated
// before the store is handed out.
func openStore(cfg *config.Config, migrate bool) (repository.Store, error) {
	if cfg.Store.Type == config.StoreTypeMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewStore(), nil
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Database connection established")

	if migrate {
		m, err := migration.New(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := m.Up(); err != nil {
			db.Close()
			return nil, err
		}
	}
	return postgres.NewStore(db), nil
}

// watchStore flips the health status with the store's reachability.
func watchStore(store repository.Store, hs *health.Server) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		status := healthpb.HealthCheckResponse_SERVING
		if err := store.Ping(ctx); err != nil {
			logger.Warn("Store ping failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		cancel()
		hs.SetServingStatus("", status)
		<-ticker.C
	}
}
