package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/bodegacl/bodega-core/internal/config"
	"github.com/bodegacl/bodega-core/internal/engine"
	"github.com/bodegacl/bodega-core/internal/repository"
	"github.com/bodegacl/bodega-core/internal/server"
	"github.com/bodegacl/bodega-core/internal/services"
	"github.com/bodegacl/bodega-core/pkg/database"
	"github.com/bodegacl/bodega-core/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// Optional .env for local development; environment wins over file.
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting warehouse rule service",
		zap.Int("port", cfg.Server.Port),
		zap.Float64("reconcile_tolerance", cfg.Engine.ReconcileTolerance))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	catalogRepo := repository.NewCatalogRepository(db.DB, logger)
	lotRepo := repository.NewLotRepository(db.DB, logger)
	movementRepo := repository.NewMovementRepository(db.DB, logger)
	stockRepo := repository.NewStockRepository(db.DB, logger)
	workOrderRepo := repository.NewWorkOrderRepository(db.DB, logger)

	clock := engine.SystemClock{}
	allocator := engine.NewAllocator(clock, logger)

	reconciliationService := services.NewReconciliationService(
		movementRepo, stockRepo, cfg.Engine.ReconcileTolerance, logger)
	reportService := services.NewReportService(
		catalogRepo, lotRepo, stockRepo, movementRepo, workOrderRepo, logger)

	handlers := server.NewHandlers(
		allocator, clock, lotRepo,
		reconciliationService, reportService,
		cfg.Engine.ReconcileTolerance, cfg.Engine.ExpiryWindowDays,
		logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.NewRouter(handlers, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
