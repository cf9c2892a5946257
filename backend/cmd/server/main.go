package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/repository"
	"loremaster/backend/pkg/config"
	"loremaster/backend/pkg/logger"
	"loremaster/backend/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(logger.Options{Env: cfg.Env, Level: cfg.LogLevel, Service: cfg.OtelServiceName}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting graph API server...")

	shutdownTracing, err := tracing.Init(cfg.OtelEnabled, cfg.OtelServiceName, cfg.Env, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	ctx := context.Background()
	exec, err := graph.Connect(ctx, graph.Options{
		URI:            cfg.Neo4jURI,
		User:           cfg.Neo4jUser,
		Password:       cfg.Neo4jPassword,
		Database:       cfg.Neo4jDatabase,
		MaxPoolSize:    cfg.Neo4jMaxPoolSize,
		ConnectTimeout: cfg.Neo4jConnectTimeout,
	})
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	defer exec.Close(context.Background())

	repos := repository.NewRepositories(exec,
		repository.WithGraphLimits(cfg.GraphMaxDepth, cfg.GraphSampleLimit),
		repository.WithPageLimits(cfg.DefaultPageSize, cfg.MaxPageSize),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(exec, repos.Visualization, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
