package main

import (
	"context"

	"loremaster/backend/internal/graph"
	"loremaster/backend/pkg/config"
	"loremaster/backend/pkg/logger"
)

func openGraph(ctx context.Context) (*graph.Neo4jExecutor, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(logger.Options{Env: cfg.Env, Level: cfg.LogLevel, Service: cfg.OtelServiceName}); err != nil {
		return nil, nil, err
	}

	exec, err := graph.Connect(ctx, graph.Options{
		URI:            cfg.Neo4jURI,
		User:           cfg.Neo4jUser,
		Password:       cfg.Neo4jPassword,
		Database:       cfg.Neo4jDatabase,
		MaxPoolSize:    cfg.Neo4jMaxPoolSize,
		ConnectTimeout: cfg.Neo4jConnectTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return exec, cfg, nil
}
