// cmd/sitectl/env.go
package main

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratasite/internal/app/bootstrap"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// env is a connected deployment: config, logger, and backends.
type env struct {
	core   *config.CoreConfig
	app    bootstrap.AppConfig
	deps   bootstrap.DBDeps
	logger *zap.Logger
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// connect loads configuration and connects the backends the server uses.
// The caller must call close.
func connect(ctx context.Context) (*env, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	core, appCfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := bootstrap.ValidateConfig(core, appCfg, logger); err != nil {
		return nil, err
	}
	deps, err := bootstrap.ConnectDB(ctx, core, appCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &env{core: core, app: appCfg, deps: deps, logger: logger}, nil
}

func (e *env) close(ctx context.Context) {
	if e.deps.Queue != nil {
		_ = e.deps.Queue.Close()
	}
	if e.deps.Redis != nil {
		_ = e.deps.Redis.Close()
	}
	if e.deps.MongoClient != nil {
		if err := e.deps.MongoClient.Disconnect(ctx); err != nil {
			e.logger.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}
