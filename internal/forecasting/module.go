// Package forecasting provides the pipeline forecasting and health module.
package forecasting

import (
	"fmt"

	"pipeline_forecast_backend/internal/forecasting/cache"
	"pipeline_forecast_backend/internal/forecasting/engine"
	"pipeline_forecast_backend/internal/forecasting/handler"
	"pipeline_forecast_backend/internal/forecasting/repository"
	"pipeline_forecast_backend/internal/forecasting/service"
	apphttp "pipeline_forecast_backend/internal/http"
	"pipeline_forecast_backend/platform/config"
	"pipeline_forecast_backend/platform/logger"
	"pipeline_forecast_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module represents the forecasting domain module
type Module struct {
	handler *handler.Handler
}

// NewService wires repository, engine and cache. A nil redis client
// disables response caching. The worker uses this without the HTTP layer.
func NewService(pool *pgxpool.Pool, rdb redis.Cmdable, cfg config.ForecastConfig, log *logger.Logger) (*service.Service, error) {
	tables, err := BuildTables(cfg.GetForecastTables())
	if err != nil {
		return nil, fmt.Errorf("forecast tables: %w", err)
	}
	health, err := BuildHealthSettings(cfg)
	if err != nil {
		return nil, fmt.Errorf("health settings: %w", err)
	}

	eng := engine.New(repository.New(pool), tables,
		engine.WithHealthSettings(health),
		engine.WithRepConcurrency(cfg.GetForecastRepConcurrency()),
		engine.WithLogger(log),
	)

	var c service.Cache
	if rdb != nil {
		c = cache.New(rdb, cfg.GetForecastCacheTTL())
	}
	return service.New(eng, c, log), nil
}

// NewModule creates a new forecasting module with all dependencies wired
func NewModule(pool *pgxpool.Pool, rdb redis.Cmdable, val *validator.Validator, cfg config.ForecastConfig, log *logger.Logger) (*Module, error) {
	svc, err := NewService(pool, rdb, cfg, log)
	if err != nil {
		return nil, err
	}

	return &Module{
		handler: handler.New(svc, val, log),
	}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "forecasting"
}

// RegisterRoutes registers the module's routes under /api/v1/forecasting
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	forecasting := ctx.Protected.Group("/forecasting")
	m.handler.RegisterRoutes(forecasting)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
