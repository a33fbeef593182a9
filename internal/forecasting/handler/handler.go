package handler

import (
	"context"
	"net/http"

	"pipeline_forecast_backend/internal/forecasting/transport"
	"pipeline_forecast_backend/platform/httpkit"
	"pipeline_forecast_backend/platform/logger"
	"pipeline_forecast_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Service is the forecasting use-case surface the handler depends on.
type Service interface {
	Forecast(ctx context.Context, req transport.ForecastRequest) (transport.ForecastResponse, error)
	Historical(ctx context.Context, req transport.DateRangeRequest) (transport.HistoricalResponse, error)
	Conversion(ctx context.Context) (transport.ConversionResponse, error)
	Velocity(ctx context.Context, req transport.DateRangeRequest) (transport.VelocityResponse, error)
	Predictions(ctx context.Context, req transport.PredictionsRequest) (transport.PredictionsResponse, error)
	Reps(ctx context.Context, req transport.DateRangeRequest) (transport.RepsResponse, error)
	Health(ctx context.Context) (transport.HealthResponse, error)
}

// Handler handles HTTP requests for forecasting
type Handler struct {
	svc Service
	val *validator.Validator
	log *logger.Logger
}

// New creates a new forecasting handler
func New(svc Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// RegisterRoutes registers the forecasting routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/forecast", h.Forecast)
	rg.GET("/historical", h.Historical)
	rg.GET("/conversion", h.Conversion)
	rg.GET("/velocity", h.Velocity)
	rg.GET("/predictions", h.Predictions)
	rg.GET("/reps", h.Reps)
	rg.GET("/health", h.Health)
}

// Forecast handles GET /api/v1/forecasting/forecast
func (h *Handler) Forecast(c *gin.Context) {
	var req transport.ForecastRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Forecast(c.Request.Context(), req)
	if httpkit.HandleError(c, h.log, err) {
		return
	}

	httpkit.OK(c, result)
}

// Historical handles GET /api/v1/forecasting/historical
func (h *Handler) Historical(c *gin.Context) {
	var req transport.DateRangeRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Historical(c.Request.Context(), req)
	if httpkit.HandleError(c, h.log, err) {
		return
	}

	httpkit.OK(c, result)
}

// Conversion handles GET /api/v1/forecasting/conversion
func (h *Handler) Conversion(c *gin.Context) {
	result, err := h.svc.Conversion(c.Request.Context())
	if httpkit.HandleError(c, h.log, err) {
		return
	}

	httpkit.OK(c, result)
}

// Velocity handles GET /api/v1/forecasting/velocity
func (h *Handler) Velocity(c *gin.Context) {
	var req transport.DateRangeRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Velocity(c.Request.Context(), req)
	if httpkit.HandleError(c, h.log, err) {
		return
	}

	httpkit.OK(c, result)
}

// Predictions handles GET /api/v1/forecasting/predictions
func (h *Handler) Predictions(c *gin.Context) {
	var req transport.PredictionsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Predictions(c.Request.Context(), req)
	if httpkit.HandleError(c, h.log, err) {
		return
	}

	httpkit.OK(c, result)
}

// Reps handles GET /api/v1/forecasting/reps
func (h *Handler) Reps(c *gin.Context) {
	var req transport.DateRangeRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Reps(c.Request.Context(), req)
	if httpkit.HandleError(c, h.log, err) {
		return
	}

	httpkit.OK(c, result)
}

// Health handles GET /api/v1/forecasting/health
func (h *Handler) Health(c *gin.Context) {
	result, err := h.svc.Health(c.Request.Context())
	if httpkit.HandleError(c, h.log, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return false
	}
	return true
}
