// Package v1 provides the versioned JSON API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/visionassist/internal/domain"
	"github.com/xiaot623/visionassist/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	uploads UploadConfig
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, uploads UploadConfig) *Handler {
	return &Handler{
		service: service,
		uploads: uploads,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Chat
	e.POST("/v1/sessions", h.CreateSession)
	e.POST("/v1/sessions/:session_id/messages", h.SubmitMessage)
	e.GET("/v1/sessions/:session_id/messages", h.GetSessionMessages)
	e.DELETE("/v1/sessions/:session_id/messages", h.ClearSessionMessages)
	e.POST("/v1/sessions/:session_id/reset", h.ResetSession)
	e.GET("/v1/sessions/:session_id/events", h.GetSessionEvents)

	// Analysis
	e.POST("/v1/analysis", h.Analyze)
	e.POST("/v1/analysis/describe", h.DescribeImage)
	e.DELETE("/v1/analysis", h.ClearAnalysis)
	e.POST("/v1/media/analyze", h.AnalyzeMedia)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	if err := h.service.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorResponse maps local faults to an HTTP status.
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidSessionID), errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidRole):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
