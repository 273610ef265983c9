// Package http provides the HTTP server for the assistant.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/visionassist/internal/service"
	v1 "github.com/xiaot623/visionassist/internal/transport/http/v1"
	"github.com/xiaot623/visionassist/internal/transport/ws"
)

// NewServer creates the JSON API and WebSocket server.
func NewServer(svc *service.Service, uploads v1.UploadConfig, wsServer *ws.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	v1Handler := v1.NewHandler(svc, uploads)
	v1Handler.RegisterRoutes(e)

	if wsServer != nil {
		e.GET("/ws", wsServer.HandleWebSocket)
	}

	return e
}
