// Package server hosts the HTTP transport for the tutoring backend.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edustack/mentora/internal/profile"
	apiv1 "github.com/edustack/mentora/server/router/api/v1"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the echo instance and its lifecycle.
type Server struct {
	e       *echo.Echo
	profile *profile.Profile
}

// NewServer assembles middleware and routes around the v1 API service.
func NewServer(instanceProfile *profile.Profile, api *apiv1.APIV1Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api.Register(e)

	return &Server{e: e, profile: instanceProfile}
}

// Start begins serving in the background. Startup failures other than a
// normal close are reported on the returned channel.
func (s *Server) Start(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	go func() {
		if err := s.e.Start(address); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	slog.Info("server started", "address", address, "mode", s.profile.Mode)
	return errCh
}

// Shutdown drains in-flight requests within the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server gracefully", "error", err)
	}
	slog.Info("server stopped")
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Warn("request failed", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)
				return nil
			}
			slog.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	})
}
