// Package httpapi exposes a minimal, read-only status surface over the
// controller facade: current channel connectivity and node state, for
// operators and external monitoring, nothing else.
package httpapi

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/wenchangshou/devicectl/internal/healthcheck"
)

// Server wraps an echo instance bound to a fixed set of status routes.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// New builds a Server listening on addr (":8080"-style), registering
// status routes backed by facade. checker may be nil, in which case
// /health always reports an empty check list.
func New(logger *slog.Logger, addr string, facade StatusSource, checker healthcheck.Checker) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	log := logger.With(slog.String("component", "httpapi"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	h := &handler{facade: facade, checker: checker}
	h.register(e)

	return &Server{echo: e, addr: addr, logger: log}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
