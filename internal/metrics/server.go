package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port string `envconfig:"METRICS_PORT" default:""`
}

// Server exposes the Prometheus scrape endpoint on its own port.
type Server struct {
	e *echo.Echo
}

// StartMetricsServer registers the requested service metrics and serves
// /metrics in the background. Returns nil when no metrics port is
// configured.
func StartMetricsServer(cfg Config, services []string, logger *logrus.Logger) *Server {
	if cfg.Port == "" {
		logger.Info("metrics port not configured, metrics server disabled")
		return nil
	}

	RegisterMetrics(services, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server stopped: %v", err)
		}
	}()

	logger.Infof("metrics server listening on :%s", cfg.Port)
	return &Server{e: e}
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
