package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"forward-proxy-go/internal/config"
	"forward-proxy-go/internal/metrics"
	"forward-proxy-go/internal/model"
)

// Admin is the echo instance behind the admin listener.
type Admin struct {
	*echo.Echo
}

// RegisterRoutes sends every path on the proxy listener to the proxy handler.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler) {
	e.Match(model.AcceptedMethods, "/", proxy.Handle)
	e.Match(model.AcceptedMethods, "/*", proxy.Handle)
}

// RegisterAdminRoutes wires health, status and, when m is non-nil, metrics.
func RegisterAdminRoutes(admin *Admin, health *HealthHandler, cfg *config.Config, m *metrics.Metrics) {
	admin.GET("/healthz", health.Healthz)
	admin.GET("/proxy/status", health.Status)

	if m != nil {
		admin.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
