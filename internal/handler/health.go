// Package handler wires HTTP endpoints onto echo instances.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"forward-proxy-go/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// ProxyStatus is the body of GET /proxy/status.
type ProxyStatus struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	UpstreamURL    string `json:"upstream_url"`
	RewriteHost    bool   `json:"rewrite_host"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	BodyLimit      string `json:"body_limit"`
}

// HealthHandler serves the admin liveness and status endpoints.
type HealthHandler struct {
	status ProxyStatus
}

// NewHealthHandler creates a HealthHandler. The status body is fixed at
// startup since the configuration never changes while running.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{status: ProxyStatus{
		Status:         "ok",
		Version:        string(v),
		UpstreamURL:    cfg.Upstream.Authority().String(),
		RewriteHost:    cfg.Upstream.RewriteHost,
		TimeoutSeconds: cfg.Upstream.TimeoutSeconds,
		BodyLimit:      cfg.Server.BodyLimit.String(),
	}}
}

// Healthz answers liveness probes. It does not contact the upstream.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Status reports the version and where requests are being forwarded.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status)
}
