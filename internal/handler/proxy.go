package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"

	"forward-proxy-go/internal/model"
	"forward-proxy-go/internal/service"
)

// ProxyHandler forwards every inbound request to the upstream authority.
type ProxyHandler struct {
	forwarder *service.Forwarder
	logger    *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(f *service.Forwarder, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		forwarder: f,
		logger:    logger.With("component", "proxy_handler"),
	}
}

// Handle buffers the inbound request, forwards it and relays the upstream
// status, headers and body. Failures are returned as *echo.HTTPError so the
// response body is whatever echo's error handler renders.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return h.mapError(c, fmt.Errorf("read request body: %w", err))
	}

	in := &model.InboundRequest{
		Method:      req.Method,
		Host:        req.Host,
		Path:        req.URL.Path,
		RawPath:     req.URL.RawPath,
		Query:       req.URL.Query(),
		Header:      req.Header,
		Body:        body,
		ContentType: req.Header.Get(echo.HeaderContentType),
	}

	resp, err := h.forwarder.Forward(req.Context(), in)
	if err != nil {
		return h.mapError(c, err)
	}

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}
	c.Response().WriteHeader(resp.StatusCode)

	if len(resp.Body) == 0 {
		return nil
	}
	// The status line is already out; a failed write can only be logged.
	if _, err := c.Response().Write(resp.Body); err != nil {
		h.logger.Error("writing response body",
			"err", err,
			"path", req.URL.Path,
		)
	}
	return nil
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	// Already classified, e.g. by the body limit middleware.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	status := upstreamErrorStatus(err)
	if status == http.StatusNotImplemented {
		h.logger.Warn("method not forwardable",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
		)
	} else {
		h.logger.Error("proxy error",
			"err", err,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
		)
	}
	return echo.NewHTTPError(status).SetInternal(err)
}

// upstreamErrorStatus picks the response status for a failed forward.
func upstreamErrorStatus(err error) int {
	if errors.Is(err, model.ErrUnsupportedMethod) {
		return http.StatusNotImplemented
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
