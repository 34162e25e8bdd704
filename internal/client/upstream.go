// Package client provides the pooled HTTP client used to reach the upstream authority.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"forward-proxy-go/internal/config"
	"forward-proxy-go/internal/metrics"
	"forward-proxy-go/internal/model"
)

// UpstreamClient sends requests to the upstream authority. It is safe for
// concurrent use and is shared by every inbound request.
type UpstreamClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstreamClient creates an UpstreamClient with connection pooling and timeouts.
// Redirects are never followed: a 3xx from upstream is returned to the caller as is.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &UpstreamClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}
}

// Do executes req against the upstream and reads the whole response body.
// The provided context controls the lifetime of the upstream request.
func (c *UpstreamClient) Do(ctx context.Context, req *model.OutboundRequest) (*model.UpstreamResponse, error) {
	var body io.Reader
	if req.HasEntity() {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method.String(), req.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	httpReq.Header = req.Header
	if req.Host != "" {
		httpReq.Host = req.Host
	}

	c.logger.Debug("upstream request",
		"method", httpReq.Method,
		"path", httpReq.URL.Path,
		"body_bytes", len(req.Body),
	)

	method := metrics.NormalizeMethod(httpReq.Method)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(method, start, 0)
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(method, start, 0)
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	c.observe(method, start, resp.StatusCode)

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// observe records latency and outcome. A zero status marks a failed call.
func (c *UpstreamClient) observe(method string, start time.Time, status int) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if status == 0 {
		c.metrics.UpstreamErrors.WithLabelValues(method).Inc()
		return
	}
	c.metrics.UpstreamResponses.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Close releases pooled idle connections. It is safe to call more than once.
func (c *UpstreamClient) Close() {
	c.httpClient.CloseIdleConnections()
	c.logger.Debug("upstream connections released")
}
