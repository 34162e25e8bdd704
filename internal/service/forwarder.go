// Package service implements the core forwarding logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"forward-proxy-go/internal/client"
	"forward-proxy-go/internal/config"
	"forward-proxy-go/internal/model"
)

// excludedRequestHeaders are never copied upstream. The transport recomputes
// the length from the attached body. Keys are lower-case.
var excludedRequestHeaders = map[string]bool{
	"content-length": true,
}

// excludedResponseHeaders are never relayed to the caller. Keys are lower-case.
var excludedResponseHeaders = map[string]bool{
	"content-length":          true,
	"transfer-encoding":       true,
	"content-security-policy": true,
}

// upstream executes outbound requests. *client.UpstreamClient satisfies it.
type upstream interface {
	Do(ctx context.Context, req *model.OutboundRequest) (*model.UpstreamResponse, error)
}

// Forwarder copies inbound requests to the single upstream authority and
// relays the responses back.
type Forwarder struct {
	upstream    upstream
	authority   *url.URL
	rewriteHost bool
	logger      *slog.Logger
}

// NewForwarder creates a Forwarder bound to the configured upstream authority.
func NewForwarder(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		upstream:    c,
		authority:   cfg.Upstream.Authority(),
		rewriteHost: cfg.Upstream.RewriteHost,
		logger:      logger.With("component", "forwarder"),
	}
}

// Authority returns a copy of the upstream authority requests are sent to.
func (f *Forwarder) Authority() *url.URL {
	u := *f.authority
	return &u
}

// Forward sends in to the upstream authority and returns the response with
// framing and content-security-policy headers removed.
//
// Methods without a forwarding path (HEAD, OPTIONS, TRACE and anything
// unknown) fail with model.ErrUnsupportedMethod before any upstream I/O.
func (f *Forwarder) Forward(ctx context.Context, in *model.InboundRequest) (*model.UpstreamResponse, error) {
	out, err := f.Build(in)
	if err != nil {
		return nil, err
	}

	resp, err := f.upstream.Do(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	resp.Header = f.filterResponseHeaders(resp.Header)

	f.logger.Info("forwarded request",
		"method", out.Method.String(),
		"uri", out.URL.String(),
		"status", resp.StatusCode,
	)
	return resp, nil
}

// Build constructs the outbound request for in without sending it.
func (f *Forwarder) Build(in *model.InboundRequest) (*model.OutboundRequest, error) {
	method, err := model.ParseMethod(in.Method)
	if err != nil {
		return nil, err
	}

	out := &model.OutboundRequest{
		Method: method,
		URL:    f.buildUpstreamURL(in.Path, in.RawPath, in.Query),
		Header: copyRequestHeaders(in.Header),
	}
	if !f.rewriteHost {
		out.Host = in.Host
	}

	// An entity is attached only for a non-empty body and carries the
	// inbound content type verbatim.
	if len(in.Body) > 0 {
		out.Body = in.Body
		out.ContentType = in.ContentType
		if in.ContentType != "" {
			out.Header.Set("Content-Type", in.ContentType)
		}
	}
	return out, nil
}

// buildUpstreamURL keeps the path as received and re-encodes every query
// name/value pair exactly once.
func (f *Forwarder) buildUpstreamURL(path, rawPath string, query url.Values) *url.URL {
	u := *f.authority
	u.Path = path
	u.RawPath = rawPath
	u.RawQuery = query.Encode()
	return &u
}

func copyRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if excludedRequestHeaders[strings.ToLower(key)] {
			continue
		}
		dst[key] = append([]string(nil), vals...)
	}
	return dst
}

func (f *Forwarder) filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if excludedResponseHeaders[strings.ToLower(key)] {
			continue
		}
		for _, v := range vals {
			f.logger.Info("response header", "name", key, "value", v)
		}
		dst[key] = append([]string(nil), vals...)
	}
	return dst
}
