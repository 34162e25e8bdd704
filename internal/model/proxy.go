// Package model defines shared types for the proxy.
package model

import (
	"net/http"
	"net/url"
)

// InboundRequest is a fully buffered request received from the caller.
// RawPath carries the original encoding of Path when it differs from the default.
type InboundRequest struct {
	Method      string
	Host        string
	Path        string
	RawPath     string
	Query       url.Values
	Header      http.Header
	Body        []byte
	ContentType string
}

// OutboundRequest is the request built for the upstream authority.
// Body is nil when no entity is attached.
type OutboundRequest struct {
	Method      Method
	URL         *url.URL
	Host        string
	Header      http.Header
	Body        []byte
	ContentType string
}

// HasEntity reports whether a body is attached to the request.
func (r *OutboundRequest) HasEntity() bool {
	return len(r.Body) > 0
}

// UpstreamResponse is the fully read upstream response to relay back.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
