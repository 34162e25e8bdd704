package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnsupportedMethod is returned for methods the proxy accepts but cannot forward.
var ErrUnsupportedMethod = errors.New("method not supported for forwarding")

// Method is one of the verbs the proxy knows how to forward.
type Method int

const (
	MethodGet Method = iota + 1
	MethodPost
	MethodPut
	MethodPatch
	MethodDelete
)

// AcceptedMethods lists every verb the inbound listener routes to the proxy.
// HEAD, OPTIONS and TRACE are accepted but rejected by ParseMethod.
var AcceptedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodTrace,
}

// ParseMethod maps an HTTP verb to a forwardable Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(s) {
	case http.MethodGet:
		return MethodGet, nil
	case http.MethodPost:
		return MethodPost, nil
	case http.MethodPut:
		return MethodPut, nil
	case http.MethodPatch:
		return MethodPatch, nil
	case http.MethodDelete:
		return MethodDelete, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
}

// String returns the wire form of the method.
func (m Method) String() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodPost:
		return http.MethodPost
	case MethodPut:
		return http.MethodPut
	case MethodPatch:
		return http.MethodPatch
	case MethodDelete:
		return http.MethodDelete
	}
	return fmt.Sprintf("Method(%d)", int(m))
}
