package model

import (
	"errors"
	"net/http"
	"testing"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"GET", MethodGet, false},
		{"POST", MethodPost, false},
		{"PUT", MethodPut, false},
		{"PATCH", MethodPatch, false},
		{"DELETE", MethodDelete, false},
		{"get", MethodGet, false},
		{"HEAD", 0, true},
		{"OPTIONS", 0, true},
		{"TRACE", 0, true},
		{"CONNECT", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedMethod) {
					t.Fatalf("ParseMethod(%q) error = %v, want ErrUnsupportedMethod", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMethod(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMethod(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMethod_StringRoundTrip(t *testing.T) {
	for _, m := range []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete} {
		got, err := ParseMethod(m.String())
		if err != nil {
			t.Fatalf("ParseMethod(%q) error = %v", m.String(), err)
		}
		if got != m {
			t.Errorf("ParseMethod(%q) = %v, want %v", m.String(), got, m)
		}
	}
}

func TestAcceptedMethods_CoverForwardable(t *testing.T) {
	accepted := make(map[string]bool, len(AcceptedMethods))
	for _, m := range AcceptedMethods {
		accepted[m] = true
	}
	if len(accepted) != 8 {
		t.Errorf("len(AcceptedMethods) = %d, want 8", len(accepted))
	}
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		if !accepted[m] {
			t.Errorf("%s missing from AcceptedMethods", m)
		}
	}
}

func TestOutboundRequest_HasEntity(t *testing.T) {
	if (&OutboundRequest{}).HasEntity() {
		t.Error("HasEntity() = true for nil body")
	}
	if (&OutboundRequest{Body: []byte{}}).HasEntity() {
		t.Error("HasEntity() = true for empty body")
	}
	if !(&OutboundRequest{Body: []byte("x")}).HasEntity() {
		t.Error("HasEntity() = false for non-empty body")
	}
}
