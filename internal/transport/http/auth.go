package http

import (
	"net/http"
	"strconv"
)

// HostAuth resolves the authenticated host identity from a request.
// Credential verification itself is an external collaborator concern; this
// interface is the seam it plugs into.
type HostAuth interface {
	// HostID returns the host id and whether the request carries one.
	HostID(r *http.Request) (int, bool)
}

// HeaderHostAuth trusts an upstream gateway to inject the host id, via the
// X-Host-ID header or (for websocket upgrades, where custom headers are
// awkward) the hostId query parameter.
type HeaderHostAuth struct{}

func (HeaderHostAuth) HostID(r *http.Request) (int, bool) {
	raw := r.Header.Get("X-Host-ID")
	if raw == "" {
		raw = r.URL.Query().Get("hostId")
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
