package auth

import "net/http"

// BearerTransport injects a static bearer credential into every outbound
// request. The gateway only forwards the configured token; it never mints or
// verifies credentials itself.
type BearerTransport struct {
	token string
	base  http.RoundTripper
}

func NewBearerTransport(token string, base http.RoundTripper) *BearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &BearerTransport{token: token, base: base}
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token == "" {
		return t.base.RoundTrip(req)
	}
	// Round trippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(clone)
}
