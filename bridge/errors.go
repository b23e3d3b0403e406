package bridge

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotReady reports that the forecast service failed its readiness check.
// Forecast submissions fail fast on it instead of attempting the call.
var ErrNotReady = errors.New("forecast service is not ready")

// UpstreamError is a non-2xx answer from the forecast service, reduced to
// the status code and a short message.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("forecast service returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err carries an upstream 404.
func IsNotFound(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.Status == http.StatusNotFound
}

// StatusOf extracts the last upstream status carried by err, or zero when
// the failure never reached the service.
func StatusOf(err error) int {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status
	}
	return 0
}
