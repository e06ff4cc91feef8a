package httpx

import (
	"context"
	"errors"
	"net/http"
)

// RespondError maps transport-level failures to the fail envelope.
// Domain handlers map their own sentinels; this covers what leaks
// through, notably the request timeout middleware's deadline.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		Fail(w, http.StatusGatewayTimeout, "upstream timed out")
	case errors.Is(err, context.Canceled):
		Fail(w, http.StatusServiceUnavailable, "request canceled")
	default:
		Fail(w, http.StatusInternalServerError, "")
	}
}
