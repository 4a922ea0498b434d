// Package zoom talks to the remote recordings API: token management, the
// rate-limited request executor, principal enumeration, recording listings,
// and file downloads.
package zoom

import (
	"errors"
	"fmt"
)

// Sentinel errors for remote API operations. Callers branch with errors.Is
// to apply different recovery policy: auth failures abort the phase,
// permanent errors skip the item, everything else is retried.
var (
	// ErrAuth indicates the token endpoint could not issue a usable token.
	// Fatal for the current phase: no further calls can succeed.
	ErrAuth = errors.New("zoom: authentication failed")

	// ErrUnauthorized indicates a 401 that survived a forced token refresh,
	// typically a permissions problem rather than token expiry.
	ErrUnauthorized = errors.New("zoom: unauthorized")

	// ErrForbidden indicates a 403 response.
	ErrForbidden = errors.New("zoom: access forbidden")

	// ErrNotFound indicates a 404 response.
	ErrNotFound = errors.New("zoom: resource not found")

	// ErrGone indicates a 410 response: the remote no longer retains the file.
	ErrGone = errors.New("zoom: resource gone")

	// ErrBadRequest indicates a 400 response. The phone API answers 400 for
	// users without a phone license.
	ErrBadRequest = errors.New("zoom: bad request")

	// ErrServerError indicates a 5xx response, retried within the budget.
	ErrServerError = errors.New("zoom: server error")
)

// RequestError reports a request that failed after its retry budget was
// exhausted, carrying the last observed status.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("zoom: %s %s failed with status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("zoom: %s %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsPermanent reports whether err means the remote resource cannot be
// retrieved at all; the item should be skipped rather than retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrGone)
}

// checkStatus maps a non-retryable status code to its sentinel error.
func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == 400:
		return ErrBadRequest
	case code == 401:
		return ErrUnauthorized
	case code == 403:
		return ErrForbidden
	case code == 404:
		return ErrNotFound
	case code == 410:
		return ErrGone
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}
