package sportfengur

import (
	stderrors "errors"
	"fmt"
	"net/http"

	crerr "github.com/cockroachdb/errors"
)

var (
	errTransient = crerr.New("sportfengur transient failure")

	// ErrMissingCredentials is wrapped in an AuthError when no username or password is configured.
	ErrMissingCredentials = crerr.New("sportfengur credentials are not configured")
)

// AuthError reports missing credentials or a rejected login.
type AuthError struct {
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("sportfengur login failed with status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("sportfengur login failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx vendor response.
type HTTPError struct {
	Status int
	Method string
	Path   string
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sportfengur %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPError) Retryable() bool {
	return isRetryableStatus(e.Status)
}

// IsRetryable reports whether err is a network failure, 429 or 5xx.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return crerr.Is(err, errTransient)
}

// IsAuthError reports whether err came from credential handling.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return stderrors.As(err, &authErr)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
