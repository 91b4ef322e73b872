package strava

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrNotAuthenticated indicates that no usable credential is available: the
// client has neither a static access token nor an OAuth manager holding a
// stored token.
var ErrNotAuthenticated = errors.New("strava: not authenticated")

// maxErrorBodyLen bounds how much of a provider error body is kept on an
// error value. Strava error payloads are small; anything larger is almost
// certainly an HTML error page.
const maxErrorBodyLen = 1000

// Fault is the structured error payload returned by the Strava API.
type Fault struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

// FieldError describes a single field-level problem inside a Fault.
type FieldError struct {
	Resource string `json:"resource"`
	Field    string `json:"field"`
	Code     string `json:"code"`
}

// APIError represents an error returned by the Strava API. It is the base of
// the error taxonomy: the specific error types below wrap an APIError so that
// the status code, URL and raw provider payload stay reachable via errors.As.
type APIError struct {
	StatusCode int
	Message    string // provider error body, truncated
	URL        string
	Fault      *Fault // parsed provider payload, if it decoded
	Err        error  // underlying error, if any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("strava api error: %d - %s at %s", e.StatusCode, e.Message, e.URL)
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

// Unwrap implements errors.Unwrap so the underlying error can be extracted.
func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) httpStatus() int { return e.StatusCode }

// AuthError represents an authentication or authorization failure: a 401 or
// 403 response, a failed token exchange or refresh, or a missing token.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	msg := fmt.Sprintf("strava auth error (%d): %s", e.StatusCode, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(" - %v", e.Err)
	}
	return msg
}

// Unwrap implements errors.Unwrap.
func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) httpStatus() int { return e.StatusCode }

// NotFoundError represents a 404 response.
type NotFoundError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("strava: resource not found at %s", e.URL)
}

// Unwrap implements errors.Unwrap.
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func (e *NotFoundError) httpStatus() int { return http.StatusNotFound }

// ValidationError represents a 422 response. Fields carries the provider's
// field-level error list when one was supplied.
type ValidationError struct {
	Fields []FieldError
	Err    error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "strava: request validation failed"
	}
	f := e.Fields[0]
	msg := fmt.Sprintf("strava: request validation failed: %s.%s %s", f.Resource, f.Field, f.Code)
	if n := len(e.Fields) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// Unwrap implements errors.Unwrap.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) httpStatus() int { return http.StatusUnprocessableEntity }

// RateLimitError indicates that the client is rate limited. It can occur
// locally before the request is made (throw strategy) or as a 429 response
// from the API.
type RateLimitError struct {
	RetryAfter int // suggested retry delay in seconds, if provided by the API
	Snapshot   *RateLimitSnapshot
	Err        error
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	msg := "strava rate limit exceeded"
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(": retry after %d seconds", e.RetryAfter)
	}
	if e.Snapshot != nil {
		msg += fmt.Sprintf(" (15-min %d/%d, daily %d/%d)",
			e.Snapshot.ShortTermUsage, e.Snapshot.ShortTermLimit,
			e.Snapshot.DailyUsage, e.Snapshot.DailyLimit)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap implements errors.Unwrap.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

func (e *RateLimitError) httpStatus() int { return http.StatusTooManyRequests }

// TimeoutError indicates that a single request attempt was aborted by the
// per-attempt timeout. It carries no HTTP status and is therefore treated as
// retryable.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("strava: request to %s timed out after %s", e.URL, e.Timeout)
}

// Unwrap implements errors.Unwrap.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// statusCoder is implemented by error types that map to an HTTP status code.
// Timeouts and plain network failures deliberately do not implement it.
type statusCoder interface {
	httpStatus() int
}

// errorStatus extracts the HTTP status code carried by err, walking the wrap
// chain. ok is false for status-less failures such as timeouts and transport
// errors.
func errorStatus(err error) (code int, ok bool) {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.httpStatus(), true
	}
	return 0, false
}

// retryAfterHint extracts the server-suggested retry delay from err, if any.
func retryAfterHint(err error) time.Duration {
	var rle *RateLimitError
	if errors.As(err, &rle) && rle.RetryAfter > 0 {
		return time.Duration(rle.RetryAfter) * time.Second
	}
	return 0
}

// truncateBody caps a provider error body for inclusion in error values.
func truncateBody(body []byte) string {
	if len(body) <= maxErrorBodyLen {
		return string(body)
	}
	return string(body[:maxErrorBodyLen]) + "..."
}

// parseRetryAfter reads the Retry-After header as integer seconds. Malformed
// or absent values yield 0.
func parseRetryAfter(h http.Header) int {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}

// mapHTTPError converts an unsuccessful HTTP response into the appropriate
// typed error. Every specific type wraps a base APIError so callers can
// always recover the status code and raw payload.
func mapHTTPError(resp *http.Response, body []byte) error {
	base := &APIError{
		StatusCode: resp.StatusCode,
		Message:    truncateBody(body),
		URL:        resp.Request.URL.String(),
	}

	var fault Fault
	if err := json.Unmarshal(body, &fault); err == nil && (fault.Message != "" || len(fault.Errors) > 0) {
		base.Fault = &fault
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{
			StatusCode: resp.StatusCode,
			Message:    "authentication failed or insufficient scope",
			Err:        base,
		}
	case http.StatusNotFound:
		return &NotFoundError{
			URL: base.URL,
			Err: base,
		}
	case http.StatusUnprocessableEntity:
		var fields []FieldError
		if base.Fault != nil {
			fields = base.Fault.Errors
		}
		return &ValidationError{
			Fields: fields,
			Err:    base,
		}
	case http.StatusTooManyRequests:
		return &RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header),
			Snapshot:   snapshotFromHeaders(resp.Header),
			Err:        base,
		}
	default:
		return base
	}
}
