// Package errs defines the classified failures surfaced by the pipeline and
// the HTTP front door.
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindCollection Kind = "DATA_COLLECTION_ERROR"
	KindAnalysis   Kind = "ANALYSIS_ERROR"
	KindRateLimit  Kind = "RATE_LIMIT_EXCEEDED"
	KindAuth       Kind = "AUTHENTICATION_ERROR"
	KindInternal   Kind = "INTERNAL_ERROR"
)

const (
	redactedMarker  = "[REDACTED]"
	truncatedMarker = "...[TRUNCATED]"
	maxDetailLength = 1000
)

var sensitiveKeys = []string{"password", "token", "key", "secret", "auth", "api_key"}

// Status returns the HTTP status code associated with the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindCollection:
		return http.StatusBadGateway
	case KindAnalysis:
		return http.StatusServiceUnavailable
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind       Kind
	Message    string
	Details    map[string]any
	Timestamp  time.Time
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StatusCode() int {
	return e.Kind.Status()
}

// Body is the JSON shape of a classified failure.
type Body struct {
	Error     Kind           `json:"error"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
	Timestamp string         `json:"timestamp"`
}

// Body renders the error for clients. Internal failures never expose their
// message or details.
func (e *Error) Body() Body {
	if e.Kind == KindInternal {
		return Body{
			Error:     KindInternal,
			Message:   "An unexpected error occurred. Please try again later.",
			Details:   map[string]any{},
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	return Body{
		Error:     e.Kind,
		Message:   e.Message,
		Details:   Sanitize(e.Details),
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
	}
}

func newError(kind Kind, msg string, details map[string]any, cause error) *Error {
	if details == nil {
		details = map[string]any{}
	}
	return &Error{
		Kind:      kind,
		Message:   msg,
		Details:   details,
		Timestamp: time.Now(),
		Err:       cause,
	}
}

func Validation(field string, value any, msg string) *Error {
	details := map[string]any{}
	if field != "" {
		details["field"] = field
	}
	if value != nil {
		details["provided_value"] = fmt.Sprint(value)
	}
	return newError(KindValidation, msg, details, nil)
}

// Collection reports a failed upstream call. status is the upstream HTTP
// status, or zero when no response was received.
func Collection(endpoint string, status int, msg string, cause error) *Error {
	details := map[string]any{}
	if endpoint != "" {
		details["api_endpoint"] = endpoint
	}
	if status != 0 {
		details["http_status"] = status
	}
	return newError(KindCollection, msg, details, cause)
}

func Analysis(msg, model, videoID string, cause error) *Error {
	details := map[string]any{}
	if model != "" {
		details["model"] = model
	}
	if videoID != "" {
		details["video_id"] = videoID
	}
	return newError(KindAnalysis, msg, details, cause)
}

func RateLimited(service string, retryAfter time.Duration, msg string) *Error {
	details := map[string]any{}
	if service != "" {
		details["service"] = service
	}
	if retryAfter > 0 {
		details["retry_after"] = int(retryAfter.Seconds())
	}
	e := newError(KindRateLimit, msg, details, nil)
	e.RetryAfter = retryAfter
	return e
}

func Auth(authType, msg string) *Error {
	details := map[string]any{}
	if authType != "" {
		details["auth_type"] = authType
	}
	return newError(KindAuth, msg, details, nil)
}

func Internal(cause error) *Error {
	return newError(KindInternal, "internal error", nil, cause)
}

// As returns the classified error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf classifies err. Errors without a classification are internal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given classification.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Sanitize returns a copy of details with credential-like keys redacted and
// long strings truncated. Nested maps are sanitized too.
func Sanitize(details map[string]any) map[string]any {
	out := make(map[string]any, len(details))
	for k, v := range details {
		if isSensitive(k) {
			out[k] = redactedMarker
			continue
		}
		switch val := v.(type) {
		case string:
			out[k] = truncate(val)
		case map[string]any:
			out[k] = Sanitize(val)
		default:
			out[k] = v
		}
	}
	return out
}

// truncate cuts s to at most maxDetailLength bytes without splitting a
// UTF-8 sequence.
func truncate(s string) string {
	if len(s) <= maxDetailLength {
		return s
	}
	cut := maxDetailLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncatedMarker
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
