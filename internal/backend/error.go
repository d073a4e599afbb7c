package backend

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrUnavailable = errors.New("unable to reach the server, please try again")

// Error is a non-2xx backend response.
type Error struct {
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Message }

func (e *Error) StatusCode() int { return e.Status }

// UnavailableError wraps transport and decoding failures behind the generic message.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string { return ErrUnavailable.Error() }

func (e *UnavailableError) Unwrap() []error { return []error{ErrUnavailable, e.Cause} }

func (e *UnavailableError) StatusCode() int { return http.StatusBadGateway }

func newError(status int, body []byte) *Error {
	msg := ""
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error", "message", "errors.0.msg", "errors.0.message"} {
			if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String {
				msg = strings.TrimSpace(r.String())
				if msg != "" {
					break
				}
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = ErrUnavailable.Error()
	}
	return &Error{Status: status, Message: msg}
}

func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.Status
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsRetryable reports whether repeating the same request may succeed.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	status := StatusOf(err)
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
