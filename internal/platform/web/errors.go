// Package web carries the HTTP error taxonomy shared by every route handler.
// Handlers return *web.Error (or any error) and the echo HTTPErrorHandler
// installed by ErrorHandler translates it into the JSON body
// {"error": ..., "details": ...} with the matching status code.
package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Kind classifies an application failure.
type Kind int

const (
	KindValidation Kind = iota // 400 malformed or missing input
	KindUnauthenticated        // 401 missing/invalid token, user gone
	KindForbidden              // 403 role not permitted, not owner
	KindNotFound               // 404 entity absent
	KindConflict               // 409 uniqueness violation
	KindUpstream               // 500 store/transport failure
)

// Error is an application error with an HTTP-mappable kind, a user-facing
// message, and an optional wrapped cause plus remediation hint.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to its HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error      { return &Error{Kind: KindValidation, Message: msg} }
func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }
func Forbidden(msg string) *Error       { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error        { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error        { return &Error{Kind: KindConflict, Message: msg} }

// Upstream wraps a store or transport failure. The cause appears in the
// response details outside production.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// WithHint attaches a remediation hint rendered alongside the error body.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
	Path    string `json:"path,omitempty"`
	Method  string `json:"method,omitempty"`
}

// ErrorHandler returns an echo.HTTPErrorHandler that renders the taxonomy.
// When showDetails is true (non-production), wrapped causes are included in
// the response body. Unmatched routes render {error, path, method}.
func ErrorHandler(logger zerolog.Logger, showDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		body := errorBody{Error: "Internal server error"}
		status := http.StatusInternalServerError

		var appErr *Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.Status()
			body.Error = appErr.Message
			body.Hint = appErr.Hint
			if showDetails && appErr.Err != nil {
				body.Details = appErr.Err.Error()
			}
		case errors.Is(err, echo.ErrNotFound):
			status = http.StatusNotFound
			body.Error = "Route not found"
			body.Path = c.Request().URL.Path
			body.Method = c.Request().Method
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				body.Error = msg
			}
		default:
			if showDetails {
				body.Details = err.Error()
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("path", c.Request().URL.Path).
				Str("method", c.Request().Method).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
