// Package apierrors provides shared error types for the ROMA client.
package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrTimeout is returned when a request exceeded its per-attempt deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrNetworkUnreachable is returned when no response was received at all.
	ErrNetworkUnreachable = errors.New("network unreachable")

	// ErrMalformedJSON is returned when a body declared as JSON does not parse.
	ErrMalformedJSON = errors.New("malformed JSON body")

	// ErrServerReturnedHTML is returned when the server answered with an HTML page.
	ErrServerReturnedHTML = errors.New("server returned HTML")

	// ErrMalformedBody is returned when a body is neither empty nor JSON.
	ErrMalformedBody = errors.New("malformed response body")

	// ErrReadBody is returned when the response body could not be read.
	ErrReadBody = errors.New("failed to read response body")

	// ErrUnauthorized is returned on HTTP 401. Stored credentials are cleared.
	ErrUnauthorized = errors.New("authentication failed")

	// ErrPermissionDenied is returned on HTTP 403.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrApplication is returned when HTTP 200 carries a failing envelope code.
	ErrApplication = errors.New("application error")

	// ErrHTTP is returned for any other non-200 status.
	ErrHTTP = errors.New("HTTP error")

	// ErrCanceled is returned when the caller's context ended the request.
	ErrCanceled = errors.New("request canceled")

	// ErrInvalidRequest is returned when a request could not be built.
	ErrInvalidRequest = errors.New("invalid request")
)

// Kind classifies a failed call.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindNetwork
	KindMalformedJSON
	KindHTML
	KindMalformedBody
	KindReadBody
	KindUnauthorized
	KindForbidden
	KindApplication
	KindHTTP
	KindCanceled
	KindInvalidRequest
)

var kindNames = map[Kind]string{
	KindTimeout:        "timeout",
	KindNetwork:        "network",
	KindMalformedJSON:  "malformed_json",
	KindHTML:           "html",
	KindMalformedBody:  "malformed_body",
	KindReadBody:       "read_body",
	KindUnauthorized:   "unauthorized",
	KindForbidden:      "forbidden",
	KindApplication:    "application",
	KindHTTP:           "http",
	KindCanceled:       "canceled",
	KindInvalidRequest: "invalid_request",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var kindSentinels = map[Kind]error{
	KindTimeout:        ErrTimeout,
	KindNetwork:        ErrNetworkUnreachable,
	KindMalformedJSON:  ErrMalformedJSON,
	KindHTML:           ErrServerReturnedHTML,
	KindMalformedBody:  ErrMalformedBody,
	KindReadBody:       ErrReadBody,
	KindUnauthorized:   ErrUnauthorized,
	KindForbidden:      ErrPermissionDenied,
	KindApplication:    ErrApplication,
	KindHTTP:           ErrHTTP,
	KindCanceled:       ErrCanceled,
	KindInvalidRequest: ErrInvalidRequest,
}

// User-facing messages for failures that carry no server text.
const (
	MsgTimeout        = "request timed out, check the network connection or try again later"
	MsgNetwork        = "network connection failed, check the network settings"
	MsgMalformedJSON  = "failed to parse JSON response, the body is not valid JSON"
	MsgHTML           = "server returned an HTML page, possibly an error page"
	MsgMalformedBody  = "malformed response, the body is not valid JSON"
	MsgReadBody       = "failed to read the server response"
	MsgTooLarge       = "server response is too large"
	MsgUnauthorized   = "authentication failed, please log in again"
	MsgForbidden      = "permission denied"
	MsgRequestFailed  = "request failed"
	MsgCanceled       = "request canceled"
	MsgInvalidRequest = "invalid request"
)

// Error is the failure half of every client outcome.
//
// Code is either the HTTP status or the application code embedded in the
// response envelope; it is 0 when no response was received. Data holds the
// raw response envelope (or a truncated body for unparseable responses).
type Error struct {
	Kind     Kind
	Message  string
	Code     int
	Data     json.RawMessage
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("roma: %s (code %d)", e.Message, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("roma: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("roma: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// Retryable reports whether the failure happened before any response was
// received.
func (e *Error) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindNetwork
}

// New creates an Error of the given kind with the default message for it.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: defaultMessage(kind), Err: err}
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindTimeout:
		return MsgTimeout
	case KindNetwork:
		return MsgNetwork
	case KindMalformedJSON:
		return MsgMalformedJSON
	case KindHTML:
		return MsgHTML
	case KindMalformedBody:
		return MsgMalformedBody
	case KindReadBody:
		return MsgReadBody
	case KindUnauthorized:
		return MsgUnauthorized
	case KindForbidden:
		return MsgForbidden
	case KindCanceled:
		return MsgCanceled
	case KindInvalidRequest:
		return MsgInvalidRequest
	default:
		return MsgRequestFailed
	}
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
