package roma

import (
	"errors"
	"fmt"

	"github.com/binrc/roma-client-go/internal/apierrors"
)

// Error is the failure returned by every API call. Code is the HTTP status
// or the application code from the response envelope, and 0 when no
// response was received.
type Error = apierrors.Error

// ErrorKind classifies an Error.
type ErrorKind = apierrors.Kind

// Error kinds.
const (
	KindTimeout        = apierrors.KindTimeout
	KindNetwork        = apierrors.KindNetwork
	KindMalformedJSON  = apierrors.KindMalformedJSON
	KindHTML           = apierrors.KindHTML
	KindMalformedBody  = apierrors.KindMalformedBody
	KindReadBody       = apierrors.KindReadBody
	KindUnauthorized   = apierrors.KindUnauthorized
	KindForbidden      = apierrors.KindForbidden
	KindApplication    = apierrors.KindApplication
	KindHTTP           = apierrors.KindHTTP
	KindCanceled       = apierrors.KindCanceled
	KindInvalidRequest = apierrors.KindInvalidRequest
)

// Sentinel errors for errors.Is() checks
var (
	ErrTimeout            = apierrors.ErrTimeout
	ErrNetworkUnreachable = apierrors.ErrNetworkUnreachable
	ErrMalformedJSON      = apierrors.ErrMalformedJSON
	ErrServerReturnedHTML = apierrors.ErrServerReturnedHTML
	ErrMalformedBody      = apierrors.ErrMalformedBody
	ErrReadBody           = apierrors.ErrReadBody
	ErrUnauthorized       = apierrors.ErrUnauthorized
	ErrPermissionDenied   = apierrors.ErrPermissionDenied
	ErrApplication        = apierrors.ErrApplication
	ErrHTTP               = apierrors.ErrHTTP
	ErrCanceled           = apierrors.ErrCanceled
	ErrInvalidRequest     = apierrors.ErrInvalidRequest
)

// Client-side errors, returned before any request is sent.
var (
	// ErrMissingBaseURL is returned when no API root is provided.
	ErrMissingBaseURL = errors.New("API base URL is required")

	// ErrInvalidResourceType is returned for a resource type the backend
	// does not know.
	ErrInvalidResourceType = errors.New("invalid resource type")

	// ErrInvalidIP is returned when an address does not parse.
	ErrInvalidIP = errors.New("invalid IP address")

	// ErrInvalidLogKind is returned for a log kind other than access,
	// credential or audit.
	ErrInvalidLogKind = errors.New("invalid log kind")

	// ErrInvalidSSHKey is returned when a key pair fails local validation.
	ErrInvalidSSHKey = errors.New("invalid SSH key")

	// ErrNoToken is returned by Login when the backend reports success
	// without a token or an API key.
	ErrNoToken = errors.New("login response carries no token or api key")
)

// ValidationError reports an argument rejected before the request was sent.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) ErrorKind {
	return apierrors.KindOf(err)
}

// IsUnauthorized reports whether err is a 401 failure. The credential store
// has already been cleared when it is.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
