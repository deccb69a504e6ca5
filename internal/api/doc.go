// Package api provides HTTP client functionality for communicating with the
// ROMA bastion REST API. It handles authentication, request encoding,
// response normalization and retries of transient failures.
//
// # Requests
//
// A [Request] names a path relative to the API root, a method, optional
// parameters, a content type and whether the endpoint is public. Parameters
// with nil values are dropped before encoding. GET sends parameters as the
// query string; other methods (except HEAD) send them as a JSON or
// form-urlencoded body.
//
// Non-public requests read the credential store on every call. A bearer
// token is sent as "Authorization: Bearer <token>"; without a token, an API
// key is sent in the "apikey" header and, for GET, also as the "apikey"
// query parameter. Never both.
//
// # Responses
//
// The backend wraps replies in {code, msg, data}. [Client.Send] returns the
// data on success and an *apierrors.Error otherwise. Empty bodies count as
// success with null data; HTML error pages and unparseable bodies are
// reported as distinct failure kinds. A 401 clears the credential store and
// sends the [Navigator] to [LoginPath].
//
// # Retry Behavior
//
// Only requests that received no response (a per-attempt timeout or a
// network failure) are retried. By default there are 3 attempts with linear
// waits of 1s and 2s between them.
//
// # Thread Safety
//
// The [Client] type is safe for concurrent use. Requests in flight are not
// coordinated with each other.
package api
