package remote

import "fmt"

// RequestError wraps a transport-level failure: host unreachable, or a
// response body that failed to parse where a fixed JSON schema was
// expected (spec §7).
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("remote: %s: request error: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// RejectedWithBodyError is returned when the remote responds with an HTML
// error page instead of the expected session cookies (typically a failed
// login). Body is the first top-level text block extracted from the page.
type RejectedWithBodyError struct {
	Body string
}

func (e *RejectedWithBodyError) Error() string {
	return fmt.Sprintf("MangaDex response: %s", e.Body)
}

// InvalidResponseError is returned when a login response carries only one
// of the two session cookies, or neither cookie and no parseable
// rejection body.
type InvalidResponseError struct{}

func (e *InvalidResponseError) Error() string {
	return "remote: invalid response"
}

// NotLoggedInError is returned by any operation that requires a session
// when no session is currently set.
type NotLoggedInError struct {
	Op string
}

func (e *NotLoggedInError) Error() string {
	return fmt.Sprintf("remote: %s: not logged in", e.Op)
}
