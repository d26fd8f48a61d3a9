package evote

import (
	"errors"
	"net/http"
)

// ErrorKind classifies every failure surfaced by evote
type ErrorKind uint8

const (
	// KindUnknown is only returned by KindOf for errors that are not *Error
	KindUnknown ErrorKind = iota

	// KindNetwork means the request never reached the remote service
	KindNetwork

	// KindUnauthorized means the credential is missing or expired.
	// By convention the caller clears the local session
	KindUnauthorized

	// KindForbidden means the credential is valid but the principal
	// is not allowed to perform the operation
	KindForbidden

	// KindValidation means the input was rejected
	KindValidation

	// KindNotFound means the requested resource does not exist
	KindNotFound

	// KindPrecondition means the operation is not allowed in the current local state.
	// No network call was issued
	KindPrecondition

	// KindConflict means the remote service already holds a ballot for this voter
	KindConflict

	// KindServerError is a 5xx or an unparseable response
	KindServerError
)

// String return a human readable error kind
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPrecondition:
		return "precondition"
	case KindConflict:
		return "conflict"
	case KindServerError:
		return "server_error"
	}
	return "unknown"
}

// Error is the single error shape returned by the gateway and the controllers
type Error struct {
	// Kind of the failure
	Kind ErrorKind

	// Message is the human readable message, verbatim from the remote
	// service when it provided one
	Message string

	// StatusCode is the HTTP status returned by the remote service.
	// It's 0 when no response was received
	StatusCode int

	// Fields holds per field validation messages
	Fields map[string][]string

	// Op is the operation that failed
	Op string

	// err is the underlying cause if any
	err error
}

// Error returns the message so that it can be displayed as is
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return http.StatusText(e.StatusCode)
	}
	return e.Kind.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.err
}

// newError builds a new *Error
func newError(kind ErrorKind, op, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		err:     cause,
	}
}

// KindOf returns the kind of the provided error.
// KindUnknown is returned when err is nil or not an *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an *Error of the provided kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

var (
	// ErrAlreadyAuthenticated is returned when a login is attempted
	// while a session is held. Logout first
	ErrAlreadyAuthenticated = &Error{Kind: KindPrecondition, Message: "already authenticated, logout first"}

	// ErrNotAuthenticated is returned by guards when no session is held
	ErrNotAuthenticated = &Error{Kind: KindPrecondition, Message: "not authenticated"}

	// ErrWrongPrincipal is returned by guards when the session
	// belongs to the other principal kind
	ErrWrongPrincipal = &Error{Kind: KindPrecondition, Message: "operation not allowed for this principal"}

	// ErrSubmissionInFlight is returned when a ballot submission is already running
	ErrSubmissionInFlight = &Error{Kind: KindPrecondition, Message: "a ballot submission is already in progress"}

	// ErrAlreadyVoted is returned when submitting while the vote state is Voted
	ErrAlreadyVoted = &Error{Kind: KindPrecondition, Message: "ballot already cast"}

	// ErrVoteStatusUnknown is returned when submitting before the vote status is known
	ErrVoteStatusUnknown = &Error{Kind: KindPrecondition, Message: "vote status unknown, check status first"}

	// ErrVoterSessionClosed is returned by a vote controller whose
	// voter session ended with a logout
	ErrVoterSessionClosed = &Error{Kind: KindPrecondition, Message: "voter session closed, login again"}

	// ErrDataDirRequired is returned when the bolt session store has no data dir
	ErrDataDirRequired = errors.New("data dir required")

	// ErrStoreClosed is returned when the session store is used after Close
	ErrStoreClosed = errors.New("session store closed")
)
