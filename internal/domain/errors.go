package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for callers and the HTTP layer.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindUpload        ErrorKind = "upload"
	KindPersistence   ErrorKind = "persistence"
	KindAuthorization ErrorKind = "authorization"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindNotFound      ErrorKind = "not_found"
	KindSubscription  ErrorKind = "subscription"
	KindRateLimited   ErrorKind = "rate_limited"
	KindInternal      ErrorKind = "internal"
)

// Error is the error type returned by the registry services.
type Error struct {
	Kind    ErrorKind
	Message string            // safe to show to the end user
	Fields  map[string]string // per-field validation messages
	Err     error             // underlying cause, for logs
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationErr(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func UploadErr(message string, err error) *Error {
	return &Error{Kind: KindUpload, Message: message, Err: err}
}

func PersistenceErr(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

func AuthorizationErr(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func UnauthorizedErr(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NotFoundErr(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func SubscriptionErr(message string, err error) *Error {
	return &Error{Kind: KindSubscription, Message: message, Err: err}
}

func RateLimitedErr(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// AsError extracts a registry error from an error chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	if de, ok := AsError(err); ok {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether retrying the same operation may succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindUpload, KindPersistence, KindSubscription, KindRateLimited:
		return true
	default:
		return false
	}
}
