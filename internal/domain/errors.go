package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrIndexUnavailable wraps any corpus fetch or parse failure.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrNoMatch marks a retrieval with zero relevant documents. It is an
	// outcome, not a failure.
	ErrNoMatch = errors.New("no matching documents")
	// ErrMalformedReply marks a 2xx completion reply whose body could not be
	// decoded. It arrives wrapped in a *TransportError.
	ErrMalformedReply = errors.New("malformed completion reply")
	// ErrServiceLimited matches a *ServiceError caused by a usage limit.
	ErrServiceLimited = errors.New("service limited")
)

// ServiceError is a non-success reply from the completion service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("completion service returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("completion service returned %d", e.Status)
}

// Limited reports whether the service signalled a rate or usage limit.
func (e *ServiceError) Limited() bool { return e.Status == http.StatusTooManyRequests }

func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceLimited && e.Limited()
}

// TransportError means no response was obtained at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "completion request failed: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }
