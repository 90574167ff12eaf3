package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure classes. Match them with errors.Is.
var (
	ErrAuth         = errors.New("authentication failed")
	ErrValidation   = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrNetwork      = errors.New("network error")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrServer       = errors.New("server error")
)

// Error is a failed API call. Detail is the backend's message when it sent
// one; Status is 0 for failures that never produced a response.
type Error struct {
	Kind   error
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg = e.Detail
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// Detail returns the backend-provided message carried by err, or fallback
// when there is none.
func Detail(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

func validationError(detail string) *Error {
	return &Error{Kind: ErrValidation, Detail: detail}
}

// kindForStatus classifies an HTTP failure status. overrides wins over the
// defaults for operations whose backend reports differently.
func kindForStatus(status int, overrides map[int]error) error {
	if k, ok := overrides[status]; ok {
		return k
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusBadRequest, http.StatusConflict, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	}
	return ErrServer
}
