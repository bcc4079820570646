package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInputValidation Kind = "input_validation"
	KindDocumentState   Kind = "document_state"
	KindExternalService Kind = "external_service"
	KindNotFound        Kind = "not_found"
	KindInternal        Kind = "internal"
)

// Error carries a user-safe Message; Err keeps the cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func InputValidation(msg string) error {
	return &Error{Kind: KindInputValidation, Message: msg}
}

func DocumentState(msg string) error {
	return &Error{Kind: KindDocumentState, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func ExternalService(msg string, cause error) error {
	return &Error{Kind: KindExternalService, Message: msg, Err: cause}
}

func Internal(msg string, cause error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// KindOf reports the kind of the first *Error in the chain, internal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage never leaks the wrapped cause.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInputValidation:
		return http.StatusBadRequest
	case KindDocumentState:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
