// Package apperr defines the error taxonomy shared by the correlation core
// and the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the boundary layer.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindStorage
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is.
var (
	ErrInvalidArguments  = &Error{Kind: KindValidation, Msg: "invalid arguments provided"}
	ErrMalformedID       = &Error{Kind: KindValidation, Msg: "malformed identifier"}
	ErrDeviceNotFound    = &Error{Kind: KindNotFound, Msg: "device not found"}
	ErrUserNotFound      = &Error{Kind: KindNotFound, Msg: "user not found"}
	ErrApplianceNotFound = &Error{Kind: KindNotFound, Msg: "appliance measurement not found"}
	ErrDuplicateDevice   = &Error{Kind: KindConflict, Msg: "device exists"}
	ErrSourceFetch       = &Error{Kind: KindUpstream, Msg: "unable to fetch measurements"}
)

// Error carries the kind plus enough context to diagnose the failure.
type Error struct {
	Kind   Kind
	Op     string
	Entity string
	ID     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s (%s %s)", msg, e.Entity, e.ID)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind and message so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

// Wrap annotates a sentinel with operation context.
func Wrap(sentinel *Error, op, entity, id string) *Error {
	return &Error{Kind: sentinel.Kind, Op: op, Entity: entity, ID: id, Msg: sentinel.Msg}
}

// Validation builds a client-fault error.
func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// Storage wraps an unclassified persistence failure.
func Storage(op, entity, id string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Entity: entity, ID: id, Msg: "storage failure", Err: err}
}

// Upstream wraps a measurement source failure other than not-found.
func Upstream(op string, err error) *Error {
	return &Error{Kind: KindUpstream, Op: op, Msg: ErrSourceFetch.Msg, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to return to clients. Storage and unknown
// failures never expose driver details.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindStorage || e.Kind == KindUnknown {
		return "internal error"
	}
	return e.Msg
}
