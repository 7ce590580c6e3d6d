package services

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindForbidden
	KindBadRequest
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// GameError is a rejected operation. Guards never partially apply, so the
// caller can surface Message verbatim.
type GameError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GameError) Unwrap() error {
	return e.Err
}

func NotFound(message string) error {
	return &GameError{Kind: KindNotFound, Message: message}
}

func Forbidden(message string) error {
	return &GameError{Kind: KindForbidden, Message: message}
}

func BadRequest(message string) error {
	return &GameError{Kind: KindBadRequest, Message: message}
}

func Unauthorized(message string) error {
	return &GameError{Kind: KindUnauthorized, Message: message}
}

func Internal(message string, err error) error {
	return &GameError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind carried by err, or KindInternal for anything
// that is not a GameError.
func KindOf(err error) ErrorKind {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
