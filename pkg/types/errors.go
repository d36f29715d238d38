// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind categorises failures so surfaces can report them uniformly.
type ErrorKind string

const (
	// KindSelection is a precondition violation caught before any handler runs.
	KindSelection ErrorKind = "selection_error"
	// KindInputUnreadable means an input could not be opened or read.
	KindInputUnreadable ErrorKind = "input_unreadable"
	// KindInputEncrypted means an input is protected and the operation needs
	// it decrypted first.
	KindInputEncrypted ErrorKind = "input_encrypted"
	// KindWrongPassword is the InputEncrypted variant for a password that
	// does not validate.
	KindWrongPassword ErrorKind = "wrong_password"
	// KindUnsupportedDocument means the input is corrupt or malformed.
	KindUnsupportedDocument ErrorKind = "unsupported_document"
	// KindOutputWriteFailed covers permissions, disk space and rename failures.
	KindOutputWriteFailed ErrorKind = "output_write_failed"
	// KindInternal is reserved for handler panics and unknown failures.
	KindInternal ErrorKind = "internal"
)

// Error is a categorised failure tied to an optional file path.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Path    string    `json:"path,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// NewError builds an Error. path and cause may be empty.
func NewError(kind ErrorKind, path, message string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Message: message, Err: cause}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind: errors.Is(err, &Error{Kind: KindWrongPassword}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Path == "" && t.Message == ""
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind. WrongPassword also
// satisfies KindInputEncrypted since it is a variant of it.
func IsKind(err error, kind ErrorKind) bool {
	k := KindOf(err)
	if k == kind {
		return true
	}
	return kind == KindInputEncrypted && k == KindWrongPassword
}
