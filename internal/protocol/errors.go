// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package protocol

import (
	"errors"
	"fmt"
)

// ErrorKind classifies bridge failures. The split matters: a protocol
// error is a bridge bug and goes to diagnostics, while command-not-found
// and handler errors are expected application failures routed to the
// caller's error continuation.
type ErrorKind string

const (
	// KindProtocol marks malformed wire messages, codec failures and
	// unknown handles.
	KindProtocol ErrorKind = "protocol"
	// KindCommandNotFound marks an invocation naming no registered command.
	KindCommandNotFound ErrorKind = "command_not_found"
	// KindHandler marks a failure reported (or panicked) by command logic.
	KindHandler ErrorKind = "handler"
	// KindCancelled marks handles resolved by context teardown rather than
	// by a dispatcher completion.
	KindCancelled ErrorKind = "cancelled"
)

// Error is the structured bridge error. A rejected invocation always
// carries one of these on the wire, never an opaque string.
type Error struct {
	Kind    ErrorKind
	Command string
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Command != "" {
		msg += " " + e.Command
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches two bridge errors by kind, so callers can test
// errors.Is(err, &Error{Kind: KindCancelled}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Command == "" || t.Command == e.Command)
}

// NewProtocolError reports a bridge-level fault.
func NewProtocolError(detail string, cause error) *Error {
	return &Error{Kind: KindProtocol, Detail: detail, Cause: cause}
}

// NewCommandNotFoundError reports an invocation of an unregistered command.
func NewCommandNotFoundError(cmd string) *Error {
	return &Error{Kind: KindCommandNotFound, Command: cmd, Detail: "command not found"}
}

// NewHandlerError wraps a failure reported by command logic.
func NewHandlerError(cmd string, cause error) *Error {
	return &Error{Kind: KindHandler, Command: cmd, Cause: cause}
}

// NewCancelledError reports a handle resolved by context teardown.
func NewCancelledError(reason string) *Error {
	return &Error{Kind: KindCancelled, Detail: reason}
}

// ErrorPayload is the wire form of Error. Handler errors keep the
// handler's own error value in Message.
type ErrorPayload struct {
	Kind    ErrorKind `cbor:"kind"`
	Command string    `cbor:"command,omitempty"`
	Message string    `cbor:"message"`
}

// ToPayload converts err into its wire form. Non-bridge errors are treated
// as handler failures so the caller still receives a structured payload.
func ToPayload(err error) ErrorPayload {
	var be *Error
	if errors.As(err, &be) {
		msg := be.Detail
		if be.Cause != nil {
			if msg != "" {
				msg += ": "
			}
			msg += be.Cause.Error()
		}
		return ErrorPayload{Kind: be.Kind, Command: be.Command, Message: msg}
	}
	return ErrorPayload{Kind: KindHandler, Message: err.Error()}
}

// AsError converts a decoded wire payload back into a bridge error.
func (p ErrorPayload) AsError() *Error {
	return &Error{Kind: p.Kind, Command: p.Command, Detail: p.Message}
}

// Errorf builds a handler error from a format string, for command
// implementations that have no richer error value to report.
func Errorf(cmd, format string, args ...any) *Error {
	return &Error{Kind: KindHandler, Command: cmd, Detail: fmt.Sprintf(format, args...)}
}
