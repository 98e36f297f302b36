// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

// Package protocol defines the messages exchanged between the embedded
// webview runtime and the native host. Everything that crosses the bridge
// is one of the Message kinds below; the codec in this package is the only
// place where wire bytes are produced or consumed.
package protocol

// Handle identifies one pending continuation on the embedded side.
// Handles are minted by the embedded callback registry and are single-use
// unless registered as a channel callback (event listeners).
type Handle uint64

// MessageKind discriminates the wire envelope.
type MessageKind string

const (
	// KindInvoke carries a command invocation from the embedded side.
	KindInvoke MessageKind = "invoke"
	// KindResolve carries a terminal result back to a callback handle.
	KindResolve MessageKind = "resolve"
	// KindEvent carries an event envelope in either direction.
	KindEvent MessageKind = "event"
	// KindListen registers an event listener backed by a channel callback.
	KindListen MessageKind = "listen"
	// KindUnlisten removes a previously registered listener.
	KindUnlisten MessageKind = "unlisten"
	// KindMetadata pushes the topology snapshot and path constants to the
	// embedded side. Sent once at session establishment and again on every
	// topology change.
	KindMetadata MessageKind = "metadata"
)

// Message is the wire envelope. Exactly one of the pointer fields matching
// Kind is set.
type Message struct {
	Kind     MessageKind      `cbor:"kind"`
	Invoke   *InvokeRequest   `cbor:"invoke,omitempty"`
	Resolve  *InvokeResult    `cbor:"resolve,omitempty"`
	Event    *EventMessage    `cbor:"event,omitempty"`
	Listen   *ListenRequest   `cbor:"listen,omitempty"`
	Unlisten *UnlistenRequest `cbor:"unlisten,omitempty"`
	Metadata *MetadataBlock   `cbor:"metadata,omitempty"`
}

// InvokeOptions is the optional configuration record attached to an
// invocation.
type InvokeOptions struct {
	Headers map[string]string `cbor:"headers,omitempty"`
	Target  *EventTarget      `cbor:"target,omitempty"`
}

// InvokeRequest asks the host to execute a named command. Callback and
// Error are the success/error handle pair minted for this invocation.
type InvokeRequest struct {
	Cmd      string         `cbor:"cmd"`
	Callback Handle         `cbor:"callback"`
	Error    Handle         `cbor:"error"`
	Payload  any            `cbor:"payload,omitempty"`
	Options  *InvokeOptions `cbor:"options,omitempty"`
}

// ResultTag distinguishes success from failure in an InvokeResult.
type ResultTag string

const (
	TagOk  ResultTag = "ok"
	TagErr ResultTag = "err"
)

// InvokeResult resolves exactly one handle of an invocation's pair.
// Callback names the handle to fire; Tag records which side of the pair
// it is, so the embedded registry can detect protocol-level mismatches.
type InvokeResult struct {
	Callback Handle    `cbor:"callback"`
	Tag      ResultTag `cbor:"tag"`
	Payload  any       `cbor:"payload,omitempty"`
}

// EventMessage is the event envelope. Handler is only set for host-to-
// embedded delivery, naming the channel callback registered by a prior
// ListenRequest. There is no correlation id: delivery is fire-and-forget.
type EventMessage struct {
	Event   string       `cbor:"event"`
	Target  *EventTarget `cbor:"target,omitempty"`
	Payload any          `cbor:"payload,omitempty"`
	Handler Handle       `cbor:"handler,omitempty"`
}

// ListenRequest subscribes the embedded side to a named event. Handler is
// a channel callback handle that the host will address deliveries to.
type ListenRequest struct {
	Event   string       `cbor:"event"`
	Target  *EventTarget `cbor:"target,omitempty"`
	Handler Handle       `cbor:"handler"`
}

// UnlistenRequest removes the subscription backed by Handler.
type UnlistenRequest struct {
	Event   string `cbor:"event"`
	Handler Handle `cbor:"handler"`
}
