// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package protocol

// TargetKind selects the scope an event is addressed to.
type TargetKind string

const (
	// TargetAny addresses every listener for the event name.
	TargetAny TargetKind = "any"
	// TargetWindow addresses listeners registered under a window label.
	TargetWindow TargetKind = "window"
	// TargetWebview addresses listeners registered under a webview label.
	TargetWebview TargetKind = "webview"
	// TargetWebviewWindow addresses a window and its same-labelled webview.
	TargetWebviewWindow TargetKind = "webviewWindow"
)

// EventTarget scopes event delivery. A nil *EventTarget means TargetAny.
type EventTarget struct {
	Kind  TargetKind `cbor:"kind"`
	Label string     `cbor:"label,omitempty"`
}

// AnyTarget returns the global scope.
func AnyTarget() EventTarget { return EventTarget{Kind: TargetAny} }

// WindowTarget scopes to a window label.
func WindowTarget(label string) EventTarget {
	return EventTarget{Kind: TargetWindow, Label: label}
}

// WebviewTarget scopes to a webview label.
func WebviewTarget(label string) EventTarget {
	return EventTarget{Kind: TargetWebview, Label: label}
}

// WebviewWindowTarget scopes to a window and its webview sharing one label.
func WebviewWindowTarget(label string) EventTarget {
	return EventTarget{Kind: TargetWebviewWindow, Label: label}
}

// IsAny reports whether t addresses every listener. A zero-valued target
// (kind left empty on the wire) counts as global.
func (t EventTarget) IsAny() bool {
	return t.Kind == TargetAny || t.Kind == ""
}

// Matches reports whether an event emitted at t reaches a listener
// registered under other. Global on either side always matches; otherwise
// the labels must agree, with webviewWindow bridging both kinds.
func (t EventTarget) Matches(other EventTarget) bool {
	if t.IsAny() || other.IsAny() {
		return true
	}
	if t.Label != other.Label {
		return false
	}
	if t.Kind == other.Kind {
		return true
	}
	return t.Kind == TargetWebviewWindow || other.Kind == TargetWebviewWindow
}
