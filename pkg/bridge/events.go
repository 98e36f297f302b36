// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package bridge

import (
	"sync"

	"github.com/CodeEditorLand/tauri/internal/protocol"
)

// Event is what a listener receives: the event name, the target scope it
// was emitted under, and the decoded payload.
type Event struct {
	Name    string
	Target  protocol.EventTarget
	Payload any
}

// EventHandler consumes delivered events. Handlers run on the embedded
// callback loop, one at a time.
type EventHandler func(Event)

type subscription struct {
	event   string
	handler protocol.Handle
}

// UnlistenFunc removes the subscription it belongs to. Calling it more
// than once is a no-op.
type UnlistenFunc func() error

// Listen subscribes fn to every emission of event visible to this
// runtime's webview. The handler handle is a channel callback: it stays
// live across any number of deliveries until the returned UnlistenFunc
// runs or the runtime closes.
func (r *Runtime) Listen(event string, fn EventHandler) (UnlistenFunc, error) {
	return r.listen(event, nil, fn)
}

// ListenTo is Listen restricted to emissions scoped at target.
func (r *Runtime) ListenTo(event string, target protocol.EventTarget, fn EventHandler) (UnlistenFunc, error) {
	return r.listen(event, &target, fn)
}

func (r *Runtime) listen(event string, target *protocol.EventTarget, fn EventHandler) (UnlistenFunc, error) {
	handle := r.registry.TransformCallback(func(value any) {
		ev, ok := value.(Event)
		if !ok {
			return
		}
		fn(ev)
	}, false)

	sub := &subscription{event: event, handler: handle}
	r.subMu.Lock()
	r.subs[handle] = sub
	r.subMu.Unlock()

	err := r.send(protocol.Message{
		Kind: protocol.KindListen,
		Listen: &protocol.ListenRequest{
			Event:   event,
			Target:  target,
			Handler: handle,
		},
	})
	if err != nil {
		r.dropSubscription(sub)
		return nil, err
	}

	return func() error { return r.unlisten(sub) }, nil
}

// Once is Listen with a self-removing handler: fn runs for the first
// delivery only.
func (r *Runtime) Once(event string, fn EventHandler) (UnlistenFunc, error) {
	var mu sync.Mutex
	var unlisten UnlistenFunc
	fired := false
	u, err := r.Listen(event, func(ev Event) {
		// A second delivery may already be queued behind the first one.
		if fired {
			return
		}
		fired = true
		fn(ev)
		mu.Lock()
		u := unlisten
		mu.Unlock()
		if u != nil {
			_ = u()
		}
	})
	if err != nil {
		return nil, err
	}
	mu.Lock()
	unlisten = u
	mu.Unlock()
	return u, nil
}

func (r *Runtime) unlisten(sub *subscription) error {
	if !r.dropSubscription(sub) {
		return nil
	}
	return r.send(protocol.Message{
		Kind: protocol.KindUnlisten,
		Unlisten: &protocol.UnlistenRequest{
			Event:   sub.event,
			Handler: sub.handler,
		},
	})
}

// dropSubscription removes the local half of a subscription and reports
// whether it was still live.
func (r *Runtime) dropSubscription(sub *subscription) bool {
	r.subMu.Lock()
	_, live := r.subs[sub.handler]
	delete(r.subs, sub.handler)
	r.subMu.Unlock()
	if live {
		r.registry.Drop(sub.handler)
	}
	return live
}

// Emit publishes event globally: every listener on every window and
// webview whose subscription matches receives it.
func (r *Runtime) Emit(event string, payload any) error {
	return r.emit(event, nil, payload)
}

// EmitTo publishes event scoped to target.
func (r *Runtime) EmitTo(event string, target protocol.EventTarget, payload any) error {
	return r.emit(event, &target, payload)
}

func (r *Runtime) emit(event string, target *protocol.EventTarget, payload any) error {
	return r.send(protocol.Message{
		Kind: protocol.KindEvent,
		Event: &protocol.EventMessage{
			Event:   event,
			Target:  target,
			Payload: payload,
		},
	})
}

// deliverEvent routes a host-to-embedded event to its channel callback.
// Unknown handler handles are dropped: the unlisten raced the delivery,
// which the contract allows.
func (r *Runtime) deliverEvent(msg protocol.EventMessage) {
	target := protocol.AnyTarget()
	if msg.Target != nil {
		target = *msg.Target
	}
	ev := Event{Name: msg.Event, Target: target, Payload: msg.Payload}
	if !r.registry.Resolve(msg.Handler, ev) {
		getLog().Debug().
			Str("event", msg.Event).
			Uint64("handler", uint64(msg.Handler)).
			Msg("event delivery for dead handler dropped")
	}
}
