// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

// Package bridge is the embedded-side runtime surface: command
// invocation, the callback registry, event subscriptions, and the cached
// metadata block. It is the Go rendition of the script API the host's
// webviews program against.
package bridge

import (
	"sync"

	"github.com/CodeEditorLand/tauri/internal/protocol"
)

// Callback is a continuation registered in the callback registry. The
// value is the decoded resolution payload.
type Callback func(value any)

type pendingCallback struct {
	fn      Callback
	once    bool
	partner protocol.Handle // other half of an invocation pair, 0 for none
}

// Registry correlates in-flight invocations with their continuations.
// Handles carry a generation in the high bits; CancelAll bumps the
// generation, so a handle minted before a teardown can never collide
// with one minted after, even if a stale resolution is still in flight.
type Registry struct {
	mu       sync.Mutex
	gen      uint64
	seq      uint64
	pending  map[protocol.Handle]*pendingCallback
	schedule func(func())
}

// NewRegistry creates a registry whose continuations run through
// schedule, the non-blocking handoff onto the embedded loop.
func NewRegistry(schedule func(func())) *Registry {
	if schedule == nil {
		schedule = func(fn func()) { fn() }
	}
	return &Registry{
		pending:  make(map[protocol.Handle]*pendingCallback),
		schedule: schedule,
	}
}

func (r *Registry) nextHandle() protocol.Handle {
	r.seq++
	return protocol.Handle(r.gen<<32 | r.seq&0xffffffff)
}

// TransformCallback allocates a handle and arranges for fn to run on the
// embedded loop when the handle is resolved. With once=false the handle
// survives multiple resolutions (event channel callbacks); with
// once=true it is consumed by its first resolution.
func (r *Registry) TransformCallback(fn Callback, once bool) protocol.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.nextHandle()
	r.pending[h] = &pendingCallback{fn: fn, once: once}
	return h
}

// RegisterPair mints the success/error handle pair for one invocation.
// The pair is linked: resolving either handle consumes both, so exactly
// one of the two continuations can ever run.
func (r *Registry) RegisterPair(onOk, onErr Callback) (success, failure protocol.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	success = r.nextHandle()
	failure = r.nextHandle()
	r.pending[success] = &pendingCallback{fn: onOk, once: true, partner: failure}
	r.pending[failure] = &pendingCallback{fn: onErr, once: true, partner: success}
	return success, failure
}

// Resolve fires the continuation behind h with value. Returns whether the
// handle was live: resolving a consumed or unknown handle is a no-op and
// must never affect any other handle. The continuation runs on the
// embedded loop; Resolve itself never blocks and is safe from any
// goroutine.
func (r *Registry) Resolve(h protocol.Handle, value any) bool {
	r.mu.Lock()
	cb, ok := r.pending[h]
	if !ok {
		r.mu.Unlock()
		return false
	}
	if cb.once {
		delete(r.pending, h)
		if cb.partner != 0 {
			delete(r.pending, cb.partner)
		}
	}
	r.mu.Unlock()

	r.schedule(func() { cb.fn(value) })
	return true
}

// Drop removes a channel callback without firing it. Used by unlisten.
func (r *Registry) Drop(h protocol.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[h]; !ok {
		return false
	}
	delete(r.pending, h)
	return true
}

// CancelAll tears the registry down: every pending single-use pair is
// resolved through its error half with the cancellation payload, channel
// callbacks are dropped, and the generation is bumped so stale handles
// from before the teardown can never be confused with new ones. Returns
// the number of cancelled invocations.
func (r *Registry) CancelAll(reason *protocol.Error) int {
	payload := protocol.ToPayload(reason)

	r.mu.Lock()
	var errHalves []*pendingCallback
	for h, cb := range r.pending {
		if !cb.once || cb.partner == 0 {
			continue
		}
		// Each pair appears twice; pick the error half, which is the
		// second handle of the pair.
		if h > cb.partner {
			errHalves = append(errHalves, cb)
		}
	}
	r.pending = make(map[protocol.Handle]*pendingCallback)
	r.gen++
	r.seq = 0
	r.mu.Unlock()

	for _, cb := range errHalves {
		fn := cb.fn
		r.schedule(func() { fn(payload) })
	}
	return len(errHalves)
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
