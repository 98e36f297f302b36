// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

// Package event delivers named, optionally target-scoped envelopes from
// native emitters to registered listeners. Delivery is fire-and-forget:
// no correlation id, no acknowledgement, at most once per listener
// registered at emit time.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/CodeEditorLand/tauri/internal/logger"
	"github.com/CodeEditorLand/tauri/internal/protocol"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetEventsLogger()
		log = &l
	})
	return log
}

// ListenerFunc receives one delivered envelope. Listeners may register or
// remove subscriptions from inside the callback.
type ListenerFunc func(protocol.EventMessage)

// Subscription identifies one registered listener.
type Subscription struct {
	id    uint64
	event string
}

type entry struct {
	id     uint64
	target protocol.EventTarget
	fn     ListenerFunc
}

// Bus is a goroutine-safe, in-process event bus.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]entry
	nextID    atomic.Uint64
	wg        sync.WaitGroup
	closed    atomic.Bool
}

// New creates an event bus.
func New() *Bus {
	return &Bus{listeners: make(map[string][]entry)}
}

// Listen registers a listener for a named event under a target scope.
func (b *Bus) Listen(event string, target protocol.EventTarget, fn ListenerFunc) Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.listeners[event] = append(b.listeners[event], entry{id: id, target: target, fn: fn})
	b.mu.Unlock()

	return Subscription{id: id, event: event}
}

// Unlisten removes a subscription. Removing an already-removed
// subscription is a no-op; the return reports whether it was live.
func (b *Bus) Unlisten(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.listeners[sub.event]
	for i, e := range entries {
		if e.id == sub.id {
			b.listeners[sub.event] = append(entries[:i], entries[i+1:]...)
			if len(b.listeners[sub.event]) == 0 {
				delete(b.listeners, sub.event)
			}
			return true
		}
	}
	return false
}

// UnlistenTarget removes every subscription registered under a specific
// target, across all event names. Called on context teardown.
func (b *Bus) UnlistenTarget(target protocol.EventTarget) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for event, entries := range b.listeners {
		kept := entries[:0]
		for _, e := range entries {
			if e.target == target {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(b.listeners, event)
		} else {
			b.listeners[event] = kept
		}
	}
	return removed
}

// Emit fans the envelope out to every listener whose scope the envelope's
// target reaches. Each listener runs on its own goroutine, so delivery
// order across listeners is undefined and a slow listener never stalls
// the rest. The listener set is snapshotted before fan-out: registering
// or removing listeners from inside a callback cannot invalidate
// iteration, and listeners registered after Emit do not receive the
// envelope.
func (b *Bus) Emit(msg protocol.EventMessage) {
	if b.closed.Load() {
		return
	}

	emitTarget := protocol.AnyTarget()
	if msg.Target != nil {
		emitTarget = *msg.Target
	}

	b.mu.RLock()
	entries := b.listeners[msg.Event]
	matched := make([]entry, 0, len(entries))
	for _, e := range entries {
		if emitTarget.Matches(e.target) {
			matched = append(matched, e)
		}
	}
	b.mu.RUnlock()

	for _, e := range matched {
		b.deliver(msg, e)
	}
}

func (b *Bus) deliver(msg protocol.EventMessage, e entry) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				getLog().Error().
					Str("event", msg.Event).
					Interface("panic", r).
					Msg("Event listener panicked")
			}
		}()
		e.fn(msg)
	}()
}

// Len returns the number of registered listeners across all events.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, entries := range b.listeners {
		n += len(entries)
	}
	return n
}

// Close stops accepting emits and waits for in-flight deliveries.
// Idempotent.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.wg.Wait()
}
