// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeEditorLand/tauri/internal/protocol"
)

// recorder collects deliveries without caring about order.
type recorder struct {
	mu   sync.Mutex
	got  []protocol.EventMessage
	wait chan struct{}
}

func newRecorder(expected int) *recorder {
	r := &recorder{wait: make(chan struct{}, expected)}
	return r
}

func (r *recorder) fn(msg protocol.EventMessage) {
	r.mu.Lock()
	r.got = append(r.got, msg)
	r.mu.Unlock()
	r.wait <- struct{}{}
}

func (r *recorder) awaitN(t *testing.T, n int) []protocol.EventMessage {
	t.Helper()
	for range n {
		select {
		case <-r.wait:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for deliveries")
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.EventMessage, len(r.got))
	copy(out, r.got)
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestBus_GlobalEmitReachesAllListeners(t *testing.T) {
	b := New()
	defer b.Close()

	rec := newRecorder(3)
	b.Listen("file-changed", protocol.AnyTarget(), rec.fn)
	b.Listen("file-changed", protocol.WindowTarget("main"), rec.fn)
	b.Listen("file-changed", protocol.WebviewTarget("settings"), rec.fn)
	b.Listen("other-event", protocol.AnyTarget(), rec.fn)

	b.Emit(protocol.EventMessage{Event: "file-changed", Payload: "p"})

	got := rec.awaitN(t, 3)
	assert.Len(t, got, 3, "name match is required, scope is not, for a global emit")
}

func TestBus_ScopedEmitSkipsOtherScopes(t *testing.T) {
	b := New()
	defer b.Close()

	mainRec := newRecorder(1)
	globalRec := newRecorder(1)
	otherRec := newRecorder(1)

	b.Listen("menu-clicked", protocol.WindowTarget("main"), mainRec.fn)
	b.Listen("menu-clicked", protocol.AnyTarget(), globalRec.fn)
	b.Listen("menu-clicked", protocol.WindowTarget("settings"), otherRec.fn)

	target := protocol.WindowTarget("main")
	b.Emit(protocol.EventMessage{Event: "menu-clicked", Target: &target})

	mainRec.awaitN(t, 1)
	globalRec.awaitN(t, 1)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, otherRec.count(), "differently scoped listener must never fire")
}

func TestBus_UnlistenStopsDelivery(t *testing.T) {
	b := New()
	defer b.Close()

	rec := newRecorder(2)
	sub := b.Listen("tick", protocol.AnyTarget(), rec.fn)

	b.Emit(protocol.EventMessage{Event: "tick"})
	rec.awaitN(t, 1)

	assert.True(t, b.Unlisten(sub))
	assert.False(t, b.Unlisten(sub), "second unlisten is a no-op")

	b.Emit(protocol.EventMessage{Event: "tick"})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestBus_ListenerRegisteredAfterEmitDoesNotReceiveIt(t *testing.T) {
	b := New()
	defer b.Close()

	b.Emit(protocol.EventMessage{Event: "early"})

	rec := newRecorder(1)
	b.Listen("early", protocol.AnyTarget(), rec.fn)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestBus_UnlistenFromInsideCallback(t *testing.T) {
	b := New()
	defer b.Close()

	var sub Subscription
	done := make(chan struct{})
	sub = b.Listen("once-ish", protocol.AnyTarget(), func(protocol.EventMessage) {
		b.Unlisten(sub)
		close(done)
	})

	b.Emit(protocol.EventMessage{Event: "once-ish"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never ran")
	}
	require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBus_ListenFromInsideCallback(t *testing.T) {
	b := New()
	defer b.Close()

	registered := make(chan struct{})
	b.Listen("spawn", protocol.AnyTarget(), func(protocol.EventMessage) {
		b.Listen("spawned", protocol.AnyTarget(), func(protocol.EventMessage) {})
		close(registered)
	})

	b.Emit(protocol.EventMessage{Event: "spawn"})

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("nested Listen deadlocked")
	}
	assert.Equal(t, 2, b.Len())
}

func TestBus_PanickingListenerDoesNotAffectOthers(t *testing.T) {
	b := New()
	defer b.Close()

	rec := newRecorder(1)
	b.Listen("risky", protocol.AnyTarget(), func(protocol.EventMessage) { panic("listener bug") })
	b.Listen("risky", protocol.AnyTarget(), rec.fn)

	b.Emit(protocol.EventMessage{Event: "risky"})
	rec.awaitN(t, 1)
}

func TestBus_UnlistenTarget(t *testing.T) {
	b := New()
	defer b.Close()

	b.Listen("a", protocol.WebviewTarget("gone"), func(protocol.EventMessage) {})
	b.Listen("b", protocol.WebviewTarget("gone"), func(protocol.EventMessage) {})
	b.Listen("a", protocol.WebviewTarget("kept"), func(protocol.EventMessage) {})

	removed := b.UnlistenTarget(protocol.WebviewTarget("gone"))
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, b.Len())
}

func TestBus_EmitAfterCloseIsNoop(t *testing.T) {
	b := New()
	rec := newRecorder(1)
	b.Listen("late", protocol.AnyTarget(), rec.fn)

	b.Close()
	b.Emit(protocol.EventMessage{Event: "late"})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count())
}
