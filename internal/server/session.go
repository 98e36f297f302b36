// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/CodeEditorLand/tauri/internal/bridge/dispatch"
	"github.com/CodeEditorLand/tauri/internal/bridge/event"
	"github.com/CodeEditorLand/tauri/internal/bridge/topology"
	"github.com/CodeEditorLand/tauri/internal/protocol"
	"github.com/CodeEditorLand/tauri/pkg/bridge/transport"
)

// Deps are the host facilities every session works against.
type Deps struct {
	Dispatcher    *dispatch.Dispatcher
	Bus           *event.Bus
	Topology      *topology.Store
	Paths         protocol.PathConfig
	AssetProtocol string
}

// Session serves one embedded client over a transport. It routes the
// client's invocations into the dispatcher, bridges its listen requests
// onto the host event bus, and keeps its metadata block current.
type Session struct {
	id      string
	deps    Deps
	tr      transport.Transport
	webview string

	subMu sync.Mutex
	subs  map[protocol.Handle]event.Subscription

	done chan struct{}
}

// NewSession binds a transport to the host facilities on behalf of the
// webview with the given label. Run does the actual work.
func NewSession(deps Deps, tr transport.Transport, webviewLabel string) *Session {
	return &Session{
		id:      uuid.NewString(),
		deps:    deps,
		tr:      tr,
		webview: webviewLabel,
		subs:    make(map[protocol.Handle]event.Subscription),
		done:    make(chan struct{}),
	}
}

// Run pushes the initial metadata block, then routes inbound messages
// until the transport closes or ctx is cancelled. All of the session's
// bus subscriptions are removed on the way out, so listener callbacks
// never outlive the connection that registered them.
func (s *Session) Run(ctx context.Context) {
	defer s.teardown()

	s.PushMetadata()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.tr.Receive():
			if !ok {
				return
			}
			s.route(ctx, msg)
		}
	}
}

func (s *Session) route(ctx context.Context, msg protocol.Message) {
	switch msg.Kind {
	case protocol.KindInvoke:
		if msg.Invoke == nil {
			getLog().Warn().Str("webview", s.webview).Msg("Invoke message without request")
			return
		}
		s.deps.Dispatcher.Dispatch(ctx, msg.Invoke, s.respond)
	case protocol.KindEvent:
		if msg.Event == nil {
			return
		}
		s.deps.Bus.Emit(*msg.Event)
	case protocol.KindListen:
		if msg.Listen == nil {
			return
		}
		s.addListener(*msg.Listen)
	case protocol.KindUnlisten:
		if msg.Unlisten == nil {
			return
		}
		s.removeListener(*msg.Unlisten)
	default:
		getLog().Warn().
			Str("webview", s.webview).
			Str("kind", string(msg.Kind)).
			Msg("Unexpected message kind from client")
	}
}

// respond writes one terminal invocation result back to the client. A
// send failure means the transport died; the result is dropped and the
// client's registry handles the cancellation on its side.
func (s *Session) respond(res protocol.InvokeResult) {
	err := s.tr.Send(protocol.Message{Kind: protocol.KindResolve, Resolve: &res})
	if err != nil {
		getLog().Warn().
			Err(err).
			Str("webview", s.webview).
			Uint64("callback", uint64(res.Callback)).
			Msg("Result dropped")
	}
}

// addListener bridges a client subscription onto the host bus. A nil
// target scopes the subscription to the client's own webview, matching
// what an unscoped listen means from inside a webview.
func (s *Session) addListener(req protocol.ListenRequest) {
	target := protocol.WebviewTarget(s.webview)
	if req.Target != nil {
		target = *req.Target
	}

	handler := req.Handler
	sub := s.deps.Bus.Listen(req.Event, target, func(msg protocol.EventMessage) {
		msg.Handler = handler
		if err := s.tr.Send(protocol.Message{Kind: protocol.KindEvent, Event: &msg}); err != nil {
			getLog().Debug().
				Str("webview", s.webview).
				Str("event", msg.Event).
				Msg("Event dropped, transport closed")
		}
	})

	s.subMu.Lock()
	s.subs[handler] = sub
	s.subMu.Unlock()
}

func (s *Session) removeListener(req protocol.UnlistenRequest) {
	s.subMu.Lock()
	sub, ok := s.subs[req.Handler]
	delete(s.subs, req.Handler)
	s.subMu.Unlock()
	if ok {
		s.deps.Bus.Unlisten(sub)
	}
}

// PushMetadata sends the current metadata block. The registry calls this
// on every topology change so clients never hold stale window lists.
func (s *Session) PushMetadata() {
	block := s.deps.Topology.MetadataFor(s.webview, s.deps.Paths, s.deps.AssetProtocol)
	err := s.tr.Send(protocol.Message{Kind: protocol.KindMetadata, Metadata: &block})
	if err != nil {
		getLog().Debug().Str("webview", s.webview).Msg("Metadata push dropped, transport closed")
	}
}

func (s *Session) teardown() {
	s.subMu.Lock()
	subs := s.subs
	s.subs = make(map[protocol.Handle]event.Subscription)
	s.subMu.Unlock()

	for _, sub := range subs {
		s.deps.Bus.Unlisten(sub)
	}
	_ = s.tr.Close()
	close(s.done)
	getLog().Info().
		Str("session", s.id).
		Str("webview", s.webview).
		Int("subscriptions", len(subs)).
		Msg("Session closed")
}

// Done is closed when the session has fully torn down.
func (s *Session) Done() <-chan struct{} { return s.done }
