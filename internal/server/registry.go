// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package server

import (
	"sync"

	"github.com/CodeEditorLand/tauri/internal/bridge/topology"
)

// SessionRegistry tracks the live sessions and re-pushes metadata to all
// of them whenever the window/webview topology changes.
type SessionRegistry struct {
	mu         sync.RWMutex
	sessions   map[*Session]struct{}
	maxClients int
}

// NewSessionRegistry creates a registry capped at maxClients concurrent
// sessions; zero means unlimited. It registers itself as a topology
// watcher once, for the lifetime of the host.
func NewSessionRegistry(store *topology.Store, maxClients int) *SessionRegistry {
	r := &SessionRegistry{
		sessions:   make(map[*Session]struct{}),
		maxClients: maxClients,
	}
	store.Watch(func(*topology.Topology) {
		r.broadcastMetadata()
	})
	return r
}

func (r *SessionRegistry) add(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxClients > 0 && len(r.sessions) >= r.maxClients {
		return false
	}
	r.sessions[s] = struct{}{}
	return true
}

func (r *SessionRegistry) remove(s *Session) {
	r.mu.Lock()
	delete(r.sessions, s)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRegistry) broadcastMetadata() {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		s.PushMetadata()
	}
}
