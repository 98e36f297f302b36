// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

// Package topology maintains the process-wide catalog of window and
// webview identities. The catalog is an immutable snapshot behind an
// atomically swapped pointer: readers always observe a consistent whole,
// and mutations replace the snapshot rather than editing it in place.
package topology

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/CodeEditorLand/tauri/internal/protocol"
)

// Topology is one immutable snapshot. The maps must never be mutated
// after publication; Store builds a fresh copy for every change.
type Topology struct {
	Windows  map[string]protocol.WindowDescriptor
	Webviews map[string]protocol.WebviewDescriptor
}

// WindowLabels returns the window labels in stable order.
func (t *Topology) WindowLabels() []string {
	labels := lo.Keys(t.Windows)
	sort.Strings(labels)
	return labels
}

// WebviewLabels returns the webview labels in stable order.
func (t *Topology) WebviewLabels() []string {
	labels := lo.Keys(t.Webviews)
	sort.Strings(labels)
	return labels
}

// Window looks up a window descriptor by label.
func (t *Topology) Window(label string) (protocol.WindowDescriptor, bool) {
	w, ok := t.Windows[label]
	return w, ok
}

// Webview looks up a webview descriptor by label.
func (t *Topology) Webview(label string) (protocol.WebviewDescriptor, bool) {
	w, ok := t.Webviews[label]
	return w, ok
}

// WindowOf resolves a webview's owning window through the snapshot. The
// back-reference is a label, never a pointer, so a torn-down window simply
// stops resolving.
func (t *Topology) WindowOf(webviewLabel string) (protocol.WindowDescriptor, bool) {
	wv, ok := t.Webviews[webviewLabel]
	if !ok {
		return protocol.WindowDescriptor{}, false
	}
	return t.Window(wv.WindowLabel)
}

// Store holds the current snapshot and serializes writers. Reads never
// take the mutex.
type Store struct {
	current  atomic.Pointer[Topology]
	writeMu  sync.Mutex
	watchMu  sync.RWMutex
	watchers []func(*Topology)
}

// NewStore creates a store with an empty topology.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Topology{
		Windows:  map[string]protocol.WindowDescriptor{},
		Webviews: map[string]protocol.WebviewDescriptor{},
	})
	return s
}

// Snapshot returns the current topology. The result must be treated as
// read-only.
func (s *Store) Snapshot() *Topology {
	return s.current.Load()
}

// Watch registers fn to run after every published change, with the fresh
// snapshot. Used by the IPC server to push metadata updates.
func (s *Store) Watch(fn func(*Topology)) {
	s.watchMu.Lock()
	s.watchers = append(s.watchers, fn)
	s.watchMu.Unlock()
}

// AddWindow publishes a snapshot containing a new window.
func (s *Store) AddWindow(label string) error {
	return s.mutate(func(next *Topology) error {
		if _, exists := next.Windows[label]; exists {
			return fmt.Errorf("window label %q already in use", label)
		}
		next.Windows[label] = protocol.WindowDescriptor{Label: label}
		return nil
	})
}

// AddWebview publishes a snapshot containing a new webview owned by the
// window with windowLabel, which must already exist.
func (s *Store) AddWebview(label, windowLabel string) error {
	return s.mutate(func(next *Topology) error {
		if _, exists := next.Webviews[label]; exists {
			return fmt.Errorf("webview label %q already in use", label)
		}
		if _, ok := next.Windows[windowLabel]; !ok {
			return fmt.Errorf("webview %q references unknown window %q", label, windowLabel)
		}
		next.Webviews[label] = protocol.WebviewDescriptor{Label: label, WindowLabel: windowLabel}
		return nil
	})
}

// RemoveWindow publishes a snapshot without the window and without any
// webviews it hosted.
func (s *Store) RemoveWindow(label string) error {
	return s.mutate(func(next *Topology) error {
		if _, ok := next.Windows[label]; !ok {
			return fmt.Errorf("unknown window %q", label)
		}
		delete(next.Windows, label)
		for wvLabel, wv := range next.Webviews {
			if wv.WindowLabel == label {
				delete(next.Webviews, wvLabel)
			}
		}
		return nil
	})
}

// RemoveWebview publishes a snapshot without the webview.
func (s *Store) RemoveWebview(label string) error {
	return s.mutate(func(next *Topology) error {
		if _, ok := next.Webviews[label]; !ok {
			return fmt.Errorf("unknown webview %q", label)
		}
		delete(next.Webviews, label)
		return nil
	})
}

func (s *Store) mutate(apply func(*Topology) error) error {
	s.writeMu.Lock()
	old := s.current.Load()
	next := &Topology{
		Windows:  make(map[string]protocol.WindowDescriptor, len(old.Windows)+1),
		Webviews: make(map[string]protocol.WebviewDescriptor, len(old.Webviews)+1),
	}
	for k, v := range old.Windows {
		next.Windows[k] = v
	}
	for k, v := range old.Webviews {
		next.Webviews[k] = v
	}
	if err := apply(next); err != nil {
		s.writeMu.Unlock()
		return err
	}
	s.current.Store(next)
	s.writeMu.Unlock()

	s.watchMu.RLock()
	watchers := make([]func(*Topology), len(s.watchers))
	copy(watchers, s.watchers)
	s.watchMu.RUnlock()
	for _, fn := range watchers {
		fn(next)
	}
	return nil
}

// MetadataFor builds the metadata block for a session whose execution
// context is the given webview. currentWindow is resolved through the
// webview's back-reference.
func (s *Store) MetadataFor(webviewLabel string, paths protocol.PathConfig, assetProtocol string) protocol.MetadataBlock {
	snap := s.Snapshot()

	block := protocol.MetadataBlock{
		Windows: lo.Map(snap.WindowLabels(), func(label string, _ int) protocol.WindowDescriptor {
			return snap.Windows[label]
		}),
		Webviews: lo.Map(snap.WebviewLabels(), func(label string, _ int) protocol.WebviewDescriptor {
			return snap.Webviews[label]
		}),
		Paths:         paths,
		AssetProtocol: assetProtocol,
	}

	if wv, ok := snap.Webview(webviewLabel); ok {
		block.CurrentWebview = wv
		if win, ok := snap.Window(wv.WindowLabel); ok {
			block.CurrentWindow = win
		}
	}
	return block
}
