// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package bridge

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/CodeEditorLand/tauri/internal/logger"
	"github.com/CodeEditorLand/tauri/internal/protocol"
	"github.com/CodeEditorLand/tauri/pkg/bridge/transport"
)

var (
	logOnce sync.Once
	log     zerolog.Logger
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		log = logger.GetBridgeLogger()
	})
	return &log
}

// ErrDisconnected is returned by operations attempted after the runtime
// lost its transport or was closed.
var ErrDisconnected = errors.New("bridge: disconnected from host")

// Runtime is one embedded client of a host: it owns the callback
// registry, the event subscription table, and the cached metadata block
// for the webview it represents.
type Runtime struct {
	tr       transport.Transport
	registry *Registry
	loop     *loop

	metaMu    sync.RWMutex
	meta      *protocol.MetadataBlock
	metaReady chan struct{}
	metaOnce  sync.Once

	subMu sync.Mutex
	subs  map[protocol.Handle]*subscription

	closed    chan struct{}
	closeOnce sync.Once
	recvDone  chan struct{}
}

// Connect attaches a runtime to tr and blocks until the host pushes the
// initial metadata block or ctx expires. The transport is owned by the
// runtime afterwards: Close tears it down.
func Connect(ctx context.Context, tr transport.Transport) (*Runtime, error) {
	r := &Runtime{
		tr:        tr,
		loop:      newLoop(),
		metaReady: make(chan struct{}),
		subs:      make(map[protocol.Handle]*subscription),
		closed:    make(chan struct{}),
		recvDone:  make(chan struct{}),
	}
	r.registry = NewRegistry(r.loop.submit)

	go r.receive()

	select {
	case <-r.metaReady:
		return r, nil
	case <-r.closed:
		r.loop.stop()
		return nil, ErrDisconnected
	case <-ctx.Done():
		r.Close()
		return nil, ctx.Err()
	}
}

// receive routes inbound messages until the transport's channel closes,
// then tears the runtime down so every pending invocation observes a
// cancellation.
func (r *Runtime) receive() {
	defer close(r.recvDone)
	for msg := range r.tr.Receive() {
		switch msg.Kind {
		case protocol.KindResolve:
			if msg.Resolve == nil {
				getLog().Warn().Msg("resolve message without result")
				continue
			}
			if !r.registry.Resolve(msg.Resolve.Callback, msg.Resolve.Payload) {
				getLog().Debug().
					Uint64("callback", uint64(msg.Resolve.Callback)).
					Msg("resolution for dead handle dropped")
			}
		case protocol.KindEvent:
			if msg.Event == nil {
				continue
			}
			r.deliverEvent(*msg.Event)
		case protocol.KindMetadata:
			if msg.Metadata == nil {
				continue
			}
			r.setMetadata(msg.Metadata)
		default:
			getLog().Warn().Str("kind", string(msg.Kind)).Msg("unexpected message kind")
		}
	}
	r.teardown()
}

func (r *Runtime) setMetadata(block *protocol.MetadataBlock) {
	r.metaMu.Lock()
	r.meta = block
	r.metaMu.Unlock()
	r.metaOnce.Do(func() { close(r.metaReady) })
}

func (r *Runtime) send(msg protocol.Message) error {
	select {
	case <-r.closed:
		return ErrDisconnected
	default:
	}
	if err := r.tr.Send(msg); err != nil {
		if errors.Is(err, transport.ErrClosed) {
			return ErrDisconnected
		}
		return err
	}
	return nil
}

// teardown cancels every pending invocation exactly once. Safe to call
// from both Close and the receive goroutine.
func (r *Runtime) teardown() {
	r.closeOnce.Do(func() {
		close(r.closed)
		_ = r.tr.Close()
		n := r.registry.CancelAll(protocol.NewCancelledError("connection to host closed"))
		if n > 0 {
			getLog().Info().Int("cancelled", n).Msg("pending invocations cancelled")
		}
		r.subMu.Lock()
		r.subs = make(map[protocol.Handle]*subscription)
		r.subMu.Unlock()
	})
}

// Close detaches the runtime: the transport is closed, every pending
// invocation resolves through its error callback with a cancellation,
// and the callback loop drains before returning.
func (r *Runtime) Close() error {
	r.teardown()
	<-r.recvDone
	r.loop.stop()
	return nil
}

// Registry exposes the callback registry, mostly for leak assertions.
func (r *Runtime) Registry() *Registry { return r.registry }
