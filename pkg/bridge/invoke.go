// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package bridge

import (
	"context"

	"github.com/CodeEditorLand/tauri/internal/protocol"
)

// InvokeOption configures a single invocation.
type InvokeOption func(*protocol.InvokeOptions)

// WithHeaders attaches transport headers to the invocation.
func WithHeaders(headers map[string]string) InvokeOption {
	return func(o *protocol.InvokeOptions) {
		o.Headers = headers
	}
}

// WithTarget scopes the invocation to a window or webview other than the
// caller's.
func WithTarget(target protocol.EventTarget) InvokeOption {
	return func(o *protocol.InvokeOptions) {
		o.Target = &target
	}
}

// Pending is one in-flight invocation. Exactly one of its two callbacks
// fires, exactly once, even across teardown.
type Pending struct {
	done  chan struct{}
	value any
	err   error
}

// Await blocks until the invocation resolves or ctx expires. The pending
// result stays live after a ctx timeout: a later Await can still collect
// it, and teardown converts it into a cancellation error.
func (p *Pending) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done exposes resolution for select loops.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Invoke asks the host to execute cmd with payload and returns the
// pending result. The success/error callback pair is minted in the
// registry before the request leaves, so a resolution can never race the
// registration. A transport send failure resolves the pair locally
// through the error half.
func (r *Runtime) Invoke(cmd string, payload any, opts ...InvokeOption) *Pending {
	p := &Pending{done: make(chan struct{})}

	select {
	case <-r.closed:
		p.err = protocol.NewCancelledError("connection to host closed")
		close(p.done)
		return p
	default:
	}

	success, failure := r.registry.RegisterPair(
		func(value any) {
			p.value = value
			close(p.done)
		},
		func(value any) {
			p.err = errorFromPayload(cmd, value)
			close(p.done)
		},
	)

	err := r.IPC(cmd, payload, success, failure, opts...)
	if err != nil {
		// The pair is still registered; route the failure through the
		// error half so at-most-once bookkeeping stays in one place.
		r.registry.Resolve(failure, protocol.ToPayload(
			protocol.NewProtocolError("send invoke", err)))
	}
	return p
}

// IPC is the low-level invocation entry: the caller supplies the handle
// pair itself, typically minted with TransformCallback. Invoke is the
// high-level wrapper everyone else should use.
func (r *Runtime) IPC(cmd string, payload any, success, failure protocol.Handle, opts ...InvokeOption) error {
	req := &protocol.InvokeRequest{
		Cmd:      cmd,
		Callback: success,
		Error:    failure,
		Payload:  payload,
	}
	if len(opts) > 0 {
		options := &protocol.InvokeOptions{}
		for _, opt := range opts {
			opt(options)
		}
		req.Options = options
	}
	return r.send(protocol.Message{Kind: protocol.KindInvoke, Invoke: req})
}

// ResultInto awaits p and decodes the resolution payload into T, so
// callers get their result shape without hand-walking maps.
func ResultInto[T any](ctx context.Context, p *Pending) (T, error) {
	var out T
	value, err := p.Await(ctx)
	if err != nil {
		return out, err
	}
	if err := protocol.RedecodePayload(value, &out); err != nil {
		return out, err
	}
	return out, nil
}

// errorFromPayload rebuilds a typed error from the wire payload delivered
// to an error callback.
func errorFromPayload(cmd string, value any) error {
	if ep, ok := protocol.ErrorPayloadFrom(value); ok {
		err := ep.AsError()
		if err.Command == "" {
			err.Command = cmd
		}
		return err
	}
	return protocol.Errorf(cmd, "%v", value)
}
