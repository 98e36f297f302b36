// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package dispatch

import (
	"context"

	"github.com/CodeEditorLand/tauri/internal/protocol"
)

type invocationCtxKey struct{}

// Invocation describes the in-flight command from the handler's point of
// view: the command name and whatever options the caller attached.
type Invocation struct {
	Cmd     string
	Headers map[string]string
	Target  *protocol.EventTarget
}

func withInvocation(ctx context.Context, req *protocol.InvokeRequest) context.Context {
	inv := Invocation{Cmd: req.Cmd}
	if req.Options != nil {
		inv.Headers = req.Options.Headers
		inv.Target = req.Options.Target
	}
	return context.WithValue(ctx, invocationCtxKey{}, inv)
}

// InvocationFrom returns the invocation record for the handler's context.
// The second return is false outside of a dispatched handler.
func InvocationFrom(ctx context.Context) (Invocation, bool) {
	inv, ok := ctx.Value(invocationCtxKey{}).(Invocation)
	return inv, ok
}

// InvocationHeader returns one caller-supplied header, or "" when the
// invocation carried none by that name.
func InvocationHeader(ctx context.Context, name string) string {
	inv, ok := InvocationFrom(ctx)
	if !ok {
		return ""
	}
	return inv.Headers[name]
}
