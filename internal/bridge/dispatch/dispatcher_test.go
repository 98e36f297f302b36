// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeEditorLand/tauri/internal/protocol"
)

func TestDispatch_SuccessResolvesSuccessHandleOnly(t *testing.T) {
	d := New()
	require.NoError(t, d.RegisterFunc("read_file", func(_ context.Context, payload any) (any, error) {
		var args struct {
			Path string `cbor:"path"`
		}
		if err := protocol.RedecodePayload(payload, &args); err != nil {
			return nil, err
		}
		if args.Path != "a.txt" {
			return nil, fmt.Errorf("unexpected path %q", args.Path)
		}
		return map[string]any{"content": "hi"}, nil
	}))

	results := make(chan protocol.InvokeResult, 1)
	d.Dispatch(context.Background(), &protocol.InvokeRequest{
		Cmd:      "read_file",
		Callback: 1,
		Error:    2,
		Payload:  map[string]any{"path": "a.txt"},
	}, func(res protocol.InvokeResult) { results <- res })

	res := <-results
	assert.Equal(t, protocol.Handle(1), res.Callback)
	assert.Equal(t, protocol.TagOk, res.Tag)
	assert.Equal(t, map[string]any{"content": "hi"}, res.Payload)

	select {
	case extra := <-results:
		t.Fatalf("error handle fired too: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatch_HandlerSeesInvocationOptions(t *testing.T) {
	d := New()
	require.NoError(t, d.RegisterFunc("whoami", func(ctx context.Context, _ any) (any, error) {
		inv, ok := InvocationFrom(ctx)
		if !ok {
			return nil, fmt.Errorf("no invocation in context")
		}
		return map[string]any{
			"cmd":     inv.Cmd,
			"request": InvocationHeader(ctx, "x-request-id"),
		}, nil
	}))

	results := make(chan protocol.InvokeResult, 1)
	d.Dispatch(context.Background(), &protocol.InvokeRequest{
		Cmd:      "whoami",
		Callback: 1,
		Error:    2,
		Options: &protocol.InvokeOptions{
			Headers: map[string]string{"x-request-id": "req-9"},
		},
	}, func(res protocol.InvokeResult) { results <- res })

	res := <-results
	require.Equal(t, protocol.TagOk, res.Tag)
	assert.Equal(t, map[string]any{"cmd": "whoami", "request": "req-9"}, res.Payload)
}

func TestInvocationFrom_AbsentOutsideDispatch(t *testing.T) {
	_, ok := InvocationFrom(context.Background())
	assert.False(t, ok)
	assert.Empty(t, InvocationHeader(context.Background(), "x-request-id"))
}

func TestDispatch_UnknownCommandResolvesErrorHandle(t *testing.T) {
	d := New()

	results := make(chan protocol.InvokeResult, 1)
	d.Dispatch(context.Background(), &protocol.InvokeRequest{
		Cmd:      "missing_cmd",
		Callback: 1,
		Error:    2,
		Payload:  map[string]any{"anything": true},
	}, func(res protocol.InvokeResult) { results <- res })

	res := <-results
	assert.Equal(t, protocol.Handle(2), res.Callback)
	assert.Equal(t, protocol.TagErr, res.Tag)

	payload, ok := res.Payload.(protocol.ErrorPayload)
	require.True(t, ok)
	assert.Equal(t, protocol.KindCommandNotFound, payload.Kind)
	assert.Equal(t, "missing_cmd", payload.Command)
}

func TestDispatch_HandlerErrorResolvesErrorHandle(t *testing.T) {
	d := New()
	require.NoError(t, d.RegisterFunc("write_file", func(context.Context, any) (any, error) {
		return nil, fmt.Errorf("disk full")
	}))

	results := make(chan protocol.InvokeResult, 1)
	d.Dispatch(context.Background(), &protocol.InvokeRequest{
		Cmd: "write_file", Callback: 1, Error: 2,
	}, func(res protocol.InvokeResult) { results <- res })

	res := <-results
	assert.Equal(t, protocol.Handle(2), res.Callback)
	assert.Equal(t, protocol.TagErr, res.Tag)

	payload, ok := res.Payload.(protocol.ErrorPayload)
	require.True(t, ok)
	assert.Equal(t, protocol.KindHandler, payload.Kind)
	assert.Equal(t, "write_file", payload.Command)
	assert.Contains(t, payload.Message, "disk full")
}

func TestDispatch_PanickingHandlerBecomesErrorResolution(t *testing.T) {
	d := New()
	require.NoError(t, d.RegisterFunc("explode", func(context.Context, any) (any, error) {
		panic("kaboom")
	}))

	results := make(chan protocol.InvokeResult, 1)
	d.Dispatch(context.Background(), &protocol.InvokeRequest{
		Cmd: "explode", Callback: 1, Error: 2,
	}, func(res protocol.InvokeResult) { results <- res })

	res := <-results
	assert.Equal(t, protocol.Handle(2), res.Callback)
	assert.Equal(t, protocol.TagErr, res.Tag)

	payload, ok := res.Payload.(protocol.ErrorPayload)
	require.True(t, ok)
	assert.Equal(t, protocol.KindHandler, payload.Kind)
	assert.Contains(t, payload.Message, "kaboom")
}

func TestDispatch_DoesNotBlockCaller(t *testing.T) {
	d := New()
	release := make(chan struct{})
	require.NoError(t, d.RegisterFunc("slow", func(context.Context, any) (any, error) {
		<-release
		return "done", nil
	}))

	results := make(chan protocol.InvokeResult, 1)
	start := time.Now()
	d.Dispatch(context.Background(), &protocol.InvokeRequest{
		Cmd: "slow", Callback: 1, Error: 2,
	}, func(res protocol.InvokeResult) { results <- res })
	assert.Less(t, time.Since(start), 100*time.Millisecond, "Dispatch must return before the handler completes")

	close(release)
	res := <-results
	assert.Equal(t, protocol.TagOk, res.Tag)
}

func TestDispatch_ConcurrentInvocationsResolveIndependently(t *testing.T) {
	d := New()
	require.NoError(t, d.RegisterFunc("echo", func(_ context.Context, payload any) (any, error) {
		return payload, nil
	}))

	const n = 50
	var mu sync.Mutex
	got := make(map[protocol.Handle]any, n)
	var wg sync.WaitGroup
	wg.Add(n)

	for i := range n {
		d.Dispatch(context.Background(), &protocol.InvokeRequest{
			Cmd:      "echo",
			Callback: protocol.Handle(i*2 + 1),
			Error:    protocol.Handle(i*2 + 2),
			Payload:  int64(i),
		}, func(res protocol.InvokeResult) {
			mu.Lock()
			got[res.Callback] = res.Payload
			mu.Unlock()
			wg.Done()
		})
	}

	wg.Wait()
	require.Len(t, got, n)
	for i := range n {
		assert.Equal(t, int64(i), got[protocol.Handle(i*2+1)])
	}
}

func TestRegister_DuplicateRejected(t *testing.T) {
	d := New()
	require.NoError(t, d.RegisterFunc("ping", func(context.Context, any) (any, error) { return "pong", nil }))

	err := d.RegisterFunc("ping", func(context.Context, any) (any, error) { return nil, nil })
	assert.Error(t, err)
	assert.Equal(t, []string{"ping"}, d.Commands())
}
