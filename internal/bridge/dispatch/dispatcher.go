// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

// Package dispatch resolves command invocations from the embedded side to
// host-registered handlers and produces exactly one terminal result per
// invocation.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/CodeEditorLand/tauri/internal/logger"
	"github.com/CodeEditorLand/tauri/internal/protocol"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetDispatchLogger()
		log = &l
	})
	return log
}

// Handler executes one command. The payload is the decoded opaque value
// from the invocation; handlers typically view it through their own
// argument struct with protocol.RedecodePayload. Caller-supplied options
// are available through InvocationFrom on the handler context.
type Handler interface {
	Handle(ctx context.Context, payload any) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload any) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, payload any) (any, error) {
	return f(ctx, payload)
}

// Responder receives the terminal result of one invocation. It must be
// safe to call from any goroutine; the transport layer provides one per
// session.
type Responder func(protocol.InvokeResult)

// Dispatcher maps command names to handlers. Resolution is by exact
// string match against the registry populated at startup.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	wg       sync.WaitGroup
}

// New creates an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register binds a command name to a handler. Names must be unambiguous:
// registering the same name twice is an error, not a silent override.
func (d *Dispatcher) Register(name string, h Handler) error {
	if name == "" {
		return fmt.Errorf("command name must not be empty")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[name]; exists {
		return fmt.Errorf("command %q already registered", name)
	}
	d.handlers[name] = h
	return nil
}

// RegisterFunc is Register for plain functions.
func (d *Dispatcher) RegisterFunc(name string, fn func(ctx context.Context, payload any) (any, error)) error {
	return d.Register(name, HandlerFunc(fn))
}

// Commands returns the registered command names in stable order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	d.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Dispatch resolves and executes one invocation. It never blocks the
// caller: handler execution runs on its own goroutine and completion is
// delivered through respond. Exactly one of the invocation's handles is
// resolved — the error handle for unknown commands, handler failures and
// panics; the success handle otherwise. Execution order across distinct
// invocations is not guaranteed.
func (d *Dispatcher) Dispatch(ctx context.Context, req *protocol.InvokeRequest, respond Responder) {
	d.mu.RLock()
	handler, ok := d.handlers[req.Cmd]
	d.mu.RUnlock()

	if !ok {
		getLog().Warn().Str("cmd", req.Cmd).Msg("Unknown command")
		respond(protocol.InvokeResult{
			Callback: req.Error,
			Tag:      protocol.TagErr,
			Payload:  protocol.ToPayload(protocol.NewCommandNotFoundError(req.Cmd)),
		})
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx, handler, req, respond)
	}()
}

func (d *Dispatcher) run(ctx context.Context, handler Handler, req *protocol.InvokeRequest, respond Responder) {
	ctx = withInvocation(ctx, req)

	tracer := otel.Tracer("bridge/dispatch")
	ctx, span := tracer.Start(ctx, "bridge.dispatch")
	span.SetAttributes(attribute.String("bridge.command", req.Cmd))
	defer span.End()

	var (
		value any
		err   error
	)
	func() {
		// A panicking handler must never cross the bridge as a crash.
		defer func() {
			if r := recover(); r != nil {
				getLog().Error().
					Str("cmd", req.Cmd).
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Msg("Command handler panicked")
				err = protocol.NewHandlerError(req.Cmd, fmt.Errorf("handler panicked: %v", r))
			}
		}()
		value, err = handler.Handle(ctx, req.Payload)
	}()

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		getLog().Debug().Str("cmd", req.Cmd).Err(err).Msg("Command failed")
		respond(protocol.InvokeResult{
			Callback: req.Error,
			Tag:      protocol.TagErr,
			Payload:  errPayload(req.Cmd, err),
		})
		return
	}

	span.SetStatus(codes.Ok, "")
	getLog().Debug().Str("cmd", req.Cmd).Msg("Command succeeded")
	respond(protocol.InvokeResult{
		Callback: req.Callback,
		Tag:      protocol.TagOk,
		Payload:  value,
	})
}

// errPayload normalizes any handler failure into the structured wire form.
func errPayload(cmd string, err error) protocol.ErrorPayload {
	p := protocol.ToPayload(err)
	if p.Command == "" {
		p.Command = cmd
	}
	return p
}

// Wait blocks until all in-flight handlers have completed. Called during
// host shutdown so results are not dropped mid-write.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
