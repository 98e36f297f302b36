// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

// Package transport carries wire messages between the embedded runtime
// and the native host. Both sides speak protocol.Message; the transport
// owns framing and the codec, nothing else.
package transport

import (
	"errors"
	"sync"

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
		l := logger.GetTransportLogger()
		log = &l
	})
	return log
}

// ErrClosed is returned by Send after the transport has shut down.
var ErrClosed = errors.New("transport closed")

// ErrSlowConsumer is returned by Send when the outbound buffer is full.
// The frame is dropped instead of stalling the caller behind a peer that
// has stopped draining its connection.
var ErrSlowConsumer = errors.New("transport send buffer full")

// Transport is a bidirectional message channel. Receive's channel is
// closed when the peer goes away or Close is called; Send is safe from
// any goroutine.
type Transport interface {
	Send(protocol.Message) error
	Receive() <-chan protocol.Message
	Close() error
}
