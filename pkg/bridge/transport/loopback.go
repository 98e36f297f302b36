// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package transport

import (
	"sync"

	"github.com/CodeEditorLand/tauri/internal/protocol"
)

// Loopback is one end of an in-process transport pair. Messages still
// round-trip through the codec, so a loopback host sees exactly the same
// decoded shapes a networked one would.
type Loopback struct {
	peerRaw   chan []byte
	ownRaw    chan []byte
	recv      chan protocol.Message
	done      chan struct{}
	closeOnce *sync.Once
}

// NewLoopbackPair creates two connected ends. Everything sent on one end
// arrives on the other's Receive channel.
func NewLoopbackPair(buffer int) (*Loopback, *Loopback) {
	if buffer <= 0 {
		buffer = 16
	}
	aToB := make(chan []byte, buffer)
	bToA := make(chan []byte, buffer)
	done := make(chan struct{})
	once := &sync.Once{}

	a := &Loopback{peerRaw: aToB, ownRaw: bToA, recv: make(chan protocol.Message, buffer), done: done, closeOnce: once}
	b := &Loopback{peerRaw: bToA, ownRaw: aToB, recv: make(chan protocol.Message, buffer), done: done, closeOnce: once}
	go a.pump()
	go b.pump()
	return a, b
}

func (l *Loopback) pump() {
	defer close(l.recv)
	for {
		select {
		case data, ok := <-l.ownRaw:
			if !ok {
				return
			}
			msg, err := protocol.Decode(data)
			if err != nil {
				// Both ends share one codec, so this is unreachable
				// outside of codec bugs; drop rather than wedge the
				// pump, but never drop without a trace.
				getLog().Error().Err(err).Msg("Dropping undecodable loopback frame")
				continue
			}
			select {
			case l.recv <- msg:
			case <-l.done:
				return
			}
		case <-l.done:
			return
		}
	}
}

// Send encodes and delivers the message to the peer.
func (l *Loopback) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	select {
	case l.peerRaw <- data:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Receive returns the incoming message channel. Closed when either end
// closes.
func (l *Loopback) Receive() <-chan protocol.Message {
	return l.recv
}

// Close shuts down both ends of the pair.
func (l *Loopback) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return nil
}
