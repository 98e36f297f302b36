// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CodeEditorLand/tauri/internal/protocol"
)

const (
	maxMessageSize = 1 << 20
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	writeWait      = 10 * time.Second
)

// WS frames protocol messages over a WebSocket connection. The same type
// serves both ends: the host wraps upgraded connections, the embedded
// runtime wraps dialed ones.
type WS struct {
	conn      *websocket.Conn
	send      chan []byte
	recv      chan protocol.Message
	done      chan struct{}
	closeOnce sync.Once
}

// NewWebSocket wraps an established connection and starts its pumps.
func NewWebSocket(conn *websocket.Conn, sendBuffer int) *WS {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	w := &WS{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		recv: make(chan protocol.Message, sendBuffer),
		done: make(chan struct{}),
	}
	go w.readPump()
	go w.writePump()
	return w
}

// Dial connects to a bridge host's IPC endpoint.
func Dial(ctx context.Context, url string) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewWebSocket(conn, 64), nil
}

func (w *WS) readPump() {
	defer func() {
		w.shutdown()
		close(w.recv)
	}()

	w.conn.SetReadLimit(maxMessageSize)
	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			// Malformed frame from the peer: a protocol error, not a
			// reason to kill the connection.
			getLog().Error().Err(err).Msg("Dropping undecodable WebSocket frame")
			continue
		}
		select {
		case w.recv <- msg:
		case <-w.done:
			return
		}
	}
}

func (w *WS) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		w.conn.Close()
	}()

	for {
		select {
		case data := <-w.send:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				w.shutdown()
				return
			}
		case <-ticker.C:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				w.shutdown()
				return
			}
		case <-w.done:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send encodes and queues the message for the write pump. A peer that
// has stopped draining its connection must not stall the sender: when
// the buffer is full the frame is dropped and ErrSlowConsumer returned,
// and the caller decides whether that invalidates the session.
func (w *WS) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	select {
	case <-w.done:
		return ErrClosed
	default:
	}
	select {
	case w.send <- data:
		return nil
	case <-w.done:
		return ErrClosed
	default:
		getLog().Warn().Str("kind", string(msg.Kind)).Msg("Dropping frame for slow WebSocket peer")
		return ErrSlowConsumer
	}
}

// Receive returns the incoming message channel, closed when the
// connection dies.
func (w *WS) Receive() <-chan protocol.Message {
	return w.recv
}

// Close tears the connection down. Safe to call more than once.
func (w *WS) Close() error {
	w.shutdown()
	return nil
}

func (w *WS) shutdown() {
	w.closeOnce.Do(func() { close(w.done) })
}
