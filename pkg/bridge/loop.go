// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package bridge

import "sync"

// loop is the single goroutine all registry continuations and event
// listener callbacks run on. Submission never blocks: tasks land in an
// unbounded queue drained in order, so a resolution arriving from the
// transport goroutine is handed off even while a callback is mid-flight.
type loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func newLoop() *loop {
	l := &loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

func (l *loop) submit(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		// The queue is already drained; run inline so a late resolution
		// is never silently lost.
		fn()
		return
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	l.mu.Unlock()
}

func (l *loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 && l.closed {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()
		fn()
	}
}

// stop drains the remaining queue, then parks the loop goroutine.
func (l *loop) stop() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()
	<-l.done
}
