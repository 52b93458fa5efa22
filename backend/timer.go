// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/timer.go
// -*- mode: go; coding: utf-8; -*-
// Created on 18. 02. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-05 19:02:37 krylon>

package backend

import (
	"sync"
	"time"
)

// TimerPort is the Manager's access to one-shot timers. Timer IDs are
// never zero, so zero can serve as the "not running" marker.
// Stop is idempotent, stopping a timer that already fired (or was
// stopped before) is not an error.
type TimerPort interface {
	Start(delay time.Duration, fire func()) int64
	Stop(id int64)
}

// stdTimer is the production TimerPort, a thin wrapper around
// time.AfterFunc with the bookkeeping needed for idempotent Stop.
type stdTimer struct {
	lock    sync.Mutex
	cnt     int64
	pending map[int64]*time.Timer
}

func newStdTimer() *stdTimer {
	return &stdTimer{
		pending: make(map[int64]*time.Timer),
	}
} // func newStdTimer() *stdTimer

func (t *stdTimer) Start(delay time.Duration, fire func()) int64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.cnt++
	var id = t.cnt

	t.pending[id] = time.AfterFunc(delay, func() {
		t.lock.Lock()
		delete(t.pending, id)
		t.lock.Unlock()
		fire()
	})

	return id
} // func (t *stdTimer) Start(delay time.Duration, fire func()) int64

func (t *stdTimer) Stop(id int64) {
	if id == 0 {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if tm, ok := t.pending[id]; ok {
		tm.Stop()
		delete(t.pending, id)
	}
} // func (t *stdTimer) Stop(id int64)
