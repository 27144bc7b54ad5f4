package main

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

// TestPollEvents_StopsWhenDone tests that the poller exits once done closes
// even though nobody reads its events any more
func TestPollEvents_StopsWhenDone(t *testing.T) {
	poll := func() tcell.Event { return tcell.NewEventResize(80, 24) }
	events := make(chan tcell.Event)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		pollEvents(poll, events, done)
		close(finished)
	}()

	<-events
	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("poller still blocked after done closed")
	}
}

// TestPollEvents_StopsOnNil tests that a finalized screen ends the poller
func TestPollEvents_StopsOnNil(t *testing.T) {
	finished := make(chan struct{})
	go func() {
		pollEvents(func() tcell.Event { return nil }, make(chan tcell.Event), make(chan struct{}))
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on a nil event")
	}
}
