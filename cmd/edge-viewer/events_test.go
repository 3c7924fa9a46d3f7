// edge-viewer - live edge detection for camera feeds
//  Copyright (C) 2026, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"io/ioutil"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}

type queuedEvent struct {
	details map[string]interface{}
	ts      time.Time
}

func newTestEvents() (*failureEvents, *testClock, chan queuedEvent) {
	clock := &testClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	queued := make(chan queuedEvent, 10)
	events := newFailureEvents(clock, func(details map[string]interface{}, ts time.Time) error {
		queued <- queuedEvent{details, ts}
		return nil
	})
	return events, clock, queued
}

func quietLogs(t *testing.T) {
	log.SetOutput(ioutil.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
}

func nextEvent(t *testing.T, queued chan queuedEvent) queuedEvent {
	select {
	case ev := <-queued:
		return ev
	case <-time.After(time.Second):
		require.FailNow(t, "no event queued")
	}
	return queuedEvent{}
}

func TestFailureEventDetails(t *testing.T) {
	events, clock, queued := newTestEvents()

	events.FrameFailed(errors.New("filter failed"))

	ev := nextEvent(t, queued)
	assert.Equal(t, clock.now, ev.ts)
	assert.Equal(t, map[string]interface{}{
		"description": map[string]interface{}{
			"type": "edgeViewerFrameFailure",
			"details": map[string]interface{}{
				"error": "filter failed",
			},
		},
	}, ev.details)
}

func TestFailureEventsAreRateLimited(t *testing.T) {
	events, clock, queued := newTestEvents()

	for i := 0; i < 100; i++ {
		events.FrameFailed(errors.New("boom"))
	}
	nextEvent(t, queued)

	clock.Sleep(failureEventInterval / 2)
	events.FrameFailed(errors.New("boom"))

	clock.Sleep(failureEventInterval / 2)
	events.FrameFailed(errors.New("boom"))
	nextEvent(t, queued)

	time.Sleep(10 * time.Millisecond)
	assert.Len(t, queued, 0)
}

func TestFailureEventQueueErrorIsLogged(t *testing.T) {
	quietLogs(t)
	done := make(chan struct{})
	events := newFailureEvents(new(testClock), func(map[string]interface{}, time.Time) error {
		defer close(done)
		return errors.New("no dbus")
	})

	events.FrameFailed(errors.New("boom"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queue was not called")
	}
}
