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
	"encoding/json"
	"log"
	"time"

	"github.com/godbus/dbus"
	"github.com/juju/ratelimit"
)

const (
	failureEventInterval = 10 * time.Minute
	failureEventType     = "edgeViewerFrameFailure"
)

type eventQueuer func(details map[string]interface{}, ts time.Time) error

// failureEvents records frame failures with the event service. Failures
// tend to repeat every frame, so at most one event is queued per
// failureEventInterval.
type failureEvents struct {
	bucket *ratelimit.Bucket
	clock  ratelimit.Clock
	queue  eventQueuer
}

func newFailureEvents(clock ratelimit.Clock, queue eventQueuer) *failureEvents {
	if clock == nil {
		clock = new(realClock)
	}
	return &failureEvents{
		bucket: ratelimit.NewBucketWithQuantumAndClock(failureEventInterval, 1, 1, clock),
		clock:  clock,
		queue:  queue,
	}
}

// FrameFailed implements handoff.Listener. It never blocks the frame loop.
func (e *failureEvents) FrameFailed(err error) {
	if e.bucket.TakeAvailable(1) == 0 {
		return
	}
	ts := e.clock.Now()
	details := map[string]interface{}{
		"description": map[string]interface{}{
			"type": failureEventType,
			"details": map[string]interface{}{
				"error": err.Error(),
			},
		},
	}
	go func() {
		if err := e.queue(details, ts); err != nil {
			log.Printf("could not record failure event: %v", err)
		}
	}()
}

// queueDbusEvent uses the event api to record an event.
func queueDbusEvent(details map[string]interface{}, ts time.Time) error {
	detailsJSON, err := json.Marshal(&details)
	if err != nil {
		return err
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}

	obj := conn.Object("org.cacophony.Events", "/org/cacophony/Events")
	call := obj.Call("org.cacophony.Events.Queue", 0, detailsJSON, ts.UnixNano())
	return call.Err
}

// realClock implements ratelimit.Clock in terms of standard time functions.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
