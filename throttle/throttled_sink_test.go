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

package throttle

import (
	"errors"
	"testing"
	"time"

	"github.com/juju/ratelimit"
	"github.com/stretchr/testify/assert"

	"github.com/TheCacophonyProject/edge-viewer/frame"
)

const maxFPS = 10

func newTestThrottledSink() (*countingSink, *throttleListener, *ThrottledSink, *testClock) {
	clock := new(testClock)
	sink := new(countingSink)
	listener := new(throttleListener)
	return sink, listener, NewThrottledSinkWithClock(sink, maxFPS, listener, clock), clock
}

type countingSink struct {
	presents int
	err      error
}

func (s *countingSink) Present(f *frame.Frame) error {
	s.presents++
	return s.err
}

type throttleListener struct {
	events int
}

func (tc *throttleListener) WhenThrottled() {
	tc.events++
}

func presentFrames(sink *ThrottledSink, frames int) {
	f := frame.NewRGBA(2, 2)
	for i := 0; i < frames; i++ {
		sink.Present(f)
	}
}

func TestFirstFramePassesThenThrottles(t *testing.T) {
	sink, listener, throttled, _ := newTestThrottledSink()

	presentFrames(throttled, 5)
	assert.Equal(t, 1, sink.presents)
	assert.Equal(t, uint64(4), throttled.Dropped())
	assert.Equal(t, 1, listener.events)
}

func TestFramesAtMaxRateAllPass(t *testing.T) {
	sink, listener, throttled, clock := newTestThrottledSink()

	for i := 0; i < 50; i++ {
		presentFrames(throttled, 1)
		clock.Sleep(time.Second / maxFPS)
	}
	assert.Equal(t, 50, sink.presents)
	assert.Equal(t, 0, listener.events)
}

func TestFastCameraIsCappedToMaxRate(t *testing.T) {
	sink, listener, throttled, clock := newTestThrottledSink()

	// 30 fps camera for 3 seconds.
	for i := 0; i < 90; i++ {
		presentFrames(throttled, 1)
		clock.Sleep(time.Second / 30)
	}
	assert.InDelta(t, 3*maxFPS, sink.presents, 1)
	assert.Equal(t, uint64(90-sink.presents), throttled.Dropped())
	// Each dropped run after a passed frame is reported once.
	assert.Equal(t, sink.presents, listener.events)
}

func TestZeroRateDisablesThrottling(t *testing.T) {
	sink := new(countingSink)
	throttled := NewThrottledSinkWithClock(sink, 0, nil, new(testClock))

	presentFrames(throttled, 20)
	assert.Equal(t, 20, sink.presents)
	assert.Equal(t, uint64(0), throttled.Dropped())
}

func TestSinkErrorsArePassedBack(t *testing.T) {
	sink, _, throttled, _ := newTestThrottledSink()
	sink.err = errors.New("broken pipe")

	assert.Equal(t, sink.err, throttled.Present(frame.NewRGBA(1, 1)))
	// Dropped frames never reach the sink.
	assert.NoError(t, throttled.Present(frame.NewRGBA(1, 1)))
}

var _ ratelimit.Clock = new(testClock)

// testClock implements a fake ratelimit.Clock for testing.
type testClock struct {
	now time.Time
}

// Now implements Clock.Now by returning the current fake time.
func (c *testClock) Now() time.Time {
	return c.now
}

// Sleep implements Clock.Sleep by advancing the fake time.
func (c *testClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}
