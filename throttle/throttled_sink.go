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
	"time"

	"github.com/juju/ratelimit"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/output"
)

func NewThrottledSink(sink output.Sink, maxFPS float64, listener ThrottledEventListener) *ThrottledSink {
	return NewThrottledSinkWithClock(sink, maxFPS, listener, new(realClock))
}

func NewThrottledSinkWithClock(
	sink output.Sink,
	maxFPS float64,
	listener ThrottledEventListener,
	clock ratelimit.Clock,
) *ThrottledSink {
	if listener == nil {
		listener = new(nullListener)
	}
	t := &ThrottledSink{
		sink:     sink,
		listener: listener,
	}
	if maxFPS > 0 {
		// One frame of burst: frames are spread out rather than bunched.
		t.bucket = ratelimit.NewBucketWithRateAndClock(maxFPS, 1, clock)
	}
	return t
}

// ThrottledSink wraps a sink so that it is handed at most maxFPS frames a
// second. Frames arriving faster are dropped. Expensive sinks (JPEG
// encoding, network output) use this to keep up with the camera without
// slowing the frame loop down.
type ThrottledSink struct {
	sink      output.Sink
	listener  ThrottledEventListener
	bucket    *ratelimit.Bucket
	throttled bool
	dropped   uint64
}

type ThrottledEventListener interface {
	WhenThrottled()
}

type nullListener struct{}

func (lis *nullListener) WhenThrottled() {}

// Present passes f on if the rate allows. The listener hears about the
// first dropped frame of each throttled run.
func (throttler *ThrottledSink) Present(f *frame.Frame) error {
	if throttler.bucket == nil || throttler.bucket.TakeAvailable(1) > 0 {
		throttler.throttled = false
		return throttler.sink.Present(f)
	}
	throttler.dropped++
	if !throttler.throttled {
		throttler.throttled = true
		throttler.listener.WhenThrottled()
	}
	return nil
}

// Dropped returns the number of frames not passed on.
func (throttler *ThrottledSink) Dropped() uint64 {
	return throttler.dropped
}

// realClock implements ratelimit.Clock in terms of standard time functions.
type realClock struct{}

// Now implements Clock.Now by calling time.Now.
func (realClock) Now() time.Time {
	return time.Now()
}

// Sleep implements Clock.Sleep by calling time.Sleep.
func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
