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

// Package ratecounter measures the frame rate over fixed one second windows.
package ratecounter

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// WindowMillis is the length of a measurement window.
const WindowMillis = 1000

// RateCounter counts frames within a window. It is not safe for
// concurrent use.
type RateCounter struct {
	frames      int64
	windowStart int64
}

// New starts a counter whose first window opens at startMillis.
func New(startMillis int64) *RateCounter {
	return &RateCounter{windowStart: startMillis}
}

// Tick counts a frame seen at nowMillis. Once a window has lasted at
// least WindowMillis the rate in frames per second is returned with ok
// set, and a new window starts at nowMillis.
func (c *RateCounter) Tick(nowMillis int64) (rate float64, ok bool) {
	c.frames++
	elapsed := nowMillis - c.windowStart
	if elapsed < WindowMillis {
		return 0, false
	}
	rate = float64(c.frames) * 1000 / float64(elapsed)
	c.frames = 0
	c.windowStart = nowMillis
	return rate, true
}

// Frames returns the frames counted in the current window.
func (c *RateCounter) Frames() int64 {
	return c.frames
}

// Meter ticks a RateCounter against a clock and remembers the last rate
// so it can be read from other goroutines.
type Meter struct {
	clock   clock.Clock
	counter *RateCounter

	mu   sync.Mutex
	last float64
}

func NewMeter(clk clock.Clock) *Meter {
	if clk == nil {
		clk = clock.New()
	}
	return &Meter{
		clock:   clk,
		counter: New(millis(clk.Now())),
	}
}

// Tick counts a frame now. See RateCounter.Tick.
func (m *Meter) Tick() (float64, bool) {
	rate, ok := m.counter.Tick(millis(m.clock.Now()))
	if ok {
		m.mu.Lock()
		m.last = rate
		m.mu.Unlock()
	}
	return rate, ok
}

// Rate returns the most recently completed measurement.
func (m *Meter) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Label formats a rate for display.
func Label(rate float64) string {
	return fmt.Sprintf("FPS: %.1f", rate)
}

func millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
