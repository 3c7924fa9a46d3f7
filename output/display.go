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

// Package output presents processed frames to viewers.
package output

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/ratecounter"
)

// Sink receives the frame to show for each frame cycle. The frame is only
// valid for the duration of the call; a sink that keeps pixels must copy
// them.
type Sink interface {
	Present(f *frame.Frame) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(f *frame.Frame) error

func (fn SinkFunc) Present(f *frame.Frame) error {
	return fn(f)
}

// Display fans frames out to its sinks and tracks the rate shown
// alongside them. Present is called from the frame loop. PostRate may be
// called from anywhere and never blocks.
type Display struct {
	sinks []Sink
	rates chan float64

	mu  sync.Mutex
	fps float64
}

func NewDisplay(sinks ...Sink) *Display {
	return &Display{
		sinks: sinks,
		rates: make(chan float64, 1),
	}
}

// Add registers another sink. It must not be called once frames are
// being presented.
func (d *Display) Add(s Sink) {
	d.sinks = append(d.sinks, s)
}

// Present hands f to every sink. A failing sink does not stop the others.
func (d *Display) Present(f *frame.Frame) error {
	var err error
	for _, s := range d.sinks {
		err = multierr.Append(err, s.Present(f))
	}
	return err
}

// PostRate queues a new rate for display. If a previous rate has not
// been picked up yet it is replaced.
func (d *Display) PostRate(rate float64) {
	for {
		select {
		case d.rates <- rate:
			return
		default:
		}
		select {
		case <-d.rates:
		default:
		}
	}
}

// Run applies posted rates until ctx is done.
func (d *Display) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rate := <-d.rates:
			d.mu.Lock()
			d.fps = rate
			d.mu.Unlock()
		}
	}
}

// FPS returns the last rate applied by Run.
func (d *Display) FPS() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fps
}

// Label returns the rate text drawn over the stream.
func (d *Display) Label() string {
	return ratecounter.Label(d.FPS())
}
