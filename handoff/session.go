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

package handoff

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/loglimiter"
	"github.com/TheCacophonyProject/edge-viewer/native"
)

const minLogInterval = time.Minute

var (
	ErrInvalidDimensions = errors.New("invalid camera dimensions")
	ErrFramePanic        = errors.New("frame processing panicked")
)

// Listener is told about frames that could not be filtered. It is called
// from the frame loop and must not block.
type Listener interface {
	FrameFailed(err error)
}

// Stats counts what happened to the frames of a session.
type Stats struct {
	Frames      uint64
	Filtered    uint64
	Passthrough uint64
	Empty       uint64
	Failed      uint64
	Recovered   uint64
}

// Session holds the per-capture state of the hand-off: the filter, the
// output buffer reused by every frame and the filter mode. A session
// lives from the start of capture until Close at the end of capture.
// Process must only be called from one goroutine; the mode and stats
// accessors are safe from any goroutine.
type Session struct {
	filter   native.Filter
	listener Listener
	log      *loglimiter.LogLimiter

	output *frame.Frame
	blank  *frame.Frame
	closed bool

	enabled atomic.Bool

	frames      atomic.Uint64
	filtered    atomic.Uint64
	passthrough atomic.Uint64
	empty       atomic.Uint64
	failed      atomic.Uint64
	recovered   atomic.Uint64
}

// NewSession starts a session for a camera producing width x height RGBA
// frames. listener may be nil.
func NewSession(filter native.Filter, width, height int, filterEnabled bool, listener Listener) (*Session, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	s := &Session{
		filter:   filter,
		listener: listener,
		log:      loglimiter.New(minLogInterval),
		output:   frame.NewRGBA(width, height),
		blank:    frame.NewRGBA(width, height),
	}
	s.enabled.Store(filterEnabled)
	return s, nil
}

// Process runs one frame through the hand-off and returns the frame to
// present. It never panics and never returns nil: a frame that blows up
// is replaced by a blank frame so the next frame gets a fresh attempt.
func (s *Session) Process(input *frame.Frame) (out *frame.Frame) {
	defer func() {
		if r := recover(); r != nil {
			s.recovered.Add(1)
			err := fmt.Errorf("%w: %v", ErrFramePanic, r)
			s.log.Printf("critical error processing frame: %v", err)
			s.notify(err)
			out = s.blank
		}
	}()

	s.frames.Add(1)
	if input == nil {
		s.empty.Add(1)
		s.log.Print("received nil frame")
		return s.blank
	}

	output := s.output
	if s.closed {
		output = nil
	}

	out, err := HandleFrame(s.filter, input, s.enabled.Load(), output)
	switch {
	case err == nil && out == output:
		s.filtered.Add(1)
	case err == nil:
		s.passthrough.Add(1)
	case out == output:
		// Copied fine but the filter could not free its result.
		s.filtered.Add(1)
		s.log.Printf("error releasing filter result: %v", err)
		s.notify(err)
	case errors.Is(err, ErrEmptyFrame):
		s.empty.Add(1)
		s.log.Printf("received empty frame (%s)", input)
	case errors.Is(err, ErrNoOutput):
		s.passthrough.Add(1)
		s.log.Print("session closed, passing frames through")
	default:
		s.failed.Add(1)
		s.log.Printf("error processing frame: %v", err)
		s.notify(err)
	}
	return out
}

func (s *Session) notify(err error) {
	if s.listener != nil {
		s.listener.FrameFailed(err)
	}
}

func (s *Session) FilterEnabled() bool {
	return s.enabled.Load()
}

func (s *Session) SetFilterEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

// ToggleFilter flips the filter mode and returns the new mode.
func (s *Session) ToggleFilter() bool {
	for {
		old := s.enabled.Load()
		if s.enabled.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (s *Session) Width() int {
	return s.blank.Width
}

func (s *Session) Height() int {
	return s.blank.Height
}

func (s *Session) Stats() Stats {
	return Stats{
		Frames:      s.frames.Load(),
		Filtered:    s.filtered.Load(),
		Passthrough: s.passthrough.Load(),
		Empty:       s.empty.Load(),
		Failed:      s.failed.Load(),
		Recovered:   s.recovered.Load(),
	}
}

// Close ends the session and drops its output buffer. Frames processed
// after Close are passed through. Close must be called from the goroutine
// that calls Process.
func (s *Session) Close() {
	s.closed = true
	s.output = nil
}
