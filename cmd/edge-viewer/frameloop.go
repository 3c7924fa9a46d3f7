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
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/daemon"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/handoff"
	"github.com/TheCacophonyProject/edge-viewer/loglimiter"
	"github.com/TheCacophonyProject/edge-viewer/native"
	"github.com/TheCacophonyProject/edge-viewer/output"
	"github.com/TheCacophonyProject/edge-viewer/ratecounter"
	"github.com/TheCacophonyProject/edge-viewer/source"
)

const (
	defaultFPS     = 30
	minLogInterval = time.Minute
	sdNotifySecs   = 5
)

// FrameLoop pulls frames from a source, runs them through a hand-off
// session and shows the result. The filter mode is kept here so that it
// survives camera reconnects.
type FrameLoop struct {
	filter   native.Filter
	listener handoff.Listener
	display  *output.Display
	meter    *ratecounter.Meter
	log      *loglimiter.LogLimiter
	device   string
	verbose  bool
	sdNotify func(state string)

	enabled atomic.Bool

	mu      sync.Mutex
	session *handoff.Session
}

func NewFrameLoop(filter native.Filter, display *output.Display, filterEnabled bool, listener handoff.Listener) *FrameLoop {
	fl := &FrameLoop{
		filter:   filter,
		listener: listener,
		display:  display,
		meter:    ratecounter.NewMeter(nil),
		log:      loglimiter.New(minLogInterval),
		sdNotify: func(state string) { daemon.SdNotify(false, state) },
	}
	fl.enabled.Store(filterEnabled)
	return fl
}

// Status is reported by the preview server.
type Status struct {
	Device        string        `json:"device,omitempty"`
	FPS           float64       `json:"fps"`
	EdgeDetection bool          `json:"edgeDetection"`
	Streaming     bool          `json:"streaming"`
	Stats         handoff.Stats `json:"stats"`
}

// Run processes frames from src until it fails or ctx is done.
func (fl *FrameLoop) Run(ctx context.Context, src source.Source) error {
	session, err := fl.startSession(src.Width(), src.Height())
	if err != nil {
		return err
	}
	defer fl.endSession()

	fps := src.FPS()
	if fps <= 0 {
		fps = defaultFPS
	}
	frameLogIntervalFirstMin := 15 * fps
	frameLogInterval := 60 * 5 * fps
	framesPerSdNotify := sdNotifySecs * fps

	totalFrames := 0
	notifyCount := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		in, err := src.Next()
		if err != nil {
			return err
		}
		totalFrames++

		if totalFrames%frameLogIntervalFirstMin == 0 &&
			totalFrames <= 60*fps || totalFrames%frameLogInterval == 0 {
			log.Printf("%d frames for this source, %s", totalFrames, fl.display.Label())
			if fl.verbose {
				log.Printf("frame stats: %+v", session.Stats())
			}
		}

		if notifyCount++; notifyCount >= framesPerSdNotify {
			fl.sdNotify(daemon.SdNotifyWatchdog)
			notifyCount = 0
		}

		if !in.Empty() {
			if rate, ok := fl.meter.Tick(); ok {
				fl.display.PostRate(rate)
			}
			if in.Width != session.Width() || in.Height != session.Height() {
				log.Printf("camera size changed to %dx%d", in.Width, in.Height)
				fl.endSession()
				if session, err = fl.startSession(in.Width, in.Height); err != nil {
					return err
				}
			}
		}

		fl.present(session.Process(in))
	}
}

func (fl *FrameLoop) present(out *frame.Frame) {
	if err := fl.display.Present(out); err != nil {
		fl.log.Printf("error presenting frame: %v", err)
	}
}

func (fl *FrameLoop) startSession(width, height int) (*handoff.Session, error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	session, err := handoff.NewSession(fl.filter, width, height, fl.enabled.Load(), fl.listener)
	if err != nil {
		return nil, err
	}
	fl.session = session
	return session, nil
}

func (fl *FrameLoop) endSession() {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.session != nil {
		fl.session.Close()
		fl.session = nil
	}
}

func (fl *FrameLoop) FilterEnabled() bool {
	return fl.enabled.Load()
}

// SetFilterEnabled changes the mode from the next frame on.
func (fl *FrameLoop) SetFilterEnabled(enabled bool) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.enabled.Store(enabled)
	if fl.session != nil {
		fl.session.SetFilterEnabled(enabled)
	}
}

// ToggleFilter flips the mode and returns the new one.
func (fl *FrameLoop) ToggleFilter() bool {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	enabled := !fl.enabled.Load()
	fl.enabled.Store(enabled)
	if fl.session != nil {
		fl.session.SetFilterEnabled(enabled)
	}
	return enabled
}

func (fl *FrameLoop) FPS() float64 {
	return fl.display.FPS()
}

func (fl *FrameLoop) Status() interface{} {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	status := Status{
		Device:        fl.device,
		FPS:           fl.display.FPS(),
		EdgeDetection: fl.enabled.Load(),
		Streaming:     fl.session != nil,
	}
	if fl.session != nil {
		status.Stats = fl.session.Stats()
	}
	return status
}
