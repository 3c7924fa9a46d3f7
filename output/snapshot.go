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

package output

import (
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TheCacophonyProject/edge-viewer/frame"
)

const (
	SnapshotName          = "still.png"
	allowedSnapshotPeriod = 500 * time.Millisecond
)

// Snapshotter saves the next presented frame as a PNG when asked to.
// Requests arrive from any goroutine; the file is written by Present on
// the frame loop.
type Snapshotter struct {
	dir     string
	nowFunc func() time.Time

	mu       sync.Mutex
	pending  bool
	previous time.Time
	done     []chan error
}

func NewSnapshotter(dir string) *Snapshotter {
	return &Snapshotter{
		dir:     dir,
		nowFunc: time.Now,
	}
}

// Path returns where snapshots are written.
func (s *Snapshotter) Path() string {
	return filepath.Join(s.dir, SnapshotName)
}

// Request asks for the next frame to be saved. The returned channel
// receives the result once the frame has been written. Requests made
// within a short period of the last snapshot are ignored and receive nil
// straight away.
func (s *Snapshotter) Request() <-chan error {
	done := make(chan error, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nowFunc().Sub(s.previous) < allowedSnapshotPeriod {
		done <- nil
		return done
	}
	s.pending = true
	s.done = append(s.done, done)
	return done
}

func (s *Snapshotter) Present(f *frame.Frame) error {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return nil
	}
	s.pending = false
	waiting := s.done
	s.done = nil
	s.mu.Unlock()

	err := s.write(f)
	if err == nil {
		// the time will be changed only if the attempt is successful
		s.mu.Lock()
		s.previous = s.nowFunc()
		s.mu.Unlock()
	}
	for _, done := range waiting {
		done <- err
	}
	return err
}

func (s *Snapshotter) write(f *frame.Frame) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	out, err := os.Create(s.Path())
	if err != nil {
		return err
	}
	if err := png.Encode(out, f.Image()); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Delete removes any previous snapshot.
func (s *Snapshotter) Delete() {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		log.Printf("error deleting snapshot image: %v", err)
	}
}
