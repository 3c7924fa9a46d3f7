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

// Package native defines the boundary to image filters that keep their
// results in memory the caller does not own.
package native

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/TheCacophonyProject/edge-viewer/frame"
)

// Handle is an opaque reference to a result buffer owned by a Filter.
// It must never be interpreted by callers.
type Handle uintptr

// NoHandle is never returned by a successful Filter call.
const NoHandle Handle = 0

var (
	ErrUnknownHandle = errors.New("unknown buffer handle")
	ErrReleased      = errors.New("allocation already released")
)

// Filter produces a filtered copy of a frame in filter owned memory.
// Every handle returned by Filter must be passed to Release exactly once,
// including a handle returned alongside an error.
type Filter interface {
	Filter(in *frame.Frame) (Handle, error)
	CopyTo(h Handle, dst *frame.Frame) error
	Release(h Handle) error
}

// Allocation is a filter result that releases itself at most once.
type Allocation struct {
	filter Filter
	handle Handle

	once       sync.Once
	released   bool
	releaseErr error
}

// Acquire runs the filter over in. On success the caller owns the returned
// allocation and must Release it, typically with defer.
func Acquire(f Filter, in *frame.Frame) (*Allocation, error) {
	h, err := f.Filter(in)
	if err != nil {
		err = fmt.Errorf("filter failed: %w", err)
		if h != NoHandle {
			if releaseErr := f.Release(h); releaseErr != nil {
				err = multierr.Append(err, fmt.Errorf("releasing filter result: %w", releaseErr))
			}
		}
		return nil, err
	}
	return &Allocation{filter: f, handle: h}, nil
}

// CopyTo copies the filtered pixels into dst.
func (a *Allocation) CopyTo(dst *frame.Frame) error {
	if a.released {
		return ErrReleased
	}
	if err := a.filter.CopyTo(a.handle, dst); err != nil {
		return fmt.Errorf("copying filter result: %w", err)
	}
	return nil
}

// Release frees the filter's buffer. Only the first call reaches the
// filter; later calls return the same result.
func (a *Allocation) Release() error {
	a.once.Do(func() {
		a.released = true
		if err := a.filter.Release(a.handle); err != nil {
			a.releaseErr = fmt.Errorf("releasing filter result: %w", err)
		}
	})
	return a.releaseErr
}
