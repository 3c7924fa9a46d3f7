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

// Package nativetest provides a native.Filter that counts what it is
// asked to do, for checking buffer ownership in tests.
package nativetest

import (
	"sync"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/native"
)

// CountingFilter inverts every byte of the input. Set the Fail* fields to
// make the matching call fail, or PanicOn* to make the call panic. With
// AllocateOnFail a failing Filter still allocates and returns its handle.
type CountingFilter struct {
	FailFilter     error
	FailCopy       error
	FailRelease    error
	AllocateOnFail bool
	PanicOnFilter  bool
	PanicOnCopy    bool

	mu       sync.Mutex
	Filters  int
	Allocs   int
	Copies   int
	Releases int
	live     map[native.Handle]*frame.Frame
	next     native.Handle
}

func New() *CountingFilter {
	return &CountingFilter{live: make(map[native.Handle]*frame.Frame)}
}

func (c *CountingFilter) Filter(in *frame.Frame) (native.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Filters++
	if c.PanicOnFilter {
		panic("filter exploded")
	}
	if c.FailFilter != nil && !c.AllocateOnFail {
		return native.NoHandle, c.FailFilter
	}
	out := in.CreateCopy()
	for i := range out.Pix {
		out.Pix[i] = ^out.Pix[i]
	}
	c.Allocs++
	c.next++
	c.live[c.next] = out
	return c.next, c.FailFilter
}

func (c *CountingFilter) CopyTo(h native.Handle, dst *frame.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Copies++
	if c.PanicOnCopy {
		panic("copy exploded")
	}
	if c.FailCopy != nil {
		return c.FailCopy
	}
	buf, ok := c.live[h]
	if !ok {
		return native.ErrUnknownHandle
	}
	return dst.Copy(buf)
}

func (c *CountingFilter) Release(h native.Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live[h]; !ok {
		return native.ErrUnknownHandle
	}
	c.Releases++
	delete(c.live, h)
	return c.FailRelease
}

// Outstanding returns allocations that have not been released.
func (c *CountingFilter) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}
