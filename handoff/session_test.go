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
	"io/ioutil"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/native/nativetest"
)

type recordingListener struct {
	mu   sync.Mutex
	errs []error
}

func (l *recordingListener) FrameFailed(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func quietLogs(t *testing.T) {
	log.SetOutput(ioutil.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
}

func TestNewSessionRejectsBadDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 0}, {0, 480}, {640, 0}, {-1, 10}} {
		s, err := NewSession(nativetest.New(), dims[0], dims[1], true, nil)
		assert.ErrorIs(t, err, ErrInvalidDimensions)
		assert.Nil(t, s)
	}
}

func TestSessionFiltersIntoStableBuffer(t *testing.T) {
	filter := nativetest.New()
	s, err := NewSession(filter, 4, 3, true, nil)
	require.NoError(t, err)

	first := s.Process(testFrame(4, 3, 0))
	second := s.Process(testFrame(4, 3, 0xff))
	assert.Same(t, first, second)
	assert.Equal(t, testFrame(4, 3, 0).Pix, second.Pix)
	assert.Equal(t, 0, filter.Outstanding())

	stats := s.Stats()
	assert.Equal(t, uint64(2), stats.Frames)
	assert.Equal(t, uint64(2), stats.Filtered)
}

func TestSessionToggle(t *testing.T) {
	filter := nativetest.New()
	s, err := NewSession(filter, 2, 2, true, nil)
	require.NoError(t, err)
	input := testFrame(2, 2, 1)

	assert.True(t, s.FilterEnabled())
	assert.False(t, s.ToggleFilter())
	assert.Same(t, input, s.Process(input))
	assert.Equal(t, 0, filter.Filters)

	assert.True(t, s.ToggleFilter())
	assert.NotSame(t, input, s.Process(input))
	assert.Equal(t, 1, filter.Filters)

	s.SetFilterEnabled(false)
	assert.False(t, s.FilterEnabled())
	assert.Equal(t, uint64(1), s.Stats().Passthrough)
}

func TestSessionNotifiesOnFailure(t *testing.T) {
	quietLogs(t)
	filter := nativetest.New()
	filter.FailFilter = errors.New("boom")
	listener := &recordingListener{}
	s, err := NewSession(filter, 2, 2, true, listener)
	require.NoError(t, err)

	input := testFrame(2, 2, 3)
	assert.Same(t, input, s.Process(input))
	assert.Same(t, input, s.Process(input))

	require.Len(t, listener.errs, 2)
	assert.ErrorIs(t, listener.errs[0], filter.FailFilter)
	assert.Equal(t, uint64(2), s.Stats().Failed)
}

func TestSessionEmptyFrameIsNotAFailure(t *testing.T) {
	quietLogs(t)
	filter := nativetest.New()
	listener := &recordingListener{}
	s, err := NewSession(filter, 2, 2, true, listener)
	require.NoError(t, err)

	empty := frame.NewRGBA(0, 0)
	assert.Same(t, empty, s.Process(empty))
	assert.Empty(t, listener.errs)
	assert.Equal(t, uint64(1), s.Stats().Empty)
	assert.Equal(t, 0, filter.Filters)
}

func TestSessionNilFrameGivesBlank(t *testing.T) {
	quietLogs(t)
	s, err := NewSession(nativetest.New(), 3, 2, true, nil)
	require.NoError(t, err)

	out := s.Process(nil)
	require.NotNil(t, out)
	assert.Equal(t, 3, out.Width)
	assert.Equal(t, 2, out.Height)
	assert.Equal(t, make([]byte, out.Size()), out.Pix)
}

func TestSessionRecoversFromPanic(t *testing.T) {
	quietLogs(t)
	filter := nativetest.New()
	filter.PanicOnFilter = true
	listener := &recordingListener{}
	s, err := NewSession(filter, 2, 2, true, listener)
	require.NoError(t, err)

	out := s.Process(testFrame(2, 2, 5))
	require.NotNil(t, out)
	assert.Equal(t, make([]byte, out.Size()), out.Pix)
	assert.Equal(t, uint64(1), s.Stats().Recovered)
	require.Len(t, listener.errs, 1)
	assert.ErrorIs(t, listener.errs[0], ErrFramePanic)

	// The next frame gets a fresh attempt.
	filter.PanicOnFilter = false
	out = s.Process(testFrame(2, 2, 0))
	assert.Equal(t, testFrame(2, 2, 0xff).Pix, out.Pix)
	assert.Equal(t, 0, filter.Outstanding())
}

func TestSessionReleasesWhenCopyPanics(t *testing.T) {
	quietLogs(t)
	filter := nativetest.New()
	filter.PanicOnCopy = true
	listener := &recordingListener{}
	s, err := NewSession(filter, 2, 2, true, listener)
	require.NoError(t, err)

	out := s.Process(testFrame(2, 2, 5))
	require.NotNil(t, out)
	assert.Equal(t, make([]byte, out.Size()), out.Pix)
	assert.Equal(t, 1, filter.Allocs)
	assert.Equal(t, 1, filter.Releases)
	assert.Equal(t, 0, filter.Outstanding())
	assert.Equal(t, uint64(1), s.Stats().Recovered)
	require.Len(t, listener.errs, 1)
	assert.ErrorIs(t, listener.errs[0], ErrFramePanic)
}

func TestSessionReleaseFailureStillCountsAsFiltered(t *testing.T) {
	quietLogs(t)
	filter := nativetest.New()
	filter.FailRelease = errors.New("double free")
	listener := &recordingListener{}
	s, err := NewSession(filter, 2, 2, true, listener)
	require.NoError(t, err)

	out := s.Process(testFrame(2, 2, 0))
	assert.Equal(t, testFrame(2, 2, 0xff).Pix, out.Pix)

	stats := s.Stats()
	assert.Equal(t, uint64(1), stats.Filtered)
	assert.Equal(t, uint64(0), stats.Failed)
	require.Len(t, listener.errs, 1)
	assert.ErrorIs(t, listener.errs[0], filter.FailRelease)
}

func TestClosedSessionPassesThrough(t *testing.T) {
	quietLogs(t)
	filter := nativetest.New()
	s, err := NewSession(filter, 2, 2, true, nil)
	require.NoError(t, err)
	s.Close()

	input := testFrame(2, 2, 1)
	assert.Same(t, input, s.Process(input))
	assert.Equal(t, 0, filter.Filters)
	assert.Equal(t, 2, s.Width())
	assert.Equal(t, 2, s.Height())
}
