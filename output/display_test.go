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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/TheCacophonyProject/edge-viewer/frame"
)

func TestDisplayFansOut(t *testing.T) {
	var seen []*frame.Frame
	good := SinkFunc(func(f *frame.Frame) error {
		seen = append(seen, f)
		return nil
	})
	errA := errors.New("a")
	errB := errors.New("b")
	d := NewDisplay(
		SinkFunc(func(*frame.Frame) error { return errA }),
		good,
	)
	d.Add(SinkFunc(func(*frame.Frame) error { return errB }))

	f := frame.NewRGBA(2, 2)
	err := d.Present(f)
	assert.Equal(t, []error{errA, errB}, multierr.Errors(err))
	require.Len(t, seen, 1)
	assert.Same(t, f, seen[0])
}

func TestPostRateNeverBlocks(t *testing.T) {
	d := NewDisplay()
	for i := 0; i < 100; i++ {
		d.PostRate(float64(i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.FPS() == 99 }, time.Second, time.Millisecond)
	assert.Equal(t, "FPS: 99.0", d.Label())

	d.PostRate(12.34)
	require.Eventually(t, func() bool { return d.FPS() == 12.34 }, time.Second, time.Millisecond)

	cancel()
	assert.Equal(t, context.Canceled, <-done)
}
