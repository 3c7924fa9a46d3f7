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

// Package handoff moves camera frames through a native filter and back
// into a stable output buffer, releasing the filter's memory every frame.
package handoff

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/native"
)

var (
	ErrEmptyFrame = errors.New("empty frame")
	ErrNoOutput   = errors.New("no output buffer")
)

// HandleFrame filters input into output when filterEnabled is set.
//
// The returned frame is always safe to present. It is output when the
// filter result was copied, otherwise input itself. A non-nil error
// reports why input was passed through, or that releasing the filter
// result failed after a good copy. No filter allocation outlives the
// call, and output is only written by a successful copy.
func HandleFrame(f native.Filter, input *frame.Frame, filterEnabled bool, output *frame.Frame) (result *frame.Frame, err error) {
	if !filterEnabled {
		return input, nil
	}
	if input.Empty() {
		return input, ErrEmptyFrame
	}
	if output.Empty() {
		return input, ErrNoOutput
	}

	alloc, err := native.Acquire(f, input)
	if err != nil {
		return input, err
	}
	defer func() {
		if releaseErr := alloc.Release(); releaseErr != nil {
			err = multierr.Append(err, releaseErr)
		}
	}()

	if err := alloc.CopyTo(output); err != nil {
		return input, err
	}
	return output, nil
}
