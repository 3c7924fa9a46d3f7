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

// Package source produces camera frames.
package source

import (
	"github.com/TheCacophonyProject/edge-viewer/frame"
)

// Source delivers frames one at a time. The frame returned by Next is
// owned by the source and is only valid until the next call. A camera
// that hiccups may return an empty frame rather than an error; an error
// means no more frames will come.
type Source interface {
	Next() (*frame.Frame, error)
	Width() int
	Height() int
	FPS() int
	Close() error
}
