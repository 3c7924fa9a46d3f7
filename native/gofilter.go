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

package native

import (
	"fmt"
	"image"
	"sync"

	"github.com/TheCacophonyProject/edge-viewer/edges"
	"github.com/TheCacophonyProject/edge-viewer/frame"
)

// GoFilter runs Canny edge detection in Go. Results live in pooled
// buffers that are only reachable through their handles until released.
type GoFilter struct {
	mu       sync.Mutex
	detector *edges.Detector
	gray     *image.Gray
	edgeMap  *image.Gray
	pool     sync.Pool
	live     map[Handle]*frame.Frame
	next     Handle
}

func NewGoFilter(low, high, blurSigma float64) *GoFilter {
	return &GoFilter{
		detector: edges.NewDetector(low, high, blurSigma),
		live:     make(map[Handle]*frame.Frame),
	}
}

func (g *GoFilter) Filter(in *frame.Frame) (Handle, error) {
	if in.Empty() {
		return NoHandle, fmt.Errorf("cannot filter %s frame", in)
	}
	if in.Channels != frame.RGBAChannels {
		return NoHandle, fmt.Errorf("expected RGBA frame, got %s", in)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.gray = fitGray(g.gray, in.Width, in.Height)
	g.edgeMap = fitGray(g.edgeMap, in.Width, in.Height)
	if err := edges.GrayInto(g.gray, in); err != nil {
		return NoHandle, err
	}
	g.detector.DetectInto(g.edgeMap, g.gray)

	out := g.get(in.Width, in.Height)
	if err := edges.ToRGBA(out, g.edgeMap); err != nil {
		g.pool.Put(out)
		return NoHandle, err
	}

	g.next++
	g.live[g.next] = out
	return g.next, nil
}

func (g *GoFilter) CopyTo(h Handle, dst *frame.Frame) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	buf, ok := g.live[h]
	if !ok {
		return ErrUnknownHandle
	}
	return dst.Copy(buf)
}

func (g *GoFilter) Release(h Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	buf, ok := g.live[h]
	if !ok {
		return ErrUnknownHandle
	}
	delete(g.live, h)
	g.pool.Put(buf)
	return nil
}

// Outstanding returns the number of results not yet released.
func (g *GoFilter) Outstanding() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.live)
}

func (g *GoFilter) get(width, height int) *frame.Frame {
	if f, ok := g.pool.Get().(*frame.Frame); ok && f.Width == width && f.Height == height {
		return f
	}
	return frame.NewRGBA(width, height)
}

func fitGray(g *image.Gray, width, height int) *image.Gray {
	if g != nil && g.Rect.Dx() == width && g.Rect.Dy() == height {
		return g
	}
	return image.NewGray(image.Rect(0, 0, width, height))
}
