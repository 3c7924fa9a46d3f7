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

// Package opencv runs the edge filter through OpenCV. Results are Mats
// allocated by OpenCV and stay alive until released.
package opencv

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/native"
)

type Filter struct {
	low  float32
	high float32

	mu      sync.Mutex
	gray    gocv.Mat
	edgeMap gocv.Mat
	live    map[native.Handle]*gocv.Mat
	next    native.Handle
}

func NewFilter(low, high float64) *Filter {
	return &Filter{
		low:     float32(low),
		high:    float32(high),
		gray:    gocv.NewMat(),
		edgeMap: gocv.NewMat(),
		live:    make(map[native.Handle]*gocv.Mat),
	}
}

// Filter converts the frame to gray, runs Canny over it and expands the
// edge map back to RGBA in a newly allocated Mat.
func (f *Filter) Filter(in *frame.Frame) (native.Handle, error) {
	if in.Empty() || in.Channels != frame.RGBAChannels {
		return native.NoHandle, fmt.Errorf("cannot filter %s frame", in)
	}

	input, err := gocv.NewMatFromBytes(in.Height, in.Width, gocv.MatTypeCV8UC4, in.Pix[:in.Size()])
	if err != nil {
		return native.NoHandle, err
	}
	defer input.Close()

	f.mu.Lock()
	defer f.mu.Unlock()

	gocv.CvtColor(input, &f.gray, gocv.ColorRGBAToGray)
	gocv.Canny(f.gray, &f.edgeMap, f.low, f.high)

	out := gocv.NewMat()
	gocv.CvtColor(f.edgeMap, &out, gocv.ColorGrayToRGBA)
	if out.Empty() {
		out.Close()
		return native.NoHandle, fmt.Errorf("opencv produced an empty result for %s frame", in)
	}

	f.next++
	f.live[f.next] = &out
	return f.next, nil
}

func (f *Filter) CopyTo(h native.Handle, dst *frame.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	mat, ok := f.live[h]
	if !ok {
		return native.ErrUnknownHandle
	}
	if mat.Cols() != dst.Width || mat.Rows() != dst.Height || mat.Channels() != dst.Channels || dst.Empty() {
		return fmt.Errorf("%w: %dx%dx%d mat into %s", frame.ErrSizeMismatch, mat.Cols(), mat.Rows(), mat.Channels(), dst)
	}
	data, err := mat.DataPtrUint8()
	if err != nil {
		return err
	}
	copy(dst.Pix[:dst.Size()], data)
	return nil
}

func (f *Filter) Release(h native.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	mat, ok := f.live[h]
	if !ok {
		return native.ErrUnknownHandle
	}
	delete(f.live, h)
	return mat.Close()
}

// Outstanding returns the number of Mats not yet released.
func (f *Filter) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// Close frees the scratch Mats and any results that were never released.
func (f *Filter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, mat := range f.live {
		mat.Close()
		delete(f.live, h)
	}
	return multierr.Combine(f.gray.Close(), f.edgeMap.Close())
}
