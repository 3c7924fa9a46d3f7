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

package edges

import (
	"fmt"
	"image"

	"github.com/TheCacophonyProject/edge-viewer/frame"
)

// Fixed point luma weights (0.299, 0.587, 0.114) scaled by 2^14, the
// same rounding OpenCV uses for RGBA to gray conversion.
const (
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaShift = 14
)

// GrayInto converts an RGBA frame to luma, reusing dst.
func GrayInto(dst *image.Gray, f *frame.Frame) error {
	if f.Channels != frame.RGBAChannels || f.Empty() {
		return fmt.Errorf("cannot convert %s frame to gray", f)
	}
	if dst.Rect.Dx() != f.Width || dst.Rect.Dy() != f.Height {
		return fmt.Errorf("%w: gray %v for %s frame", frame.ErrSizeMismatch, dst.Rect.Size(), f)
	}
	stride := f.Stride()
	for y := 0; y < f.Height; y++ {
		in := f.Pix[y*stride : (y+1)*stride]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+f.Width]
		for x := range out {
			r, g, b := uint32(in[x*4]), uint32(in[x*4+1]), uint32(in[x*4+2])
			out[x] = uint8((r*lumaR + g*lumaG + b*lumaB + 1<<(lumaShift-1)) >> lumaShift)
		}
	}
	return nil
}

// Gray returns the luma of an RGBA frame.
func Gray(f *frame.Frame) (*image.Gray, error) {
	dst := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	if err := GrayInto(dst, f); err != nil {
		return nil, err
	}
	return dst, nil
}

// ToRGBA expands a gray image into an opaque RGBA frame of the same size.
func ToRGBA(dst *frame.Frame, g *image.Gray) error {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	if dst.Width != w || dst.Height != h || dst.Channels != frame.RGBAChannels || dst.Empty() {
		return fmt.Errorf("%w: gray %dx%d into %s", frame.ErrSizeMismatch, w, h, dst)
	}
	stride := dst.Stride()
	for y := 0; y < h; y++ {
		in := g.Pix[y*g.Stride : y*g.Stride+w]
		out := dst.Pix[y*stride : (y+1)*stride]
		for x, v := range in {
			out[x*4] = v
			out[x*4+1] = v
			out[x*4+2] = v
			out[x*4+3] = 0xff
		}
	}
	return nil
}
