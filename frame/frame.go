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

package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// RGBAChannels is the channel depth of frames delivered by cameras.
const RGBAChannels = 4

var ErrSizeMismatch = errors.New("frame dimensions do not match")

// Frame is a row-major pixel buffer. Pixels are stored as Channels
// consecutive bytes, so an RGBA frame has a stride of Width*4.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// New allocates a zeroed frame.
func New(width, height, channels int) *Frame {
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, width*height*channels),
	}
}

// NewRGBA allocates a zeroed 4 channel frame.
func NewRGBA(width, height int) *Frame {
	return New(width, height, RGBAChannels)
}

func (f *Frame) Stride() int {
	return f.Width * f.Channels
}

// Size is the number of bytes the pixel data should occupy.
func (f *Frame) Size() int {
	return f.Width * f.Height * f.Channels
}

// Empty reports whether the frame is degenerate: nil, zero sized or
// missing pixel data.
func (f *Frame) Empty() bool {
	if f == nil {
		return true
	}
	if f.Width <= 0 || f.Height <= 0 || f.Channels <= 0 {
		return true
	}
	return len(f.Pix) < f.Size()
}

// SameShape reports whether other has the same width, height and depth.
// A nil frame has no shape.
func (f *Frame) SameShape(other *Frame) bool {
	if f == nil || other == nil {
		return false
	}
	return f.Width == other.Width && f.Height == other.Height && f.Channels == other.Channels
}

// Copy sets the frame's pixels to those of orig. The frame is never
// reallocated; a frame with a different shape is rejected and left as is.
func (f *Frame) Copy(orig *Frame) error {
	if !f.SameShape(orig) || len(f.Pix) < f.Size() || len(orig.Pix) < orig.Size() {
		return fmt.Errorf("%w: %s into %s", ErrSizeMismatch, orig, f)
	}
	copy(f.Pix[:f.Size()], orig.Pix)
	return nil
}

// CreateCopy returns a newly allocated copy of the frame.
func (f *Frame) CreateCopy() *Frame {
	c := New(f.Width, f.Height, f.Channels)
	copy(c.Pix, f.Pix)
	return c
}

// Clear zeroes all pixels.
func (f *Frame) Clear() {
	for i := range f.Pix {
		f.Pix[i] = 0
	}
}

func (f *Frame) String() string {
	if f == nil {
		return "<nil frame>"
	}
	return fmt.Sprintf("%dx%dx%d", f.Width, f.Height, f.Channels)
}

// RGBA returns an image sharing the frame's pixel memory. Only 4 channel
// frames can be viewed this way.
func (f *Frame) RGBA() (*image.RGBA, error) {
	if f.Empty() || f.Channels != RGBAChannels {
		return nil, fmt.Errorf("cannot view %s frame as RGBA", f)
	}
	return &image.RGBA{
		Pix:    f.Pix[:f.Size()],
		Stride: f.Stride(),
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}, nil
}

// Image returns a copy of the frame as an image.Image. Single channel
// frames become *image.Gray, everything else *image.RGBA.
func (f *Frame) Image() image.Image {
	rect := image.Rect(0, 0, f.Width, f.Height)
	switch f.Channels {
	case 1:
		g := image.NewGray(rect)
		copy(g.Pix, f.Pix)
		return g
	case RGBAChannels:
		img := image.NewRGBA(rect)
		copy(img.Pix, f.Pix)
		return img
	}
	img := image.NewRGBA(rect)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := y*f.Stride() + x*f.Channels
			var c color.RGBA
			switch f.Channels {
			case 2:
				c = color.RGBA{f.Pix[i], f.Pix[i], f.Pix[i], f.Pix[i+1]}
			default:
				c = color.RGBA{f.Pix[i], f.Pix[i+1], f.Pix[i+2], 0xff}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// FromImage converts any image into a newly allocated RGBA frame.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	out := NewRGBA(b.Dx(), b.Dy())
	dst, err := out.RGBA()
	if err != nil {
		return out
	}
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return out
}
