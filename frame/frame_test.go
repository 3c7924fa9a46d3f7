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
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmpty(t *testing.T) {
	var nilFrame *Frame
	assert.True(t, nilFrame.Empty())
	assert.True(t, new(Frame).Empty())
	assert.True(t, NewRGBA(0, 10).Empty())
	assert.True(t, NewRGBA(10, 0).Empty())
	assert.True(t, (&Frame{Width: 2, Height: 2, Channels: 4, Pix: make([]byte, 15)}).Empty())
	assert.False(t, NewRGBA(2, 2).Empty())
}

func TestCopy(t *testing.T) {
	src := NewRGBA(2, 2)
	for i := range src.Pix {
		src.Pix[i] = byte(i)
	}
	dst := NewRGBA(2, 2)
	pix := dst.Pix

	require.NoError(t, dst.Copy(src))
	assert.Equal(t, src.Pix, dst.Pix)
	// The destination buffer is reused, not replaced.
	assert.Same(t, &pix[0], &dst.Pix[0])
}

func TestCopyRejectsDifferentShape(t *testing.T) {
	src := NewRGBA(3, 2)
	src.Pix[0] = 9
	dst := NewRGBA(2, 2)

	err := dst.Copy(src)
	assert.True(t, errors.Is(err, ErrSizeMismatch))
	assert.Equal(t, byte(0), dst.Pix[0])
}

func TestCreateCopyIsIndependent(t *testing.T) {
	src := NewRGBA(1, 1)
	c := src.CreateCopy()
	c.Pix[0] = 1
	assert.Equal(t, byte(0), src.Pix[0])
}

func TestRGBASharesMemory(t *testing.T) {
	f := NewRGBA(2, 1)
	img, err := f.RGBA()
	require.NoError(t, err)
	img.SetRGBA(1, 0, color.RGBA{1, 2, 3, 4})
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, f.Pix)

	_, err = New(2, 1, 1).RGBA()
	assert.Error(t, err)
}

func TestFromImage(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 1))
	g.SetGray(1, 0, color.Gray{200})

	f := FromImage(g)
	assert.Equal(t, 2, f.Width)
	assert.Equal(t, 1, f.Height)
	assert.Equal(t, []byte{0, 0, 0, 255, 200, 200, 200, 255}, f.Pix)
}

func TestImageOfGrayFrame(t *testing.T) {
	f := New(2, 1, 1)
	f.Pix[1] = 7
	g, ok := f.Image().(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(7), g.GrayAt(1, 0).Y)
}
