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
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const labelMargin = 4

var (
	labelColor      = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	labelBackground = color.RGBA{A: 255}
)

// drawLabel writes text into the top left corner of img on a solid
// background. Text that does not fit is clipped.
func drawLabel(img *image.RGBA, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	box := image.Rect(0, 0, width+2*labelMargin, face.Height+2*labelMargin).Add(img.Rect.Min)
	draw.Draw(img, box.Intersect(img.Rect), image.NewUniform(labelBackground), image.Point{}, draw.Src)

	d.Dot = fixed.Point26_6{
		X: fixed.I(img.Rect.Min.X + labelMargin),
		Y: fixed.I(img.Rect.Min.Y + labelMargin + face.Ascent),
	}
	d.DrawString(text)
}
