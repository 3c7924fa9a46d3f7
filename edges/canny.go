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
	"image"

	"github.com/disintegration/imaging"
)

const (
	DefaultLowThreshold  = 50
	DefaultHighThreshold = 150

	edgeVal = 255

	// tan(22.5) and tan(67.5) split gradient directions into four sectors.
	tan22 = 0.4142135623730950
	tan67 = 2.4142135623730950
)

// Detector is a Canny edge detector. Scratch buffers are kept between
// calls so a Detector must not be used from more than one goroutine.
type Detector struct {
	Low       float64
	High      float64
	BlurSigma float64

	mag   []int32
	dir   []uint8
	state []uint8
	stack []int
}

const (
	sectorHorizontal uint8 = iota
	sectorVertical
	sectorDiagonalDown
	sectorDiagonalUp
)

const (
	notEdge uint8 = iota
	weakEdge
	strongEdge
)

func NewDetector(low, high, blurSigma float64) *Detector {
	return &Detector{
		Low:       low,
		High:      high,
		BlurSigma: blurSigma,
	}
}

// Detect returns a newly allocated edge map of src.
func (d *Detector) Detect(src *image.Gray) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()))
	d.DetectInto(dst, src)
	return dst
}

// DetectInto writes the edge map of src into dst, which must be at least
// as large as src. Edge pixels are 255, everything else 0. Pixels on the
// image border are never edges.
func (d *Detector) DetectInto(dst, src *image.Gray) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for i := range dst.Pix {
		dst.Pix[i] = 0
	}
	if w < 3 || h < 3 {
		return
	}

	if d.BlurSigma > 0 {
		src = toGray(imaging.Blur(src, d.BlurSigma))
	}

	d.reset(w * h)
	d.gradient(src, w, h)
	d.suppress(w, h)
	d.hysteresis(w, h)

	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := range row {
			if d.state[y*w+x] == strongEdge {
				row[x] = edgeVal
			}
		}
	}
}

func (d *Detector) reset(n int) {
	if cap(d.mag) < n {
		d.mag = make([]int32, n)
		d.dir = make([]uint8, n)
		d.state = make([]uint8, n)
	}
	d.mag = d.mag[:n]
	d.dir = d.dir[:n]
	d.state = d.state[:n]
	for i := 0; i < n; i++ {
		d.mag[i] = 0
		d.dir[i] = 0
		d.state[i] = notEdge
	}
	d.stack = d.stack[:0]
}

// gradient applies the 3x3 Sobel operator, storing the L1 magnitude and
// the direction sector of every interior pixel.
func (d *Detector) gradient(src *image.Gray, w, h int) {
	at := func(x, y int) int32 {
		return int32(src.Pix[src.PixOffset(src.Rect.Min.X+x, src.Rect.Min.Y+y)])
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))

			ax, ay := abs(gx), abs(gy)
			i := y*w + x
			d.mag[i] = ax + ay

			switch {
			case float64(ay) < float64(ax)*tan22:
				d.dir[i] = sectorHorizontal
			case float64(ay) > float64(ax)*tan67:
				d.dir[i] = sectorVertical
			case (gx > 0) == (gy > 0):
				d.dir[i] = sectorDiagonalDown
			default:
				d.dir[i] = sectorDiagonalUp
			}
		}
	}
}

// suppress keeps only local maxima along the gradient direction and
// classifies them against the two thresholds.
func (d *Detector) suppress(w, h int) {
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := d.mag[i]
			if float64(m) <= d.Low {
				continue
			}

			var before, after int
			switch d.dir[i] {
			case sectorHorizontal:
				before, after = i-1, i+1
			case sectorVertical:
				before, after = i-w, i+w
			case sectorDiagonalDown:
				before, after = i-w-1, i+w+1
			default:
				before, after = i-w+1, i+w-1
			}
			if m <= d.mag[before] || m < d.mag[after] {
				continue
			}

			if float64(m) > d.High {
				d.state[i] = strongEdge
				d.stack = append(d.stack, i)
			} else {
				d.state[i] = weakEdge
			}
		}
	}
}

// hysteresis promotes weak edges that are 8-connected to a strong edge.
func (d *Detector) hysteresis(w, h int) {
	for len(d.stack) > 0 {
		i := d.stack[len(d.stack)-1]
		d.stack = d.stack[:len(d.stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 1 || ny < 1 || nx >= w-1 || ny >= h-1 {
					continue
				}
				n := ny*w + nx
				if d.state[n] == weakEdge {
					d.state[n] = strongEdge
					d.stack = append(d.stack, n)
				}
			}
		}
	}
}

func toGray(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			// Blurring a gray image keeps R, G and B equal.
			g.Pix[y*g.Stride+x] = img.Pix[y*img.Stride+x*4]
		}
	}
	return g
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
