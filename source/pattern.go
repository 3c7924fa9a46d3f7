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

package source

import (
	"time"

	"github.com/TheCacophonyProject/edge-viewer/frame"
)

const (
	defaultBackgroundVal = 40
	defaultBrightSpotVal = 220
	defaultSpotSize      = 16
	spotStep             = 3
)

// Pattern generates frames with a bright square moving diagonally over a
// flat background, for running without a camera.
type Pattern struct {
	BackgroundVal uint8
	BrightSpotVal uint8
	SpotSize      int

	width, height, fps int
	frame              *frame.Frame
	frameCounter       int
	ticker             *time.Ticker
}

// NewPattern creates a pattern source. With fps > 0 Next paces itself to
// that rate, otherwise frames are made as fast as they are asked for.
func NewPattern(width, height, fps int) *Pattern {
	p := &Pattern{
		BackgroundVal: defaultBackgroundVal,
		BrightSpotVal: defaultBrightSpotVal,
		SpotSize:      defaultSpotSize,
		width:         width,
		height:        height,
		fps:           fps,
		frame:         frame.NewRGBA(width, height),
	}
	if fps > 0 {
		p.ticker = time.NewTicker(time.Second / time.Duration(fps))
	}
	return p
}

func (p *Pattern) Next() (*frame.Frame, error) {
	if p.ticker != nil {
		<-p.ticker.C
	}
	p.fill(p.BackgroundVal, 0, 0, p.width, p.height)
	x, y := p.SpotPosition()
	p.fill(p.BrightSpotVal, x, y, x+p.SpotSize, y+p.SpotSize)
	p.frameCounter++
	return p.frame, nil
}

// SpotPosition returns the top left corner of the square in the next
// frame.
func (p *Pattern) SpotPosition() (int, int) {
	pos := p.frameCounter * spotStep
	return wrap(pos, p.width-p.SpotSize), wrap(pos, p.height-p.SpotSize)
}

func wrap(pos, span int) int {
	if span <= 0 {
		return 0
	}
	return pos % span
}

func (p *Pattern) fill(val uint8, x0, y0, x1, y1 int) {
	x1 = min(x1, p.width)
	y1 = min(y1, p.height)
	stride := p.frame.Stride()
	for y := y0; y < y1; y++ {
		row := p.frame.Pix[y*stride : (y+1)*stride]
		for x := x0; x < x1; x++ {
			i := x * frame.RGBAChannels
			row[i], row[i+1], row[i+2], row[i+3] = val, val, val, 0xff
		}
	}
}

func (p *Pattern) Width() int {
	return p.width
}

func (p *Pattern) Height() int {
	return p.height
}

func (p *Pattern) FPS() int {
	return p.fps
}

func (p *Pattern) Close() error {
	if p.ticker != nil {
		p.ticker.Stop()
	}
	return nil
}
