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
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/TheCacophonyProject/edge-viewer/frame"
)

var ErrCameraClosed = errors.New("camera stopped delivering frames")

// CameraConfig selects a capture device and the mode to ask it for. Zero
// values leave the device's default in place.
type CameraConfig struct {
	Index  int `yaml:"index"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// Camera captures from a local video device through OpenCV.
type Camera struct {
	capture *gocv.VideoCapture
	bgr     gocv.Mat
	rgba    gocv.Mat
	frame   *frame.Frame
	empty   *frame.Frame

	width, height, fps int
}

// OpenCamera opens the device and reads back the mode it settled on.
func OpenCamera(conf CameraConfig) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(conf.Index)
	if err != nil {
		return nil, fmt.Errorf("opening camera %d: %w", conf.Index, err)
	}
	if conf.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(conf.Width))
	}
	if conf.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(conf.Height))
	}
	if conf.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(conf.FPS))
	}

	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	fps := int(capture.Get(gocv.VideoCaptureFPS))
	if width <= 0 || height <= 0 {
		capture.Close()
		return nil, fmt.Errorf("camera %d reported invalid size %dx%d", conf.Index, width, height)
	}

	return &Camera{
		capture: capture,
		bgr:     gocv.NewMat(),
		rgba:    gocv.NewMat(),
		frame:   frame.NewRGBA(width, height),
		empty:   &frame.Frame{},
		width:   width,
		height:  height,
		fps:     fps,
	}, nil
}

// Next grabs a frame. A grab that produces no image gives an empty frame.
func (c *Camera) Next() (*frame.Frame, error) {
	if ok := c.capture.Read(&c.bgr); !ok {
		return nil, ErrCameraClosed
	}
	if c.bgr.Empty() {
		return c.empty, nil
	}

	gocv.CvtColor(c.bgr, &c.rgba, gocv.ColorBGRToRGBA)
	if c.rgba.Cols() != c.width || c.rgba.Rows() != c.height {
		// Some drivers ignore the requested mode until the first grab.
		c.width, c.height = c.rgba.Cols(), c.rgba.Rows()
		c.frame = frame.NewRGBA(c.width, c.height)
	}
	data, err := c.rgba.DataPtrUint8()
	if err != nil {
		return nil, err
	}
	copy(c.frame.Pix, data)
	return c.frame, nil
}

func (c *Camera) Width() int {
	return c.width
}

func (c *Camera) Height() int {
	return c.height
}

func (c *Camera) FPS() int {
	return c.fps
}

func (c *Camera) Close() error {
	return multierr.Combine(
		c.bgr.Close(),
		c.rgba.Close(),
		c.capture.Close(),
	)
}
