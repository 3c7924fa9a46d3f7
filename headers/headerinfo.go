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

package headers

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v1"
)

// Header keys sent by a camera service before the first frame.
const (
	Width     = "width"
	Height    = "height"
	Channels  = "channels"
	FPS       = "fps"
	FrameSize = "framesize"
	Brand     = "brand"
	Model     = "model"
)

// HeaderInfo contains the camera description fields sent by a camera
// service.
type HeaderInfo struct {
	width     int
	height    int
	channels  int
	fps       int
	framesize int
	brand     string
	model     string
}

// New describes a camera producing frames of the given shape. The frame
// size is derived from the shape.
func New(width, height, channels, fps int, brand, model string) *HeaderInfo {
	return &HeaderInfo{
		width:     width,
		height:    height,
		channels:  channels,
		fps:       fps,
		framesize: width * height * channels,
		brand:     brand,
		model:     model,
	}
}

func (h *HeaderInfo) Width() int {
	return h.width
}

func (h *HeaderInfo) Height() int {
	return h.height
}

// Channels returns the number of bytes per pixel.
func (h *HeaderInfo) Channels() int {
	return h.channels
}

func (h *HeaderInfo) FPS() int {
	return h.fps
}

// FrameSize returns the number of bytes in each frame.
func (h *HeaderInfo) FrameSize() int {
	return h.framesize
}

// Model returns the camera model.
func (h *HeaderInfo) Model() string {
	return h.model
}

// Brand returns the camera brand.
func (h *HeaderInfo) Brand() string {
	return h.brand
}

// Validate checks that frames described by the header can be read.
func (h *HeaderInfo) Validate() error {
	if h.width <= 0 || h.height <= 0 || h.channels <= 0 {
		return fmt.Errorf("invalid frame shape %dx%dx%d", h.width, h.height, h.channels)
	}
	if h.framesize != h.width*h.height*h.channels {
		return fmt.Errorf("frame size %d does not match %dx%dx%d", h.framesize, h.width, h.height, h.channels)
	}
	return nil
}

// ReadHeaderInfo reads YAML header lines up to the first blank line.
func ReadHeaderInfo(reader *bufio.Reader) (*HeaderInfo, error) {
	var buf bytes.Buffer
	for {
		line, err := reader.ReadString(byte('\n'))
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		buf.WriteString(line)
	}
	h := make(map[string]interface{})
	err := yaml.Unmarshal(buf.Bytes(), &h)
	if err != nil {
		return nil, err
	}

	info := &HeaderInfo{
		width:     toInt(h[Width]),
		height:    toInt(h[Height]),
		channels:  toInt(h[Channels]),
		fps:       toInt(h[FPS]),
		framesize: toInt(h[FrameSize]),
		brand:     toStr(h[Brand]),
		model:     toStr(h[Model]),
	}
	if info.framesize == 0 {
		info.framesize = info.width * info.height * info.channels
	}
	return info, nil
}

// WriteHeaderInfo writes h as YAML followed by the terminating blank line.
func WriteHeaderInfo(w io.Writer, h *HeaderInfo) error {
	out, err := yaml.Marshal(map[string]interface{}{
		Width:     h.width,
		Height:    h.height,
		Channels:  h.channels,
		FPS:       h.fps,
		FrameSize: h.framesize,
		Brand:     h.brand,
		Model:     h.model,
	})
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

func toInt(v interface{}) int {
	out, ok := v.(int)
	if !ok {
		return 0
	}
	return out
}

func toStr(v interface{}) string {
	out, ok := v.(string)
	if !ok {
		return ""
	}
	return out
}
