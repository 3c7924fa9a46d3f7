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

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/edge-viewer/source"
)

func TestAllDefaults(t *testing.T) {
	conf, err := ParseConfig([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Source: "camera",
		Camera: source.CameraConfig{
			Width:  640,
			Height: 480,
			FPS:    30,
		},
		Brand:          "generic",
		Model:          "usb",
		FrameOutput:    "/var/run/edge-frames",
		ReconnectDelay: 5 * time.Second,
	}, *conf)
}

func TestAllSet(t *testing.T) {
	// All config set at non-default values.
	config := []byte(`
source: pattern
camera:
  index: 2
  width: 320
  height: 240
  fps: 10
brand: "acme"
model: "cam-1"
frame-output: "/some/sock"
reconnect-delay: 1m
`)

	conf, err := ParseConfig(config)
	require.NoError(t, err)

	assert.Equal(t, Config{
		Source: "pattern",
		Camera: source.CameraConfig{
			Index:  2,
			Width:  320,
			Height: 240,
			FPS:    10,
		},
		Brand:          "acme",
		Model:          "cam-1",
		FrameOutput:    "/some/sock",
		ReconnectDelay: time.Minute,
	}, *conf)
}

func TestInvalid(t *testing.T) {
	for _, config := range []string{
		"source: webcam",
		"frame-output: ''",
		"camera: {width: 0}",
		"reconnect-delay: 0s",
	} {
		_, err := ParseConfig([]byte(config))
		assert.Error(t, err, config)
	}
}
