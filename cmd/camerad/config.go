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
	"errors"
	"fmt"
	"io/ioutil"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/edge-viewer/source"
)

const (
	sourceCamera  = "camera"
	sourcePattern = "pattern"
)

type Config struct {
	Source         string              `yaml:"source"`
	Camera         source.CameraConfig `yaml:"camera"`
	Brand          string              `yaml:"brand"`
	Model          string              `yaml:"model"`
	FrameOutput    string              `yaml:"frame-output"`
	ReconnectDelay time.Duration       `yaml:"reconnect-delay"`
}

var defaultConfig = Config{
	Source: sourceCamera,
	Camera: source.CameraConfig{
		Index:  0,
		Width:  640,
		Height: 480,
		FPS:    30,
	},
	Brand:          "generic",
	Model:          "usb",
	FrameOutput:    "/var/run/edge-frames",
	ReconnectDelay: 5 * time.Second,
}

func (conf *Config) Validate() error {
	switch conf.Source {
	case sourceCamera, sourcePattern:
	default:
		return fmt.Errorf("unknown source %q", conf.Source)
	}
	if conf.FrameOutput == "" {
		return errors.New("frame-output is required")
	}
	if conf.Camera.Width <= 0 || conf.Camera.Height <= 0 {
		return errors.New("camera width and height must be positive")
	}
	if conf.ReconnectDelay <= 0 {
		return errors.New("reconnect-delay must be positive")
	}
	return nil
}

func ParseConfigFile(filename string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := defaultConfig
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}
