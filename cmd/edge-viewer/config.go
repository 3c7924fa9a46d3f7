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
	"os"

	goconfig "github.com/TheCacophonyProject/go-config"
	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/edge-viewer/edges"
	"github.com/TheCacophonyProject/edge-viewer/source"
)

const (
	sourceSocket  = "socket"
	sourceCamera  = "camera"
	sourcePattern = "pattern"

	backendOpenCV = "opencv"
	backendGo     = "go"
)

type Config struct {
	DeviceName string              `yaml:"-"`
	Source     string              `yaml:"source"`
	FrameInput string              `yaml:"frame-input"`
	Camera     source.CameraConfig `yaml:"camera"`
	Filter     FilterConfig        `yaml:"filter"`
	Output     OutputConfig        `yaml:"output"`
}

type FilterConfig struct {
	Backend       string  `yaml:"backend"`
	Enabled       bool    `yaml:"enabled"`
	LowThreshold  float64 `yaml:"low-threshold"`
	HighThreshold float64 `yaml:"high-threshold"`
	BlurSigma     float64 `yaml:"blur-sigma"`
}

type OutputConfig struct {
	HTTPAddress   string  `yaml:"http-address"`
	MaxPreviewFPS float64 `yaml:"max-preview-fps"`
	RTPAddress    string  `yaml:"rtp-address"`
	RTPMaxFPS     float64 `yaml:"rtp-max-fps"`
	SnapshotDir   string  `yaml:"snapshot-dir"`
	OverlayFPS    bool    `yaml:"overlay-fps"`
}

func (conf *FilterConfig) Validate() error {
	switch conf.Backend {
	case backendOpenCV, backendGo:
	default:
		return fmt.Errorf("unknown filter backend %q", conf.Backend)
	}
	if conf.LowThreshold < 0 || conf.HighThreshold < 0 {
		return errors.New("filter thresholds can not be negative")
	}
	if conf.LowThreshold > conf.HighThreshold {
		return fmt.Errorf("low-threshold (%v) is greater than high-threshold (%v)", conf.LowThreshold, conf.HighThreshold)
	}
	if conf.BlurSigma < 0 {
		return errors.New("blur-sigma can not be negative")
	}
	if conf.BlurSigma > 0 && conf.Backend != backendGo {
		return fmt.Errorf("blur-sigma is only supported by the %q backend", backendGo)
	}
	return nil
}

func (conf *OutputConfig) Validate() error {
	if conf.MaxPreviewFPS < 0 || conf.RTPMaxFPS < 0 {
		return errors.New("output frame rates can not be negative")
	}
	return nil
}

func (conf *Config) Validate() error {
	switch conf.Source {
	case sourceSocket:
		if conf.FrameInput == "" {
			return errors.New("frame-input is required for the socket source")
		}
	case sourceCamera, sourcePattern:
	default:
		return fmt.Errorf("unknown source %q", conf.Source)
	}
	if conf.Source == sourcePattern && (conf.Camera.Width <= 0 || conf.Camera.Height <= 0) {
		return errors.New("the pattern source needs camera width and height")
	}

	if err := conf.Filter.Validate(); err != nil {
		return err
	}

	if err := conf.Output.Validate(); err != nil {
		return err
	}

	return nil
}

var defaultConfig = Config{
	Source:     sourceSocket,
	FrameInput: "/var/run/edge-frames",
	Camera: source.CameraConfig{
		Index:  0,
		Width:  640,
		Height: 480,
		FPS:    30,
	},
	Filter: FilterConfig{
		Backend:       backendOpenCV,
		Enabled:       true,
		LowThreshold:  edges.DefaultLowThreshold,
		HighThreshold: edges.DefaultHighThreshold,
	},
	Output: OutputConfig{
		HTTPAddress:   ":8081",
		MaxPreviewFPS: 15,
		RTPMaxFPS:     15,
		SnapshotDir:   "/var/spool/edge-viewer",
		OverlayFPS:    true,
	},
}

// ParseConfigFile reads the edge-viewer config. A missing file leaves
// the defaults in place. If configDir is set the device name is read
// from the Cacophony device config in that directory.
func ParseConfigFile(filename, configDir string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	conf, err := ParseConfig(buf)
	if err != nil {
		return nil, err
	}

	if configDir != "" {
		name, err := readDeviceName(configDir)
		if err != nil {
			return nil, err
		}
		conf.DeviceName = name
	}
	return conf, nil
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

func readDeviceName(configDir string) (string, error) {
	configRW, err := goconfig.New(configDir)
	if err != nil {
		return "", err
	}

	var deviceConfig goconfig.Device
	if err := configRW.Unmarshal(goconfig.DeviceKey, &deviceConfig); err != nil {
		return "", err
	}
	return deviceConfig.Name, nil
}
