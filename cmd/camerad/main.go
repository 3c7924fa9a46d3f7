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

// camerad captures frames from a local camera and sends them to
// edge-viewer over its frame socket.
package main

import (
	"errors"
	"log"
	"net"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/coreos/go-systemd/daemon"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/headers"
	"github.com/TheCacophonyProject/edge-viewer/loglimiter"
	"github.com/TheCacophonyProject/edge-viewer/source"
)

const (
	sdNotifySecs   = 5
	minLogInterval = time.Minute
)

var version = "<not set>"

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/camerad.yaml"
	arg.MustParse(&args)
	return args
}

type nextFrameErr struct {
	cause error
}

func (e *nextFrameErr) Error() string {
	return e.cause.Error()
}

func (e *nextFrameErr) Unwrap() error {
	return e.cause
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()
	if !args.Timestamps {
		log.SetFlags(0) // Removes default timestamp flag
	}

	log.Printf("version: %s", version)
	conf, err := ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	logConfig(conf)

	daemon.SdNotify(false, daemon.SdNotifyReady)

	for {
		log.Print("opening camera")
		camera, err := openSource(conf)
		if err != nil {
			return err
		}

		err = runCamera(conf, camera)
		log.Print("closing camera")
		camera.Close()

		var frameErr *nextFrameErr
		if errors.As(err, &frameErr) {
			// The device went away. Reopening it is the only way back.
			log.Printf("camera error: %v", err)
		} else {
			log.Printf("frame output error: %v", err)
		}
		time.Sleep(conf.ReconnectDelay)
	}
}

func openSource(conf *Config) (source.Source, error) {
	if conf.Source == sourcePattern {
		return source.NewPattern(conf.Camera.Width, conf.Camera.Height, conf.Camera.FPS), nil
	}
	return source.OpenCamera(conf.Camera)
}

// runCamera sends frames from camera to the frame output socket until
// either side fails.
func runCamera(conf *Config, camera source.Source) error {
	log.Print("dialing frame output socket")
	conn, err := net.Dial("unix", conf.FrameOutput)
	if err != nil {
		return err
	}
	defer conn.Close()

	return sendFrames(conn, camera, conf.Brand, conf.Model)
}

// sendFrames writes the stream header and then every frame from camera.
// The header is built from the first real frame, as some drivers only
// settle on a size once they start grabbing.
func sendFrames(conn net.Conn, camera source.Source, brand, model string) error {
	fps := camera.FPS()
	if fps <= 0 {
		fps = 30
	}
	framesPerSdNotify := sdNotifySecs * fps
	frameLogIntervalFirstMin := 15 * fps
	frameLogInterval := 60 * 5 * fps

	skipLog := loglimiter.New(minLogInterval)

	var writer *source.Writer
	notifyCount := 0
	totalFrames := 0
	for {
		f, err := camera.Next()
		if err != nil {
			return &nextFrameErr{err}
		}

		if notifyCount++; notifyCount >= framesPerSdNotify {
			daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			notifyCount = 0
		}

		if f.Empty() {
			skipLog.Print("skipping empty frame from camera")
			continue
		}

		if writer == nil {
			if f.Width != camera.Width() || f.Height != camera.Height() {
				log.Printf("camera reported %dx%d but delivers %dx%d",
					camera.Width(), camera.Height(), f.Width, f.Height)
			}
			header := headers.New(f.Width, f.Height, frame.RGBAChannels, camera.FPS(), brand, model)
			if writer, err = source.NewWriter(conn, header); err != nil {
				return err
			}
			log.Printf("sending %dx%d frames", f.Width, f.Height)
		}

		if err := writer.WriteFrame(f); err != nil {
			return err
		}

		totalFrames++
		if totalFrames%frameLogIntervalFirstMin == 0 &&
			totalFrames <= 60*fps || totalFrames%frameLogInterval == 0 {
			log.Printf("%d frames sent", totalFrames)
		}
	}
}

func logConfig(conf *Config) {
	log.Printf("source: %s", conf.Source)
	log.Printf("camera: %+v", conf.Camera)
	log.Printf("brand: %s, model: %s", conf.Brand, conf.Model)
	log.Printf("frame output: %s", conf.FrameOutput)
	log.Printf("reconnect delay: %s", conf.ReconnectDelay)
}
