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

// edge-viewer-ctl controls a running edge-viewer from the command line.
package main

import (
	"errors"
	"fmt"
	"log"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/edge-viewer/viewercontrol"
)

var version = "<not set>"

type Args struct {
	Toggle   bool `arg:"--toggle" help:"switch between edge and camera view"`
	On       bool `arg:"--on" help:"show edges"`
	Off      bool `arg:"--off" help:"show the camera view"`
	Snapshot bool `arg:"--snapshot" help:"save the next frame as a still"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()
	log.SetFlags(0)

	if args.On && args.Off {
		return errors.New("--on and --off can not be used together")
	}

	client, err := viewercontrol.New()
	if err != nil {
		return err
	}

	switch {
	case args.Toggle:
		if _, err := client.ToggleEdgeDetection(); err != nil {
			return err
		}
	case args.On, args.Off:
		if err := client.SetEdgeDetection(args.On); err != nil {
			return err
		}
	}

	if args.Snapshot {
		if err := client.TakeSnapshot(); err != nil {
			return err
		}
		log.Print("snapshot saved")
	}

	enabled, err := client.EdgeDetectionEnabled()
	if err != nil {
		return err
	}
	fps, err := client.FPS()
	if err != nil {
		return err
	}
	fmt.Printf("edge detection: %v\nFPS: %.1f\n", enabled, fps)
	return nil
}
