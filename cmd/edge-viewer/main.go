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
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	goconfig "github.com/TheCacophonyProject/go-config"
	arg "github.com/alexflint/go-arg"
	"github.com/coreos/go-systemd/daemon"

	"github.com/TheCacophonyProject/edge-viewer/loglimiter"
	"github.com/TheCacophonyProject/edge-viewer/native"
	"github.com/TheCacophonyProject/edge-viewer/native/opencv"
	"github.com/TheCacophonyProject/edge-viewer/output"
	"github.com/TheCacophonyProject/edge-viewer/source"
	"github.com/TheCacophonyProject/edge-viewer/throttle"
)

var version = "<not set>"

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	ConfigDir  string `arg:"-d,--config-dir" help:"path to the device config directory, empty to skip"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
	Verbose    bool   `arg:"-v,--verbose" help:"Make logging more verbose"`
	Image      string `arg:"--image" help:"run edge detection on an image file and exit"`
	Out        string `arg:"--out" help:"PNG file to write the --image result to"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/edge-viewer.yaml"
	args.ConfigDir = goconfig.DefaultConfigDir
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

	if !args.Timestamps {
		log.SetFlags(0) // Removes default timestamp flag
	}

	log.Printf("running version: %s", version)
	conf, err := ParseConfigFile(args.ConfigFile, args.ConfigDir)
	if err != nil {
		return err
	}

	logConfig(conf)

	filter, closeFilter := newFilter(conf.Filter)
	defer closeFilter()

	if args.Image != "" {
		return processImage(filter, args.Image, args.Out)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := output.NewDisplay()
	go display.Run(ctx)

	snapshots := output.NewSnapshotter(conf.Output.SnapshotDir)
	snapshots.Delete()
	display.Add(snapshots)

	loop := NewFrameLoop(filter, display, conf.Filter.Enabled, newFailureEvents(nil, queueDbusEvent))
	loop.device = conf.DeviceName
	loop.verbose = args.Verbose

	throttleLog := &throttleLogger{log: loglimiter.New(minLogInterval)}

	if conf.Output.HTTPAddress != "" {
		var label func() string
		if conf.Output.OverlayFPS {
			label = display.Label
		}
		preview := output.NewMJPEGServer(label, loop.Status)
		display.Add(throttle.NewThrottledSink(preview, conf.Output.MaxPreviewFPS, throttleLog))
		go func() {
			if err := preview.ListenAndServe(ctx, conf.Output.HTTPAddress); err != nil {
				log.Printf("preview server stopped: %v", err)
			}
		}()
	}

	if conf.Output.RTPAddress != "" {
		sender, err := output.NewRTPSender(conf.Output.RTPAddress)
		if err != nil {
			return err
		}
		defer sender.Close()
		display.Add(throttle.NewThrottledSink(sender, conf.Output.RTPMaxFPS, throttleLog))
	}

	log.Println("starting d-bus service")
	if err := startService(loop, snapshots); err != nil {
		return err
	}

	daemon.SdNotify(false, daemon.SdNotifyReady)

	err = runSource(ctx, conf, loop)
	if errors.Is(err, context.Canceled) {
		log.Print("stopping")
		return nil
	}
	return err
}

func runSource(ctx context.Context, conf *Config, loop *FrameLoop) error {
	switch conf.Source {
	case sourceCamera:
		camera, err := source.OpenCamera(conf.Camera)
		if err != nil {
			return err
		}
		defer camera.Close()
		log.Printf("camera opened at %dx%d, %d fps", camera.Width(), camera.Height(), camera.FPS())
		return loop.Run(ctx, camera)
	case sourcePattern:
		pattern := source.NewPattern(conf.Camera.Width, conf.Camera.Height, conf.Camera.FPS)
		defer pattern.Close()
		return loop.Run(ctx, pattern)
	}
	return listenForFrames(ctx, conf.FrameInput, loop)
}

// listenForFrames accepts one camera service connection at a time on a
// unix socket and processes its frames.
func listenForFrames(ctx context.Context, path string, loop *FrameLoop) error {
	for {
		// Set up listener for frames sent by the camera service.
		os.Remove(path)
		listener, err := net.Listen("unix", path)
		if err != nil {
			return err
		}
		log.Print("waiting for camera connection")

		stopAccept := context.AfterFunc(ctx, func() { listener.Close() })
		conn, err := listener.Accept()
		stopAccept()

		// Prevent concurrent connections.
		listener.Close()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("socket accept failed: %v", err)
			continue
		}

		err = handleConn(ctx, conn, loop)
		log.Printf("camera connection ended with: %v", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func handleConn(ctx context.Context, conn net.Conn, loop *FrameLoop) error {
	stopRead := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopRead()

	stream, err := source.NewStream(conn)
	if err != nil {
		conn.Close()
		return err
	}
	defer stream.Close()

	header := stream.Header()
	log.Printf("new camera connection: %s %s %dx%d at %d fps, reading frames",
		header.Brand(), header.Model(), header.Width(), header.Height(), header.FPS())
	return loop.Run(ctx, stream)
}

func newFilter(conf FilterConfig) (native.Filter, func() error) {
	if conf.Backend == backendGo {
		return native.NewGoFilter(conf.LowThreshold, conf.HighThreshold, conf.BlurSigma), func() error { return nil }
	}
	filter := opencv.NewFilter(conf.LowThreshold, conf.HighThreshold)
	return filter, filter.Close
}

// throttleLogger notes when an output can not keep up with the camera.
type throttleLogger struct {
	log *loglimiter.LogLimiter
}

func (t *throttleLogger) WhenThrottled() {
	t.log.Print("output throttled, dropping frames")
}

func logConfig(conf *Config) {
	if conf.DeviceName != "" {
		log.Printf("device name: %s", conf.DeviceName)
	}
	log.Printf("source: %s", conf.Source)
	if conf.Source == sourceSocket {
		log.Printf("frame input: %s", conf.FrameInput)
	} else {
		log.Printf("camera: %+v", conf.Camera)
	}
	log.Printf("filter: %+v", conf.Filter)
	log.Printf("output: %+v", conf.Output)
}
