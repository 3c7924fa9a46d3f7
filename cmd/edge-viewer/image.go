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
	"image"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/handoff"
	"github.com/TheCacophonyProject/edge-viewer/native"
)

// processImage runs the filter over a single image file and writes the
// edges to out as a PNG.
func processImage(filter native.Filter, in, out string) error {
	if out == "" {
		return errors.New("--out is required with --image")
	}
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decoding %s: %w", in, err)
	}

	input := frame.FromImage(img)
	result, err := handoff.HandleFrame(filter, input, true, frame.NewRGBA(input.Width, input.Height))
	if err != nil {
		return err
	}

	w, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(w, result.Image()); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
