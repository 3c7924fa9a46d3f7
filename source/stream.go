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
	"bufio"
	"fmt"
	"io"

	"github.com/TheCacophonyProject/edge-viewer/frame"
	"github.com/TheCacophonyProject/edge-viewer/headers"
)

// Stream reads frames sent by a camera service: a header describing the
// camera, then raw RGBA frames back to back.
type Stream struct {
	r      *bufio.Reader
	closer io.Closer
	header *headers.HeaderInfo
	frame  *frame.Frame
}

// NewStream reads the header from r. If r is an io.Closer it is closed
// by Close.
func NewStream(r io.Reader) (*Stream, error) {
	reader := bufio.NewReader(r)
	header, err := headers.ReadHeaderInfo(reader)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}
	if header.Channels() != frame.RGBAChannels {
		return nil, fmt.Errorf("unsupported channel count %d", header.Channels())
	}
	s := &Stream{
		r:      reader,
		header: header,
		frame:  frame.NewRGBA(header.Width(), header.Height()),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// Header returns the camera description sent before the first frame.
func (s *Stream) Header() *headers.HeaderInfo {
	return s.header
}

// Next reads the next frame. io.EOF is returned when the camera service
// hangs up between frames.
func (s *Stream) Next() (*frame.Frame, error) {
	if _, err := io.ReadFull(s.r, s.frame.Pix); err != nil {
		return nil, err
	}
	return s.frame, nil
}

func (s *Stream) Width() int {
	return s.header.Width()
}

func (s *Stream) Height() int {
	return s.header.Height()
}

func (s *Stream) FPS() int {
	return s.header.FPS()
}

func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Writer sends frames in the format read by Stream.
type Writer struct {
	w      io.Writer
	header *headers.HeaderInfo
}

// NewWriter writes the header to w.
func NewWriter(w io.Writer, header *headers.HeaderInfo) (*Writer, error) {
	if err := header.Validate(); err != nil {
		return nil, err
	}
	if err := headers.WriteHeaderInfo(w, header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &Writer{w: w, header: header}, nil
}

// WriteFrame sends f, which must match the header.
func (w *Writer) WriteFrame(f *frame.Frame) error {
	if f.Empty() || f.Width != w.header.Width() || f.Height != w.header.Height() || f.Channels != w.header.Channels() {
		return fmt.Errorf("%w: %s frame for %dx%dx%d stream",
			frame.ErrSizeMismatch, f, w.header.Width(), w.header.Height(), w.header.Channels())
	}
	_, err := w.w.Write(f.Pix[:f.Size()])
	return err
}
