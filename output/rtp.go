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

package output

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"math/rand"
	"net"
	"time"

	"github.com/pion/rtp"

	"github.com/TheCacophonyProject/edge-viewer/frame"
)

const (
	rtpVersion     = 2
	rtpPayloadType = 96
	rtpClockRate   = 90000
	// DefaultRTPPayload keeps packets under a typical 1500 byte MTU.
	DefaultRTPPayload = 1200
)

// RTPSender sends each frame as a JPEG split over RTP packets. The last
// packet of a frame has the marker bit set and every packet of a frame
// carries the same timestamp.
type RTPSender struct {
	conn       net.Conn
	maxPayload int
	ssrc       uint32
	seq        uint16
	start      time.Time
	nowFunc    func() time.Time
	buf        bytes.Buffer
}

// NewRTPSender sends to the UDP address addr.
func NewRTPSender(addr string) (*RTPSender, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return newRTPSender(conn, DefaultRTPPayload), nil
}

func newRTPSender(conn net.Conn, maxPayload int) *RTPSender {
	return &RTPSender{
		conn:       conn,
		maxPayload: maxPayload,
		ssrc:       rand.Uint32(),
		seq:        uint16(rand.Uint32()),
		start:      time.Now(),
		nowFunc:    time.Now,
	}
}

func (s *RTPSender) Present(f *frame.Frame) error {
	img, err := f.RGBA()
	if err != nil {
		return err
	}
	s.buf.Reset()
	if err := jpeg.Encode(&s.buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encoding jpeg: %w", err)
	}

	elapsed := s.nowFunc().Sub(s.start)
	timestamp := uint32(elapsed.Milliseconds() * (rtpClockRate / 1000))

	data := s.buf.Bytes()
	for offset := 0; offset < len(data); offset += s.maxPayload {
		end := min(offset+s.maxPayload, len(data))
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        rtpVersion,
				PayloadType:    rtpPayloadType,
				SequenceNumber: s.seq,
				Timestamp:      timestamp,
				SSRC:           s.ssrc,
				Marker:         end == len(data),
			},
			Payload: data[offset:end],
		}
		s.seq++
		raw, err := pkt.Marshal()
		if err != nil {
			return fmt.Errorf("error marshaling RTP packet: %w", err)
		}
		if _, err := s.conn.Write(raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *RTPSender) Close() error {
	return s.conn.Close()
}
