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
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHeaderInfo(t *testing.T) {
	input := "width: 640\nheight: 480\nchannels: 4\nfps: 30\nbrand: Logitech\nmodel: C920\n\nFRAMEDATA"
	reader := bufio.NewReader(strings.NewReader(input))

	h, err := ReadHeaderInfo(reader)
	require.NoError(t, err)
	assert.Equal(t, 640, h.Width())
	assert.Equal(t, 480, h.Height())
	assert.Equal(t, 4, h.Channels())
	assert.Equal(t, 30, h.FPS())
	assert.Equal(t, 640*480*4, h.FrameSize())
	assert.Equal(t, "Logitech", h.Brand())
	assert.Equal(t, "C920", h.Model())
	assert.NoError(t, h.Validate())

	// The reader is left at the first frame.
	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "FRAMEDATA", string(rest))
}

func TestWriteThenRead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHeaderInfo(&buf, New(8, 6, 4, 15, "brand", "model")))

	h, err := ReadHeaderInfo(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, New(8, 6, 4, 15, "brand", "model"), h)
	assert.Equal(t, 0, buf.Len())
}

func TestTruncatedHeader(t *testing.T) {
	_, err := ReadHeaderInfo(bufio.NewReader(strings.NewReader("width: 640\n")))
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestValidate(t *testing.T) {
	assert.Error(t, New(0, 480, 4, 30, "", "").Validate())
	assert.Error(t, New(640, 480, 0, 30, "", "").Validate())

	h := New(2, 2, 4, 30, "", "")
	h.framesize = 15
	assert.Error(t, h.Validate())
}

func TestMissingFieldsAreZero(t *testing.T) {
	h, err := ReadHeaderInfo(bufio.NewReader(strings.NewReader("fps: nine\n\n")))
	require.NoError(t, err)
	assert.Equal(t, 0, h.FPS())
	assert.Equal(t, "", h.Brand())
	assert.Error(t, h.Validate())
}
