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
	"encoding/json"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/edge-viewer/frame"
)

func grayFrame(width, height int, v byte) *frame.Frame {
	f := frame.NewRGBA(width, height)
	for i := 0; i < len(f.Pix); i += 4 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3] = v, v, v, 255
	}
	return f
}

func TestPresentWithoutClientsDoesNothing(t *testing.T) {
	s := NewMJPEGServer(nil, nil)
	require.NoError(t, s.Present(grayFrame(4, 4, 0)))
	assert.Nil(t, s.scratch)
}

func TestStatus(t *testing.T) {
	s := NewMJPEGServer(nil, func() interface{} {
		return map[string]interface{}{"fps": 12.5, "edges": true}
	})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 12.5, body["fps"])
	assert.Equal(t, true, body["edges"])
}

func TestSnapshotJPEG(t *testing.T) {
	s := NewMJPEGServer(func() string { return "FPS: 30.0" }, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	type result struct {
		resp *http.Response
		err  error
	}
	results := make(chan result, 1)
	go func() {
		resp, err := http.Get(srv.URL + "/snapshot.jpg")
		results <- result{resp, err}
	}()

	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, time.Millisecond)
	presented := grayFrame(32, 24, 200)
	require.NoError(t, s.Present(presented))

	r := <-results
	require.NoError(t, r.err)
	defer r.resp.Body.Close()
	assert.Equal(t, http.StatusOK, r.resp.StatusCode)
	assert.Equal(t, "image/jpeg", r.resp.Header.Get("Content-Type"))

	img, err := jpeg.Decode(r.resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())

	// The label is drawn on a copy, never on the presented frame.
	assert.Equal(t, grayFrame(32, 24, 200).Pix, presented.Pix)
	assert.Eventually(t, func() bool { return s.Clients() == 0 }, time.Second, time.Millisecond)
}

func TestStreamSendsParts(t *testing.T) {
	s := NewMJPEGServer(nil, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stream.mjpg")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "multipart/x-mixed-replace; boundary="+boundary, resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, s.Present(grayFrame(8, 8, 10)))

	buf := make([]byte, len("--"+boundary))
	_, err = io.ReadFull(resp.Body, buf)
	require.NoError(t, err)
	assert.Equal(t, "--"+boundary, string(buf))
}
