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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"log"
	"net/http"
	"sync"
	"time"

	"goji.io"
	"goji.io/pat"

	"github.com/TheCacophonyProject/edge-viewer/frame"
)

const (
	boundary        = "edgeviewerframe"
	jpegQuality     = 80
	snapshotTimeout = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// MJPEGServer serves presented frames over HTTP as a multipart JPEG
// stream. Frames are only encoded while someone is watching.
type MJPEGServer struct {
	label  func() string
	status func() interface{}
	mux    *goji.Mux

	mu      sync.Mutex
	clients map[chan []byte]struct{}

	scratch *frame.Frame
	buf     bytes.Buffer
}

// NewMJPEGServer creates a server. label, when not nil, supplies text
// drawn over each frame. status, when not nil, supplies the body of
// GET /status.
func NewMJPEGServer(label func() string, status func() interface{}) *MJPEGServer {
	s := &MJPEGServer{
		label:   label,
		status:  status,
		clients: make(map[chan []byte]struct{}),
	}
	mux := goji.NewMux()
	mux.HandleFunc(pat.Get("/stream.mjpg"), s.serveStream)
	mux.HandleFunc(pat.Get("/snapshot.jpg"), s.serveSnapshot)
	mux.HandleFunc(pat.Get("/status"), s.serveStatus)
	s.mux = mux
	return s
}

func (s *MJPEGServer) Handler() http.Handler {
	return s.mux
}

// Clients returns the number of connected viewers.
func (s *MJPEGServer) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Present encodes f for every connected viewer. Viewers that have not
// taken the previous frame miss this one.
func (s *MJPEGServer) Present(f *frame.Frame) error {
	if s.Clients() == 0 {
		return nil
	}
	data, err := s.encode(f)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c <- data:
		default:
		}
	}
	return nil
}

func (s *MJPEGServer) encode(f *frame.Frame) ([]byte, error) {
	if !f.SameShape(s.scratch) {
		s.scratch = f.CreateCopy()
	} else if err := s.scratch.Copy(f); err != nil {
		return nil, err
	}
	img, err := s.scratch.RGBA()
	if err != nil {
		return nil, err
	}
	if s.label != nil {
		drawLabel(img, s.label())
	}
	s.buf.Reset()
	if err := jpeg.Encode(&s.buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return append([]byte(nil), s.buf.Bytes()...), nil
}

func (s *MJPEGServer) subscribe() chan []byte {
	c := make(chan []byte, 1)
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	return c
}

func (s *MJPEGServer) unsubscribe(c chan []byte) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

func (s *MJPEGServer) serveStream(w http.ResponseWriter, r *http.Request) {
	c := s.subscribe()
	defer s.unsubscribe(c)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-c:
			_, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(data))
			if err == nil {
				_, err = w.Write(data)
			}
			if err == nil {
				_, err = w.Write([]byte("\r\n"))
			}
			if err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func (s *MJPEGServer) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	c := s.subscribe()
	defer s.unsubscribe(c)

	ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
	defer cancel()
	select {
	case <-ctx.Done():
		http.Error(w, "no frames available", http.StatusServiceUnavailable)
	case data := <-c:
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.Write(data)
	}
}

func (s *MJPEGServer) serveStatus(w http.ResponseWriter, r *http.Request) {
	var body interface{} = struct{}{}
	if s.status != nil {
		body = s.status()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("error writing status: %v", err)
	}
}

// ListenAndServe serves on addr until ctx is done.
func (s *MJPEGServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	log.Printf("serving preview on http://%s/stream.mjpg", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
