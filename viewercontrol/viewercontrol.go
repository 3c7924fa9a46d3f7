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

// Package viewercontrol is a client for the edge-viewer D-Bus service.
package viewercontrol

import "github.com/godbus/dbus"

const (
	dbusPath   = "/org/cacophony/edgeviewer"
	dbusDest   = "org.cacophony.edgeviewer"
	methodBase = "org.cacophony.edgeviewer"
)

type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Client calls methods on a running edge-viewer.
type Client struct {
	obj caller
}

// New connects to the system bus.
func New() (*Client, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	return &Client{obj: conn.Object(dbusDest, dbusPath)}, nil
}

// ToggleEdgeDetection flips between the edge and camera views and returns
// whether edges are now shown.
func (c *Client) ToggleEdgeDetection() (bool, error) {
	var enabled bool
	err := c.obj.Call(methodBase+".ToggleEdgeDetection", 0).Store(&enabled)
	return enabled, err
}

func (c *Client) SetEdgeDetection(enabled bool) error {
	return c.obj.Call(methodBase+".SetEdgeDetection", 0, enabled).Store()
}

func (c *Client) EdgeDetectionEnabled() (bool, error) {
	var enabled bool
	err := c.obj.Call(methodBase+".EdgeDetectionEnabled", 0).Store(&enabled)
	return enabled, err
}

func (c *Client) FPS() (float64, error) {
	var fps float64
	err := c.obj.Call(methodBase+".FPS", 0).Store(&fps)
	return fps, err
}

// TakeSnapshot blocks until the next frame has been saved as a still.
func (c *Client) TakeSnapshot() error {
	return c.obj.Call(methodBase+".TakeSnapshot", 0).Store()
}
