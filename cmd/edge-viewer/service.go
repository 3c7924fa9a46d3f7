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
	"time"

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"

	"github.com/TheCacophonyProject/edge-viewer/output"
)

const (
	dbusName = "org.cacophony.edgeviewer"
	dbusPath = "/org/cacophony/edgeviewer"

	snapshotWait = 5 * time.Second
)

type service struct {
	loop      *FrameLoop
	snapshots *output.Snapshotter
}

func startService(loop *FrameLoop, snapshots *output.Snapshotter) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("name already taken")
	}

	s := &service{
		loop:      loop,
		snapshots: snapshots,
	}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")

	return nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// ToggleEdgeDetection switches between edge and camera view and returns
// whether edges are now shown.
func (s *service) ToggleEdgeDetection() (bool, *dbus.Error) {
	return s.loop.ToggleFilter(), nil
}

func (s *service) SetEdgeDetection(enabled bool) *dbus.Error {
	s.loop.SetFilterEnabled(enabled)
	return nil
}

func (s *service) EdgeDetectionEnabled() (bool, *dbus.Error) {
	return s.loop.FilterEnabled(), nil
}

// FPS returns the frame rate measured over the last second.
func (s *service) FPS() (float64, *dbus.Error) {
	return s.loop.FPS(), nil
}

// TakeSnapshot will save the next frame as a still
func (s *service) TakeSnapshot() *dbus.Error {
	select {
	case err := <-s.snapshots.Request():
		if err != nil {
			return makeDbusError("TakeSnapshot", err)
		}
	case <-time.After(snapshotWait):
		return makeDbusError("TakeSnapshot", errors.New("no frames yet"))
	}
	return nil
}

func makeDbusError(name string, err error) *dbus.Error {
	return &dbus.Error{
		Name: dbusName + "." + name,
		Body: []interface{}{err.Error()},
	}
}
