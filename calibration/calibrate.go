/*
DESCRIPTION
  calibrate.go provides the calibration session type (Calibration) that holds
  the control points read for one map image and the Transform fitted to them,
  and the Current type used to publish the session for the image in view.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  It is free software: you can redistribute it and/or modify them
  under the terms of the GNU General Public License as published by the
  Free Software Foundation, either version 3 of the License, or (at your
  option) any later version.

  It is distributed in the hope that it will be useful, but WITHOUT
  ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
  FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License
  for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses.
*/

// Package calibration relates pixels in a map image to longitude and latitude.
// Control points are read from a calibration file, an affine Transform is
// fitted to them by least squares, and the Transform and its inverse are used
// to convert between the two spaces.
package calibration

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// Calibration errors.
var (
	ErrParse              = errors.New("malformed calibration")
	ErrInsufficientPoints = errors.New("need at least three points")
	ErrFit                = errors.New("could not fit calibration transform")
	ErrSessionUsed        = errors.New("calibration has already been read")
	ErrNotCalibrated      = errors.New("not calibrated")
)

// State is the state of a Calibration.
type State int

// Calibration states. Uncalibrated is terminal.
const (
	Empty State = iota
	Parsing
	Calibrated
	Uncalibrated
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Parsing:
		return "parsing"
	case Calibrated:
		return "calibrated"
	case Uncalibrated:
		return "uncalibrated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Calibration holds the control points and fitted Transform for one image.
// Read must complete before a Calibration is shared; after that it is never
// modified and may be used from any number of goroutines.
type Calibration struct {
	state     State
	points    []ControlPoint
	transform Transform
	err       error
}

// New returns an empty Calibration.
func New() *Calibration {
	return &Calibration{}
}

// ReadFile returns a Calibration read from the file at path. The returned
// Calibration is never nil; if err is not nil it is Uncalibrated.
func ReadFile(path string) (*Calibration, error) {
	c := New()
	f, err := os.Open(path)
	if err != nil {
		c.fail(nil, fmt.Errorf("could not open calibration file: %w", err))
		return c, c.err
	}
	defer f.Close()
	return c, c.Read(f)
}

// Read parses control points from r and fits the Transform. A parse error
// leaves the Calibration with no points; too few points or a failed fit keep
// the points but leave it without a Transform. In every failure case the
// Calibration becomes Uncalibrated and the error is returned.
func (c *Calibration) Read(r io.Reader) error {
	if c.state != Empty {
		return ErrSessionUsed
	}
	c.state = Parsing

	points, err := ParseControlPoints(r)
	if err != nil {
		c.fail(nil, err)
		return err
	}

	t, err := Fit(points)
	if err != nil {
		c.fail(points, err)
		return err
	}
	c.points = points
	c.transform = t
	c.state = Calibrated
	return nil
}

func (c *Calibration) fail(points []ControlPoint, err error) {
	c.points = points
	c.transform = Transform{}
	c.err = err
	c.state = Uncalibrated
}

// State returns the state of the calibration.
func (c *Calibration) State() State { return c.state }

// Err returns the reason the calibration is Uncalibrated, or nil.
func (c *Calibration) Err() error { return c.err }

// Transform returns the fitted transform. ok is false if there is none.
func (c *Calibration) Transform() (t Transform, ok bool) {
	if c == nil || c.state != Calibrated {
		return Transform{}, false
	}
	return c.transform, true
}

// ControlPoints returns a copy of the control points read.
func (c *Calibration) ControlPoints() []ControlPoint {
	if c == nil || c.points == nil {
		return nil
	}
	return append([]ControlPoint(nil), c.points...)
}

// Unproject returns the pixel for lon and lat. ok is false if the calibration
// has no transform or the transform is degenerate.
func (c *Calibration) Unproject(lon, lat float64) (x, y int, ok bool) {
	t, ok := c.Transform()
	if !ok {
		return 0, 0, false
	}
	return t.Unproject(lon, lat)
}

// Current holds the calibration for the image currently in view. It is
// replaced as a whole when a new image is opened, so readers always see the
// points and transform of a single image.
type Current struct {
	p atomic.Pointer[Calibration]
}

// Load returns the current calibration, or nil.
func (c *Current) Load() *Calibration { return c.p.Load() }

// Store makes cal the current calibration.
func (c *Current) Store(cal *Calibration) { c.p.Store(cal) }

// Swap makes cal the current calibration and returns the previous one.
func (c *Current) Swap(cal *Calibration) *Calibration { return c.p.Swap(cal) }
