/*
DESCRIPTION
  track.go provides the Trackpoint and segment break model for recorded
  tracks, and projection of tracks onto a calibrated map image.

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

// Package track holds recorded GPS tracks and projects them onto calibrated
// map images. Tracks are read from GPX files or NMEA sentences, or recorded
// live, and are made up of trackpoints separated by segment breaks wherever
// tracking was interrupted.
package track

import (
	"fmt"
	"image"
	"time"

	"github.com/ausocean/mapimage/calibration"
)

// Trackpoint is a single GPS fix.
type Trackpoint struct {
	Lat, Lon float64
	Alt      float64 // Metres.
	Time     time.Time
}

// Millis returns the time of the fix in Unix milliseconds.
func (tp Trackpoint) Millis() int64 {
	return tp.Time.UnixMilli()
}

// Entry is either a Trackpoint or a segment break. A break marks a gap in
// tracking; no line should be drawn across it.
type Entry struct {
	tp  Trackpoint
	brk bool
}

// Point returns an Entry holding tp.
func Point(tp Trackpoint) Entry { return Entry{tp: tp} }

// Break returns a segment break Entry.
func Break() Entry { return Entry{brk: true} }

// IsBreak reports whether e is a segment break.
func (e Entry) IsBreak() bool { return e.brk }

// Trackpoint returns the point held by e. ok is false for a break.
func (e Entry) Trackpoint() (tp Trackpoint, ok bool) {
	return e.tp, !e.brk
}

func (e Entry) String() string {
	if e.brk {
		return "break"
	}
	return fmt.Sprintf("(%.6f, %.6f)", e.tp.Lat, e.tp.Lon)
}

// Pixel is either an image pixel or a segment break.
type Pixel struct {
	pt  image.Point
	brk bool
}

// PixelAt returns a Pixel at (x, y).
func PixelAt(x, y int) Pixel { return Pixel{pt: image.Pt(x, y)} }

// PixelBreak returns a segment break Pixel.
func PixelBreak() Pixel { return Pixel{brk: true} }

// IsBreak reports whether p is a segment break.
func (p Pixel) IsBreak() bool { return p.brk }

// Point returns the image point of p. ok is false for a break.
func (p Pixel) Point() (pt image.Point, ok bool) {
	return p.pt, !p.brk
}

func (p Pixel) String() string {
	if p.brk {
		return "break"
	}
	return p.pt.String()
}

// Project maps each trackpoint in entries to a pixel using t. Breaks are kept
// in place. A point that cannot be unprojected becomes a break so that no line
// is drawn through it. ok is false if t is degenerate, in which case there is
// nothing to draw.
func Project(t calibration.Transform, entries []Entry) (pixels []Pixel, ok bool) {
	if t.Degenerate() {
		return nil, false
	}
	pixels = make([]Pixel, len(entries))
	for i, e := range entries {
		tp, ok := e.Trackpoint()
		if !ok {
			pixels[i] = PixelBreak()
			continue
		}
		x, y, ok := t.Unproject(tp.Lon, tp.Lat)
		if !ok {
			pixels[i] = PixelBreak()
			continue
		}
		pixels[i] = PixelAt(x, y)
	}
	return pixels, true
}

// ProjectCalibrated is like Project but uses the transform of c. ok is false
// if c is not calibrated.
func ProjectCalibrated(c *calibration.Calibration, entries []Entry) (pixels []Pixel, ok bool) {
	t, ok := c.Transform()
	if !ok {
		return nil, false
	}
	return Project(t, entries)
}

// Strips splits pixels at breaks into runs of connected points. Empty runs
// are dropped.
func Strips(pixels []Pixel) [][]image.Point {
	var (
		strips [][]image.Point
		cur    []image.Point
	)
	for _, p := range pixels {
		pt, ok := p.Point()
		if !ok {
			if len(cur) != 0 {
				strips = append(strips, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, pt)
	}
	if len(cur) != 0 {
		strips = append(strips, cur)
	}
	return strips
}
