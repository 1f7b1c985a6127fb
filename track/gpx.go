/*
DESCRIPTION
  gpx.go loads recorded tracks from GPX files.

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

package track

import (
	"fmt"
	"io"

	"github.com/tkrajina/gpxgo/gpx"
)

// LoadGPX reads the tracks of the GPX file at path.
func LoadGPX(path string) ([]Entry, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not parse GPX file: %w", err)
	}
	return fromGPX(g), nil
}

// ReadGPX reads the tracks of a GPX document from r.
func ReadGPX(r io.Reader) ([]Entry, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read GPX: %w", err)
	}
	g, err := gpx.ParseBytes(b)
	if err != nil {
		return nil, fmt.Errorf("could not parse GPX: %w", err)
	}
	return fromGPX(g), nil
}

// fromGPX flattens all track segments into one sequence, with a break
// between consecutive non-empty segments.
func fromGPX(g *gpx.GPX) []Entry {
	var entries []Entry
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			if len(seg.Points) == 0 {
				continue
			}
			if len(entries) != 0 {
				entries = append(entries, Break())
			}
			for _, p := range seg.Points {
				tp := Trackpoint{Lat: p.Latitude, Lon: p.Longitude, Time: p.Timestamp}
				if p.Elevation.NotNull() {
					tp.Alt = p.Elevation.Value()
				}
				entries = append(entries, Point(tp))
			}
		}
	}
	return entries
}
