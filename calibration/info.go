/*
DESCRIPTION
  info.go writes human readable summaries of a calibration and of where a
  location falls on the calibrated image.

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

package calibration

import (
	"bufio"
	"fmt"
	"io"
)

// Info writes whether c is calibrated and, if so, its control points.
func (c *Calibration) Info(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, ok := c.Transform(); !ok {
		fmt.Fprintln(bw, "Not calibrated")
		return bw.Flush()
	}
	fmt.Fprintln(bw, "Calibrated")
	for _, p := range c.points {
		fmt.Fprintf(bw, "  %04d   %04d  %11.6f %11.6f\n", p.X, p.Y, p.Lon, p.Lat)
	}
	return bw.Flush()
}

// LocationInfo writes the location, its accuracy in metres and, if c can
// resolve it, the pixel it falls on within an image of width by height.
func (c *Calibration) LocationInfo(w io.Writer, lon, lat, accuracy float64, width, height int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Location %.6f, %.6f +/- %.2f m", lon, lat, accuracy)
	x, y, ok := c.Unproject(lon, lat)
	if !ok {
		fmt.Fprint(bw, "\n    Error getting location image coordinates\n")
		return bw.Flush()
	}
	fmt.Fprintf(bw, " @ (%d, %d)\n", x, y)
	if !InBounds(x, y, width, height) {
		fmt.Fprintln(bw, "Not within the image")
	}
	return bw.Flush()
}
