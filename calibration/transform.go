/*
DESCRIPTION
  transform.go provides the affine Transform that maps image pixel coordinates
  to longitude and latitude, along with its inverse.

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
	"fmt"
	"math"
)

// Transform is an affine mapping from pixel coordinates to geographic
// coordinates:
//
//	lon = a*x + b*y + e
//	lat = c*x + d*y + f
//
// A Transform is a value; once made its coefficients never change.
type Transform struct {
	a, b, c, d, e, f float64
}

// NewTransform returns the Transform with the given coefficients.
func NewTransform(a, b, c, d, e, f float64) Transform {
	return Transform{a: a, b: b, c: c, d: d, e: e, f: f}
}

func (t Transform) A() float64 { return t.a }
func (t Transform) B() float64 { return t.b }
func (t Transform) C() float64 { return t.c }
func (t Transform) D() float64 { return t.d }
func (t Transform) E() float64 { return t.e }
func (t Transform) F() float64 { return t.f }

// Coefficients returns a, b, c, d, e and f in that order.
func (t Transform) Coefficients() [6]float64 {
	return [6]float64{t.a, t.b, t.c, t.d, t.e, t.f}
}

// Det returns the determinant of the linear part of the transform.
func (t Transform) Det() float64 {
	return t.a*t.d - t.b*t.c
}

// Degenerate reports whether the transform has no inverse.
func (t Transform) Degenerate() bool {
	return t.Det() == 0
}

// Project maps the pixel (x, y) to longitude and latitude.
func (t Transform) Project(x, y int) (lon, lat float64) {
	fx, fy := float64(x), float64(y)
	return t.a*fx + t.b*fy + t.e, t.c*fx + t.d*fy + t.f
}

// Unproject returns the pixel corresponding to the given longitude and
// latitude. ok is false if the transform is degenerate or the result cannot be
// represented as a pixel. The result is not checked against any image extent.
//
// Each coordinate is rounded by adding 0.5 and truncating toward zero, so
// negative values round toward zero (-0.5 becomes 0, not -1).
func (t Transform) Unproject(lon, lat float64) (x, y int, ok bool) {
	det := t.Det()
	if det == 0 {
		return 0, 0, false
	}
	v1 := (t.d*(lon-t.e) - t.b*(lat-t.f)) / det
	v2 := (t.a*(lat-t.f) - t.c*(lon-t.e)) / det
	x, ok = truncate(v1 + .5)
	if !ok {
		return 0, 0, false
	}
	y, ok = truncate(v2 + .5)
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}

// truncate converts v to an int, truncating toward zero. Values that are not
// finite or do not fit in an int32 are rejected.
func truncate(v float64) (int, bool) {
	if math.IsNaN(v) || v >= math.MaxInt32 || v <= math.MinInt32 {
		return 0, false
	}
	return int(v), true
}

func (t Transform) String() string {
	return fmt.Sprintf("a=%.3g b=%.3g c=%.3g d=%.3g e=%.3g f=%.3g", t.a, t.b, t.c, t.d, t.e, t.f)
}

// Project maps the pixel (x, y) to longitude and latitude using t.
func Project(t Transform, x, y int) (lon, lat float64) {
	return t.Project(x, y)
}

// Unproject maps lon and lat to a pixel using t. See Transform.Unproject.
func Unproject(t Transform, lon, lat float64) (x, y int, ok bool) {
	return t.Unproject(lon, lat)
}

// InBounds reports whether the pixel (x, y) lies within an image of the given
// width and height.
func InBounds(x, y, width, height int) bool {
	return x >= 0 && x < width && y >= 0 && y < height
}
