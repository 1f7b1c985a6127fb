/*
DESCRIPTION
  parse.go reads control points from a calibration file. Each data line holds
  a pixel x, pixel y, longitude and latitude separated by whitespace. Lines
  starting with # and blank lines are ignored.

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
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ControlPoint relates a pixel in the untransformed image to a longitude and
// latitude.
type ControlPoint struct {
	X, Y     int
	Lon, Lat float64
}

// ParseError describes a calibration line that could not be parsed.
type ParseError struct {
	Line int    // 1-based line number.
	Text string // The offending line.
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("calibration line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is match any *ParseError against ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

const fieldsPerLine = 4

var errFieldCount = errors.New("expected 4 fields: x y lon lat")

// ParseControlPoints reads control points from r in file order. If any line
// is malformed, including lines longer than bufio.MaxScanTokenSize, a
// *ParseError is returned and no points are returned.
func ParseControlPoints(r io.Reader) ([]ControlPoint, error) {
	var points []ControlPoint
	s := bufio.NewScanner(r)
	n := 0
	for s.Scan() {
		n++
		fields := strings.Fields(s.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		p, err := parseFields(fields)
		if err != nil {
			return nil, &ParseError{Line: n, Text: s.Text(), Err: err}
		}
		points = append(points, p)
	}
	if err := s.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Line: n + 1, Err: err}
		}
		return nil, fmt.Errorf("could not read calibration: %w", err)
	}
	return points, nil
}

func parseFields(fields []string) (ControlPoint, error) {
	if len(fields) != fieldsPerLine {
		return ControlPoint{}, errFieldCount
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return ControlPoint{}, fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return ControlPoint{}, fmt.Errorf("invalid y: %w", err)
	}
	lon, err := parseCoord(fields[2])
	if err != nil {
		return ControlPoint{}, fmt.Errorf("invalid longitude: %w", err)
	}
	lat, err := parseCoord(fields[3])
	if err != nil {
		return ControlPoint{}, fmt.Errorf("invalid latitude: %w", err)
	}
	return ControlPoint{X: x, Y: y, Lon: lon, Lat: lat}, nil
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s is not finite", s)
	}
	return v, nil
}
