/*
DESCRIPTION
  utils.go provides residual statistics for a fitted calibration and plotting
  of control points against their fitted positions.

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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Residual is the difference, in degrees, between a control point's
// coordinates and those the transform gives for its pixel.
type Residual struct {
	Point      ControlPoint
	DLon, DLat float64
}

// Distance returns the magnitude of the residual in degrees.
func (r Residual) Distance() float64 {
	return math.Hypot(r.DLon, r.DLat)
}

// Stats summarises residual distances.
type Stats struct {
	Mean, StdDev, Max float64
}

// Residuals returns the residual of each point under t.
func Residuals(points []ControlPoint, t Transform) []Residual {
	res := make([]Residual, len(points))
	for i, p := range points {
		lon, lat := t.Project(p.X, p.Y)
		res[i] = Residual{Point: p, DLon: p.Lon - lon, DLat: p.Lat - lat}
	}
	return res
}

// Summarize returns statistics of the residual distances. The standard
// deviation is zero for fewer than two residuals.
func Summarize(res []Residual) Stats {
	if len(res) == 0 {
		return Stats{}
	}
	d := make([]float64, len(res))
	for i, r := range res {
		d[i] = r.Distance()
	}
	s := Stats{Mean: stat.Mean(d, nil), Max: floats.Max(d)}
	if len(d) > 1 {
		s.StdDev = stat.StdDev(d, nil)
	}
	return s
}

// PlotResiduals plots the control points of c and the positions the fitted
// transform gives for them in longitude/latitude space, saving a PNG to path.
func PlotResiduals(c *Calibration, path string) error {
	t, ok := c.Transform()
	if !ok {
		return ErrNotCalibrated
	}

	measured := make(plotter.XYs, len(c.points))
	fitted := make(plotter.XYs, len(c.points))
	for i, p := range c.points {
		measured[i].X, measured[i].Y = p.Lon, p.Lat
		fitted[i].X, fitted[i].Y = t.Project(p.X, p.Y)
	}

	p := plot.New()
	p.Title.Text = "Calibration Residuals"
	p.X.Label.Text = "Longitude (deg)"
	p.Y.Label.Text = "Latitude (deg)"

	err := plotutil.AddScatters(p, "control", measured, "fitted", fitted)
	if err != nil {
		return fmt.Errorf("could not draw plot contents: %w", err)
	}
	if err := p.Save(15*vg.Centimeter, 15*vg.Centimeter, path); err != nil {
		return fmt.Errorf("could not save plot: %w", err)
	}
	return nil
}
