/*
DESCRIPTION
  fit.go provides least squares fitting of an affine Transform to a set of
  control points using the pseudo-inverse from a singular value decomposition.

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

	"gonum.org/v1/gonum/mat"
)

const (
	minPoints = 3
	nCoeffs   = 6

	// rcond is the smallest singular value, relative to the largest, that is
	// treated as non-zero.
	rcond = 1e-10
)

// Fit computes the affine Transform that best maps the pixel coordinates of
// points to their longitudes and latitudes in the least squares sense. At
// least three points are required. Three points give an exact solution, more
// give a least squares fit.
//
// ErrInsufficientPoints is returned for fewer than three points, and ErrFit
// if the design matrix is singular, e.g. when points share a pixel.
func Fit(points []ControlPoint) (Transform, error) {
	if len(points) < minPoints {
		return Transform{}, fmt.Errorf("%w: got %d", ErrInsufficientPoints, len(points))
	}

	a, b := design(points)

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return Transform{}, fmt.Errorf("%w: singular value decomposition did not converge", ErrFit)
	}

	// Values are in decreasing order, so the first is the largest.
	s := svd.Values(nil)
	tol := s[0] * rcond
	inv := make([]float64, len(s))
	for i, v := range s {
		if v <= tol {
			return Transform{}, fmt.Errorf("%w: singular value %d is %g", ErrFit, i, v)
		}
		inv[i] = 1 / v
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// A⁺ = V Σ⁻¹ Uᵀ
	var vs, pinv mat.Dense
	vs.Mul(&v, mat.NewDiagDense(len(inv), inv))
	pinv.Mul(&vs, u.T())

	var x mat.VecDense
	x.MulVec(&pinv, b)

	var c [nCoeffs]float64
	for i := range c {
		c[i] = x.AtVec(i)
		if math.IsNaN(c[i]) || math.IsInf(c[i], 0) {
			return Transform{}, fmt.Errorf("%w: coefficient %d is not finite", ErrFit, i)
		}
	}
	return NewTransform(c[0], c[1], c[2], c[3], c[4], c[5]), nil
}

// design returns the 2N×6 design matrix and the 2N target vector for points.
// Even rows fit longitude and odd rows fit latitude.
func design(points []ControlPoint) (*mat.Dense, *mat.VecDense) {
	n := 2 * len(points)
	a := mat.NewDense(n, nCoeffs, nil)
	b := mat.NewVecDense(n, nil)
	for i, p := range points {
		row := 2 * i
		a.Set(row, 0, float64(p.X))
		a.Set(row, 1, float64(p.Y))
		a.Set(row, 4, 1)
		b.SetVec(row, p.Lon)

		row++
		a.Set(row, 2, float64(p.X))
		a.Set(row, 3, float64(p.Y))
		a.Set(row, 5, 1)
		b.SetVec(row, p.Lat)
	}
	return a, b
}
