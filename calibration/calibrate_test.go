/*
DESCRIPTION
  calibrate_test.go provides testing for functionality in calibrate.go,
  fit.go, parse.go and transform.go.

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
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// townCalib is the calibration of a 101x101 pixel image whose axes are aligned
// with longitude and latitude.
const townCalib = `# calibration for town.jpg
0   0   -105.0 40.0
100 0   -104.9 40.0
0   100 -105.0 39.9
`

var townPoints = []ControlPoint{
	{X: 0, Y: 0, Lon: -105.0, Lat: 40.0},
	{X: 100, Y: 0, Lon: -104.9, Lat: 40.0},
	{X: 0, Y: 100, Lon: -105.0, Lat: 39.9},
}

// TestParseControlPoints checks that comments and blank lines are skipped and
// data lines are returned in file order.
func TestParseControlPoints(t *testing.T) {
	const in = `# first comment

0 0 -105.123456 40.123456
	# indented comment
1200	0   -105.000000  40.123456

0 900 -105.123456 40.000000
#0 0 1 1
+1200 900 -105 40
`
	want := []ControlPoint{
		{X: 0, Y: 0, Lon: -105.123456, Lat: 40.123456},
		{X: 1200, Y: 0, Lon: -105, Lat: 40.123456},
		{X: 0, Y: 900, Lon: -105.123456, Lat: 40},
		{X: 1200, Y: 900, Lon: -105, Lat: 40},
	}

	got, err := ParseControlPoints(strings.NewReader(in))
	if err != nil {
		t.Fatalf("could not parse control points: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("did not get expected number of points. Got: %d, Want: %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("did not get expected point %d. Got: %+v, Want: %+v", i, got[i], want[i])
		}
	}
}

// TestParseControlPointsMalformed checks that malformed lines abort parsing
// with a ParseError identifying the line.
func TestParseControlPointsMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{name: "three fields", in: "0 0 -105.0 40.0\n100 0 -104.9\n", line: 2},
		{name: "five fields", in: "0 0 -105.0 40.0 12\n", line: 1},
		{name: "float pixel", in: "0.5 0 -105.0 40.0\n", line: 1},
		{name: "non-numeric y", in: "# c\n0 y -105.0 40.0\n", line: 2},
		{name: "comma decimal", in: "0 0 -105,5 40.0\n", line: 1},
		{name: "non-finite latitude", in: "0 0 -105.0 NaN\n", line: 1},
		{name: "infinite longitude", in: "0 0 Inf 40\n", line: 1},
		{name: "overlong line", in: "0 0 -105.0 40.0\n" + strings.Repeat("9", bufio.MaxScanTokenSize+1) + "\n", line: 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseControlPoints(strings.NewReader(test.in))
			if !errors.Is(err, ErrParse) {
				t.Fatalf("did not get expected error. Got: %v, Want: %v", err, ErrParse)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error is not a *ParseError: %T", err)
			}
			if pe.Line != test.line {
				t.Errorf("did not get expected line. Got: %d, Want: %d", pe.Line, test.line)
			}
			if got != nil {
				t.Errorf("did not expect partial points, got: %v", got)
			}
		})
	}
}

// TestParseControlPointsTooLong checks that an overlong line keeps the
// scanner error as the cause.
func TestParseControlPointsTooLong(t *testing.T) {
	in := "0 0 -105.0 40.0\n# " + strings.Repeat("x", 2*bufio.MaxScanTokenSize) + "\n100 0 -104.9 40.0\n"
	_, err := ParseControlPoints(strings.NewReader(in))
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Errorf("did not get expected cause. Got: %v, Want: %v", err, bufio.ErrTooLong)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 2 {
		t.Errorf("did not get expected *ParseError for line 2. Got: %v", err)
	}
}

// TestFitTown checks the fit of a simple axis aligned calibration and that the
// centre location resolves to the centre pixel.
func TestFitTown(t *testing.T) {
	tr, err := Fit(townPoints)
	if err != nil {
		t.Fatalf("could not fit transform: %v", err)
	}

	want := [6]float64{0.001, 0, 0, -0.001, -105.0, 40.0}
	got := tr.Coefficients()
	for i := range want {
		if !scalar.EqualWithinAbs(got[i], want[i], 1e-9) {
			t.Errorf("did not get expected coefficient %d. Got: %g, Want: %g", i, got[i], want[i])
		}
	}

	x, y, ok := tr.Unproject(-104.95, 39.95)
	if !ok {
		t.Fatal("could not unproject centre location")
	}
	if x != 50 || y != 50 {
		t.Errorf("did not get expected pixel. Got: (%d, %d), Want: (50, 50)", x, y)
	}
}

// TestFitExact checks that three non-collinear points are reproduced exactly.
func TestFitExact(t *testing.T) {
	truth := NewTransform(1.2e-4, 3e-6, -2e-6, -9.5e-5, -122.41, 37.77)
	var points []ControlPoint
	for _, px := range [][2]int{{12, 40}, {1830, 95}, {640, 1211}} {
		lon, lat := truth.Project(px[0], px[1])
		points = append(points, ControlPoint{X: px[0], Y: px[1], Lon: lon, Lat: lat})
	}

	tr, err := Fit(points)
	if err != nil {
		t.Fatalf("could not fit transform: %v", err)
	}
	for i, p := range points {
		lon, lat := tr.Project(p.X, p.Y)
		if !scalar.EqualWithinRel(lon, p.Lon, 1e-9) || !scalar.EqualWithinRel(lat, p.Lat, 1e-9) {
			t.Errorf("did not reproduce point %d. Got: (%v, %v), Want: (%v, %v)", i, lon, lat, p.Lon, p.Lat)
		}
	}
}

// TestFitNoise checks that a least squares fit over noisy points recovers the
// generating transform.
func TestFitNoise(t *testing.T) {
	const (
		n     = 40
		noise = 1e-6 // Degrees.
	)
	truth := NewTransform(1e-4, 2e-6, -1.5e-6, -8e-5, -105.1, 40.2)
	rng := rand.New(rand.NewSource(1))

	points := make([]ControlPoint, n)
	for i := range points {
		x, y := rng.Intn(2000), rng.Intn(1500)
		lon, lat := truth.Project(x, y)
		points[i] = ControlPoint{
			X:   x,
			Y:   y,
			Lon: lon + noise*(2*rng.Float64()-1),
			Lat: lat + noise*(2*rng.Float64()-1),
		}
	}

	tr, err := Fit(points)
	if err != nil {
		t.Fatalf("could not fit transform: %v", err)
	}

	if !scalar.EqualWithinRel(tr.A(), truth.A(), 0.01) {
		t.Errorf("did not get expected a. Got: %g, Want: %g", tr.A(), truth.A())
	}
	if !scalar.EqualWithinRel(tr.D(), truth.D(), 0.01) {
		t.Errorf("did not get expected d. Got: %g, Want: %g", tr.D(), truth.D())
	}
	if !scalar.EqualWithinAbs(tr.B(), truth.B(), 1e-8) {
		t.Errorf("did not get expected b. Got: %g, Want: %g", tr.B(), truth.B())
	}
	if !scalar.EqualWithinAbs(tr.C(), truth.C(), 1e-8) {
		t.Errorf("did not get expected c. Got: %g, Want: %g", tr.C(), truth.C())
	}
	if !scalar.EqualWithinAbs(tr.E(), truth.E(), noise) || !scalar.EqualWithinAbs(tr.F(), truth.F(), noise) {
		t.Errorf("did not get expected offsets. Got: (%g, %g), Want: (%g, %g)", tr.E(), tr.F(), truth.E(), truth.F())
	}

	var sumSq float64
	for _, r := range Residuals(points, tr) {
		sumSq += r.DLon*r.DLon + r.DLat*r.DLat
		if math.Abs(r.DLon) > 2*noise || math.Abs(r.DLat) > 2*noise {
			t.Errorf("residual too large for point %+v: (%g, %g)", r.Point, r.DLon, r.DLat)
		}
	}
	if rms := math.Sqrt(sumSq / (2 * n)); rms > noise {
		t.Errorf("rms residual %g exceeds noise bound %g", rms, noise)
	}
}

// TestFitInsufficient checks that fewer than three points are rejected.
func TestFitInsufficient(t *testing.T) {
	for n := 0; n < 3; n++ {
		_, err := Fit(townPoints[:n])
		if !errors.Is(err, ErrInsufficientPoints) {
			t.Errorf("did not get expected error for %d points. Got: %v, Want: %v", n, err, ErrInsufficientPoints)
		}
	}
}

// TestFitSingular checks that rank deficient control points give a fit error
// rather than a transform or a panic.
func TestFitSingular(t *testing.T) {
	tests := []struct {
		name   string
		points []ControlPoint
	}{
		{
			name: "identical pixels",
			points: []ControlPoint{
				{X: 10, Y: 20, Lon: -105.0, Lat: 40.0},
				{X: 10, Y: 20, Lon: -104.9, Lat: 40.0},
				{X: 10, Y: 20, Lon: -105.0, Lat: 39.9},
			},
		},
		{
			name: "origin only",
			points: []ControlPoint{
				{X: 0, Y: 0, Lon: -105.0, Lat: 40.0},
				{X: 0, Y: 0, Lon: -105.0, Lat: 40.0},
				{X: 0, Y: 0, Lon: -105.0, Lat: 40.0},
			},
		},
		{
			name: "collinear pixels",
			points: []ControlPoint{
				{X: 0, Y: 0, Lon: -105.0, Lat: 40.0},
				{X: 50, Y: 50, Lon: -104.95, Lat: 39.95},
				{X: 100, Y: 100, Lon: -104.9, Lat: 39.9},
				{X: 200, Y: 200, Lon: -104.8, Lat: 39.8},
			},
		},
		{
			name: "constant x",
			points: []ControlPoint{
				{X: 7, Y: 0, Lon: -105.0, Lat: 40.0},
				{X: 7, Y: 50, Lon: -104.9, Lat: 39.95},
				{X: 7, Y: 100, Lon: -105.0, Lat: 39.9},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Fit(test.points)
			if !errors.Is(err, ErrFit) {
				t.Errorf("did not get expected error. Got: %v, Want: %v", err, ErrFit)
			}
		})
	}
}

// TestRoundTrip checks that unprojecting a projected pixel gives the pixel.
func TestRoundTrip(t *testing.T) {
	tr := NewTransform(1e-4, 2e-6, -1.5e-6, -8e-5, -105.1, 40.2)
	for x := 0; x <= 2000; x += 137 {
		for y := 0; y <= 1500; y += 89 {
			lon, lat := Project(tr, x, y)
			gx, gy, ok := Unproject(tr, lon, lat)
			if !ok {
				t.Fatalf("could not unproject (%d, %d)", x, y)
			}
			if gx != x || gy != y {
				t.Errorf("did not get expected pixel. Got: (%d, %d), Want: (%d, %d)", gx, gy, x, y)
			}
		}
	}
}

// TestUnprojectRounding checks that rounding adds 0.5 and truncates toward
// zero, so negative values round toward zero.
func TestUnprojectRounding(t *testing.T) {
	tr := NewTransform(1, 0, 0, 1, 0, 0)
	tests := []struct {
		v    float64
		want int
	}{
		{v: 0.4, want: 0},
		{v: 0.5, want: 1},
		{v: 2.49, want: 2},
		{v: -0.4, want: 0},
		{v: -0.5, want: 0},
		{v: -1.2, want: 0},
		{v: -1.6, want: -1},
	}

	for _, test := range tests {
		x, y, ok := tr.Unproject(test.v, test.v)
		if !ok {
			t.Fatalf("could not unproject %v", test.v)
		}
		if x != test.want || y != test.want {
			t.Errorf("did not get expected rounding for %v. Got: (%d, %d), Want: %d", test.v, x, y, test.want)
		}
	}
}

// TestUnprojectDegenerate checks that transforms without an inverse, or
// results too large for a pixel, are rejected.
func TestUnprojectDegenerate(t *testing.T) {
	tests := []struct {
		name     string
		tr       Transform
		lon, lat float64
	}{
		{name: "zero", tr: Transform{}, lon: 1, lat: 1},
		{name: "dependent rows", tr: NewTransform(1, 2, 2, 4, 0, 0), lon: 1, lat: 1},
		{name: "overflow", tr: NewTransform(1e-12, 0, 0, 1e-12, 0, 0), lon: 10, lat: 10},
		{name: "nan", tr: NewTransform(1, 0, 0, 1, 0, 0), lon: math.NaN(), lat: 0},
	}

	for _, test := range tests {
		if _, _, ok := test.tr.Unproject(test.lon, test.lat); ok {
			t.Errorf("%s: expected unproject to fail", test.name)
		}
	}
}

// TestCalibrationRead checks the session states for good and bad input.
func TestCalibrationRead(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		state   State
		err     error
		nPoints int
	}{
		{name: "calibrated", in: townCalib, state: Calibrated, nPoints: 3},
		{name: "parse error", in: townCalib + "1 2 3\n", state: Uncalibrated, err: ErrParse},
		{name: "two points", in: "0 0 -105 40\n100 0 -104.9 40\n", state: Uncalibrated, err: ErrInsufficientPoints, nPoints: 2},
		{name: "empty", in: "# nothing here\n", state: Uncalibrated, err: ErrInsufficientPoints},
		{name: "singular", in: "5 5 -105 40\n5 5 -104.9 40\n5 5 -105 39.9\n", state: Uncalibrated, err: ErrFit, nPoints: 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := New()
			if c.State() != Empty {
				t.Fatalf("new calibration is not empty: %v", c.State())
			}

			err := c.Read(strings.NewReader(test.in))
			if !errors.Is(err, test.err) {
				t.Errorf("did not get expected error. Got: %v, Want: %v", err, test.err)
			}
			if !errors.Is(c.Err(), test.err) {
				t.Errorf("did not get expected session error. Got: %v, Want: %v", c.Err(), test.err)
			}
			if c.State() != test.state {
				t.Errorf("did not get expected state. Got: %v, Want: %v", c.State(), test.state)
			}
			if n := len(c.ControlPoints()); n != test.nPoints {
				t.Errorf("did not get expected number of points. Got: %d, Want: %d", n, test.nPoints)
			}
			_, ok := c.Transform()
			if ok != (test.state == Calibrated) {
				t.Errorf("unexpected transform presence: %v", ok)
			}

			err = c.Read(strings.NewReader(townCalib))
			if !errors.Is(err, ErrSessionUsed) {
				t.Errorf("did not get expected error on reread. Got: %v, Want: %v", err, ErrSessionUsed)
			}
		})
	}
}

// TestControlPointsCopy checks that callers cannot modify a session's points.
func TestControlPointsCopy(t *testing.T) {
	c := New()
	if err := c.Read(strings.NewReader(townCalib)); err != nil {
		t.Fatalf("could not read calibration: %v", err)
	}
	pts := c.ControlPoints()
	pts[0].X = 999
	if c.ControlPoints()[0].X != 0 {
		t.Error("control points were modified through the returned slice")
	}
}

// TestReadFile checks reading a calibration file from disk, and that a
// missing file leaves an uncalibrated session.
func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "town.calib")
	if err := os.WriteFile(path, []byte(townCalib), 0o644); err != nil {
		t.Fatalf("could not write calibration file: %v", err)
	}

	c, err := ReadFile(path)
	if err != nil {
		t.Fatalf("could not read calibration file: %v", err)
	}
	if x, y, ok := c.Unproject(-104.95, 39.95); !ok || x != 50 || y != 50 {
		t.Errorf("did not get expected pixel. Got: (%d, %d, %v), Want: (50, 50, true)", x, y, ok)
	}

	c, err = ReadFile(filepath.Join(dir, "missing.calib"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if c == nil || c.State() != Uncalibrated {
		t.Errorf("did not get uncalibrated session for missing file: %v", c)
	}
	if _, _, ok := c.Unproject(-104.95, 39.95); ok {
		t.Error("uncalibrated session should not unproject")
	}
}

// TestCurrent checks that readers of Current always see a session whose
// transform belongs to its own control points while it is being replaced.
func TestCurrent(t *testing.T) {
	sessions := make([]*Calibration, 8)
	for i := range sessions {
		off := float64(i)
		in := strings.NewReader(strings.Join([]string{
			"0 0 " + ftoa(-105+off) + " 40",
			"100 0 " + ftoa(-104.9+off) + " 40",
			"0 100 " + ftoa(-105+off) + " 39.9",
		}, "\n"))
		sessions[i] = New()
		if err := sessions[i].Read(in); err != nil {
			t.Fatalf("could not read session %d: %v", i, err)
		}
	}

	var cur Current
	if cur.Load() != nil {
		t.Fatal("expected empty Current")
	}
	cur.Store(sessions[0])

	var wg sync.WaitGroup
	done := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				c := cur.Load()
				tr, ok := c.Transform()
				if !ok {
					t.Error("current session is not calibrated")
					return
				}
				p := c.ControlPoints()[0]
				if !scalar.EqualWithinAbs(tr.E(), p.Lon, 1e-9) {
					t.Errorf("transform does not belong to points: e=%v lon=%v", tr.E(), p.Lon)
					return
				}
			}
		}()
	}
	for i := 0; i < 1000; i++ {
		prev := cur.Swap(sessions[i%len(sessions)])
		if prev == nil {
			t.Fatal("swap returned nil session")
		}
	}
	close(done)
	wg.Wait()
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
