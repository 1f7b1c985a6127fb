//go:build withcv
// +build withcv

/*
DESCRIPTION
  render_cv_test.go provides testing for functionality in render_cv.go.

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

package overlay

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/mapimage/track"
)

func TestRenderCV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "map.png")
	out := filepath.Join(dir, "overlay.png")
	writePNG(t, in, 20, 20)

	o := Overlay{
		Track:     []track.Pixel{track.PixelAt(2, 15), track.PixelAt(17, 15), track.PixelBreak(), track.PixelAt(15, 3)},
		Cursor:    image.Pt(5, 5),
		HasCursor: true,
	}
	if err := RenderCV(in, out, o, testStyle()); err != nil {
		t.Fatalf("could not render: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("could not open overlay: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("could not decode overlay: %v", err)
	}

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{x: 10, y: 15, want: red},
		{x: 15, y: 3, want: red},
		{x: 5, y: 5, want: blue},
		{x: 10, y: 10, want: color.RGBA{255, 255, 255, 255}},
	}
	for _, test := range tests {
		if got := at(img, test.x, test.y); got != test.want {
			t.Errorf("did not get expected colour at (%d, %d). Got: %v, Want: %v", test.x, test.y, got, test.want)
		}
	}

	if err := RenderCV(filepath.Join(dir, "missing.png"), out, o, testStyle()); err == nil {
		t.Error("expected error for missing image")
	}
}
