//go:build withcv
// +build withcv

/*
DESCRIPTION
  render_cv.go draws overlays with OpenCV, for devices that already carry it.

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
	"errors"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ausocean/mapimage/track"
)

// RenderCV is like Render but draws with OpenCV. Line ends and the cursor are
// not anti-aliased.
func RenderCV(imagePath, outPath string, o Overlay, s Style) error {
	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	if img.Empty() {
		return errors.New("could not read image")
	}
	defer img.Close()

	trackColor := rgba(s.TrackColor)
	width := int(math.Max(1, math.Round(s.TrackWidth)))
	for _, strip := range track.Strips(o.Track) {
		if len(strip) == 1 {
			gocv.Circle(&img, strip[0], int(math.Max(1, s.TrackWidth/2)), trackColor, -1)
			continue
		}
		for i := 1; i < len(strip); i++ {
			gocv.Line(&img, strip[i-1], strip[i], trackColor, width)
		}
	}

	if o.HasCursor {
		r := int(math.Round(s.CursorRadius))
		gocv.Circle(&img, o.Cursor, r, rgba(s.CursorColor), -1)
		if s.OutlineColor != nil {
			gocv.Circle(&img, o.Cursor, r, rgba(s.OutlineColor), 2)
		}
	}

	if !gocv.IMWrite(outPath, img) {
		return errors.New("could not save overlay")
	}
	return nil
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}
