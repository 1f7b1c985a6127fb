/*
DESCRIPTION
  render.go draws projected tracks and a location cursor over a map image.

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
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/ausocean/mapimage/track"
)

// Style controls how an overlay is drawn.
type Style struct {
	TrackColor   color.Color
	TrackWidth   float64
	CursorColor  color.Color
	CursorRadius float64
	OutlineColor color.Color // Cursor outline; nil for none.
}

// DefaultStyle returns a red track with a blue, white outlined cursor.
func DefaultStyle() Style {
	return Style{
		TrackColor:   color.RGBA{255, 0, 0, 255},
		TrackWidth:   3,
		CursorColor:  color.RGBA{0, 0, 255, 255},
		CursorRadius: 8,
		OutlineColor: color.White,
	}
}

// Overlay is what to draw over an image: a projected track and an optional
// cursor.
type Overlay struct {
	Track     []track.Pixel
	Cursor    image.Point
	HasCursor bool
}

// Draw returns a copy of img with o drawn over it.
func Draw(img image.Image, o Overlay, s Style) image.Image {
	dc := gg.NewContextForImage(img)

	dc.SetColor(s.TrackColor)
	dc.SetLineWidth(s.TrackWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	for _, strip := range track.Strips(o.Track) {
		if len(strip) == 1 {
			x, y := centre(strip[0])
			dc.DrawPoint(x, y, s.TrackWidth/2)
			dc.Fill()
			continue
		}
		dc.MoveTo(centre(strip[0]))
		for _, p := range strip[1:] {
			dc.LineTo(centre(p))
		}
		dc.Stroke()
	}

	if o.HasCursor {
		x, y := centre(o.Cursor)
		dc.SetColor(s.CursorColor)
		dc.DrawCircle(x, y, s.CursorRadius)
		dc.Fill()
		if s.OutlineColor != nil {
			dc.SetColor(s.OutlineColor)
			dc.SetLineWidth(2)
			dc.DrawCircle(x, y, s.CursorRadius)
			dc.Stroke()
		}
	}
	return dc.Image()
}

// Render draws o over the image at imagePath and saves the result as a PNG
// at outPath.
func Render(imagePath, outPath string, o Overlay, s Style) error {
	img, err := gg.LoadImage(imagePath)
	if err != nil {
		return fmt.Errorf("could not load image: %w", err)
	}
	err = gg.SavePNG(outPath, Draw(img, o, s))
	if err != nil {
		return fmt.Errorf("could not save overlay: %w", err)
	}
	return nil
}

// centre returns the centre of pixel p in drawing coordinates.
func centre(p image.Point) (x, y float64) {
	return float64(p.X) + 0.5, float64(p.Y) + 0.5
}
