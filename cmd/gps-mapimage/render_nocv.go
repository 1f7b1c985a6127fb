//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  render_nocv.go draws overlays with the pure Go renderer. To see the OpenCV
  version consult render_cv.go.

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

package main

import "github.com/ausocean/mapimage/overlay"

const renderer = "gg"

// renderOverlay draws o over the image at imagePath and writes it to outPath.
func renderOverlay(imagePath, outPath string, o overlay.Overlay, s overlay.Style) error {
	return overlay.Render(imagePath, outPath, o, s)
}
