/*
DESCRIPTION
  image.go reads map image dimensions, locates the calibration file belonging
  to an image and finds the images that contain a location.

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

// Package overlay relates calibrated map images to locations and draws
// tracks and a location cursor over them.
package overlay

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/sliceutils"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ausocean/mapimage/calibration"
)

// CalibExt is the extension of calibration files.
const CalibExt = ".calib"

// Extensions lists the image file extensions searched by FindContaining.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// ErrNoCalibration is returned when an image has no usable calibration.
var ErrNoCalibration = errors.New("image not calibrated")

// Bounds returns the width and height of the image at path. Only the image
// header is decoded.
func Bounds(path string) (w, h int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("could not open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("could not decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// CalibrationPath returns the path of the calibration file for the image at
// imagePath, e.g. maps/town.jpg gives maps/town.calib. ok is false if the
// image name has no extension or no stem.
func CalibrationPath(imagePath string) (path string, ok bool) {
	ext := filepath.Ext(imagePath)
	stem := strings.TrimSuffix(imagePath, ext)
	if ext == "" || ext == filepath.Base(imagePath) {
		return "", false
	}
	return stem + CalibExt, true
}

// Locate returns the pixel of the image at imagePath at which lat, lon lies,
// along with the image dimensions. The pixel may lie outside the image.
func Locate(imagePath string, lat, lon float64) (pt image.Point, w, h int, err error) {
	calPath, ok := CalibrationPath(imagePath)
	if !ok {
		return pt, 0, 0, fmt.Errorf("%w: no calibration file name for %s", ErrNoCalibration, imagePath)
	}
	c, err := calibration.ReadFile(calPath)
	if err != nil {
		return pt, 0, 0, fmt.Errorf("%w: %v", ErrNoCalibration, err)
	}
	x, y, ok := c.Unproject(lon, lat)
	if !ok {
		return pt, 0, 0, fmt.Errorf("%w: location cannot be resolved", ErrNoCalibration)
	}
	w, h, err = Bounds(imagePath)
	if err != nil {
		return pt, 0, 0, err
	}
	return image.Pt(x, y), w, h, nil
}

// ContainsLocation reports whether lat, lon lies within the image at
// imagePath according to its calibration file. Images without a usable
// calibration contain nothing.
func ContainsLocation(imagePath string, lat, lon float64) bool {
	pt, w, h, err := Locate(imagePath, lat, lon)
	if err != nil {
		return false
	}
	return calibration.InBounds(pt.X, pt.Y, w, h)
}

// FindContaining returns the sorted paths of the images in dir that contain
// lat, lon. Images that cannot be checked are logged and skipped.
func FindContaining(dir string, lat, lon float64, log logging.Logger) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read image directory: %w", err)
	}

	var found []string
	for _, e := range ents {
		if e.IsDir() || !sliceutils.ContainsString(Extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		pt, w, h, err := Locate(path, lat, lon)
		if err != nil {
			log.Debug("skipping image", "path", path, "error", err.Error())
			continue
		}
		if calibration.InBounds(pt.X, pt.Y, w, h) {
			found = append(found, path)
		}
	}
	sort.Strings(found)
	log.Info("searched images", "dir", dir, "found", len(found))
	return found, nil
}
