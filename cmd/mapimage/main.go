/*
NAME
  mapimage - reports and draws GPS locations and tracks on calibrated map
  images.

DESCRIPTION
  mapimage reads the calibration file belonging to a map image (town.jpg is
  calibrated by town.calib) and can:
    - describe the calibration (-Info),
    - report where a location falls on the image (-Lat, -Lon, -Accuracy),
    - draw a GPX or NMEA track and the location over the image (-Out),
    - plot the calibration residuals (-Plot),
    - list the images in the image directory that contain a location (-Find),
    - save the settings in effect to a config file (-WriteConfig).

LICENSE
  mapimage is Copyright (C) 2026 the Australian Ocean Lab (AusOcean).

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

// mapimage is a command line client for calibrated map images.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/mapimage/calibration"
	"github.com/ausocean/mapimage/config"
	"github.com/ausocean/mapimage/overlay"
	"github.com/ausocean/mapimage/smartlogger"
	"github.com/ausocean/mapimage/track"
)

const progName = "mapimage"

var log logging.Logger

// options holds the command line options of a single run.
type options struct {
	image    string
	calib    string
	lat, lon float64
	accuracy float64
	located  bool // lat and lon were given.
	info     bool
	find     bool
	gpx      string
	nmea     string
	out      string
	plot     string
	writeCfg string
}

func main() {
	var opts options
	flag.StringVar(&opts.image, "Image", "", "Map image")
	flag.StringVar(&opts.calib, "Calib", "", "Calibration file, defaulting to the image's .calib file")
	flag.Float64Var(&opts.lat, "Lat", 0, "Latitude of location")
	flag.Float64Var(&opts.lon, "Lon", 0, "Longitude of location")
	flag.Float64Var(&opts.accuracy, "Accuracy", 0, "Accuracy of location in metres")
	flag.BoolVar(&opts.info, "Info", false, "Print calibration info")
	flag.BoolVar(&opts.find, "Find", false, "List images in ImageDir containing the location")
	flag.StringVar(&opts.gpx, "GPX", "", "GPX track file")
	flag.StringVar(&opts.nmea, "NMEA", "", "NMEA sentence file")
	flag.StringVar(&opts.out, "Out", "", "Output PNG with track and location drawn")
	flag.StringVar(&opts.plot, "Plot", "", "Output PNG plot of calibration residuals")
	flag.StringVar(&opts.writeCfg, "WriteConfig", "", "Write the effective config, including flag overrides, to this file")
	configFile := flag.String("ConfigFile", "", "Specifies config file")
	logPath := flag.String("LogPath", "", "Specifies log path, overriding the config file")
	logLevel := flag.String("LogLevel", "", "Specifies log level (Debug, Info, Warning, Error, Fatal)")
	imageDir := flag.String("ImageDir", "", "Specifies image directory, overriding the config file")
	flag.Parse()

	var lat, lon bool
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "Lat":
			lat = true
		case "Lon":
			lon = true
		}
	})
	opts.located = lat && lon

	cfg := config.Default()
	var cfgErr error
	if *configFile != "" {
		cfg, cfgErr = config.Read(*configFile)
	}
	if *logPath != "" {
		cfg.LogPath = *logPath
	}
	if *imageDir != "" {
		cfg.ImageDir = *imageDir
	}
	validLogLevel := true
	if *logLevel != "" {
		cfg.LogLevel, validLogLevel = config.Level(*logLevel)
		if !validLogLevel {
			cfg.LogLevel = logging.Info
		}
	}

	// Create logger.
	logSender := smartlogger.New(cfg.LogPath, progName)
	defer logSender.Close()
	log = logging.New(cfg.LogLevel, io.MultiWriter(&logSender.LogRoller, os.Stderr), true)
	log.Debug(progName + ": Logger Initialized")
	if !validLogLevel {
		log.Error("Invalid log level was defaulted to Info", "level", *logLevel)
	}
	if cfgErr != nil {
		log.Warning("using default config", "error", cfgErr.Error())
	}

	if err := run(opts, cfg, os.Stdout); err != nil {
		log.Error(progName+" failed", "error", err.Error())
		os.Exit(1)
	}
}

// run carries out the actions selected by opts, writing reports to w.
func run(opts options, cfg config.Config, w io.Writer) error {
	if opts.writeCfg != "" {
		log.Info("writing config", "path", opts.writeCfg)
		if err := cfg.Write(opts.writeCfg); err != nil {
			return fmt.Errorf("could not write config: %w", err)
		}
	}

	if opts.find {
		if !opts.located {
			return errors.New("-Find needs -Lat and -Lon")
		}
		paths, err := overlay.FindContaining(cfg.ImageDir, opts.lat, opts.lon, log)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(w, p)
		}
	}

	if opts.image == "" {
		if !opts.find && opts.writeCfg == "" {
			return errors.New("no image given")
		}
		return nil
	}

	calPath := opts.calib
	if calPath == "" {
		var ok bool
		calPath, ok = overlay.CalibrationPath(opts.image)
		if !ok {
			return fmt.Errorf("no calibration file name for %s", opts.image)
		}
	}
	c, err := calibration.ReadFile(calPath)
	if err != nil {
		log.Warning("image not calibrated", "calib", calPath, "error", err.Error())
	} else {
		logResiduals(c)
	}

	if opts.info {
		if err := c.Info(w); err != nil {
			return err
		}
	}

	width, height, err := overlay.Bounds(opts.image)
	if err != nil {
		return err
	}

	if opts.located {
		err := c.LocationInfo(w, opts.lon, opts.lat, opts.accuracy, width, height)
		if err != nil {
			return err
		}
	}

	if opts.plot != "" {
		if err := calibration.PlotResiduals(c, opts.plot); err != nil {
			return fmt.Errorf("could not plot residuals: %w", err)
		}
	}

	if opts.out == "" {
		return nil
	}
	var o overlay.Overlay
	entries, err := loadTrack(opts, cfg)
	if err != nil {
		return err
	}
	if len(entries) != 0 {
		pixels, ok := track.ProjectCalibrated(c, entries)
		if !ok {
			log.Warning("can't draw track on uncalibrated image", "image", opts.image)
		}
		o.Track = pixels
	}
	if opts.located {
		x, y, ok := c.Unproject(opts.lon, opts.lat)
		if ok && calibration.InBounds(x, y, width, height) {
			o.Cursor, o.HasCursor = image.Pt(x, y), true
		}
	}
	if err := overlay.Render(opts.image, opts.out, o, style(cfg)); err != nil {
		return err
	}
	log.Info("rendered overlay", "out", opts.out, "entries", len(entries), "cursor", o.HasCursor)
	return nil
}

// loadTrack reads the GPX and NMEA tracks named by opts, in that order.
func loadTrack(opts options, cfg config.Config) ([]track.Entry, error) {
	var entries []track.Entry
	if opts.gpx != "" {
		e, err := track.LoadGPX(opts.gpx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e...)
	}
	if opts.nmea != "" {
		f, err := os.Open(opts.nmea)
		if err != nil {
			return nil, fmt.Errorf("could not open NMEA file: %w", err)
		}
		defer f.Close()
		e, err := track.NewReader(log, cfg.SegmentGap).ReadAll(f)
		if err != nil {
			return nil, err
		}
		if len(entries) != 0 && len(e) != 0 {
			entries = append(entries, track.Break())
		}
		entries = append(entries, e...)
	}
	return entries, nil
}

// style returns the overlay style given by cfg.
func style(cfg config.Config) overlay.Style {
	s := overlay.DefaultStyle()
	s.TrackWidth = cfg.TrackWidth
	s.CursorRadius = cfg.CursorRadius
	return s
}

// logResiduals logs how well the calibration of c fits its control points.
func logResiduals(c *calibration.Calibration) {
	t, ok := c.Transform()
	if !ok {
		return
	}
	st := calibration.Summarize(calibration.Residuals(c.ControlPoints(), t))
	log.Info("calibrated", "transform", t.String(), "mean", st.Mean, "stddev", st.StdDev, "max", st.Max)
}
