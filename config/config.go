/*
DESCRIPTION
  config.go reads and writes the mapimage configuration file, a list of
  key value pairs, one per line.

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

// Package config provides the settings shared by the mapimage commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ausocean/utils/filemap"
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/sliceutils"
)

// Defaults.
const (
	DefaultImageDir       = "."
	DefaultLogPath        = "/var/log/mapimage"
	DefaultSerialPort     = "/dev/ttyUSB0"
	DefaultBaudRate       = 9600
	DefaultSegmentGap     = 30 * time.Second
	DefaultRenderInterval = 5 * time.Second
	DefaultCursorRadius   = 8.0
	DefaultTrackWidth     = 3.0
)

// Params specifies accepted parameters and the order in which they are
// written. ints and floats specify the parameters with numeric values.
var (
	Params = []string{"ImageDir", "LogPath", "LogLevel", "SerialPort", "BaudRate", "SegmentGap", "RenderInterval", "CursorRadius", "TrackWidth"}
	ints   = []string{"BaudRate", "SegmentGap", "RenderInterval"}
	floats = []string{"CursorRadius", "TrackWidth"}
)

// levels maps log level names to logging levels.
var levels = map[string]int8{
	"Debug":   logging.Debug,
	"Info":    logging.Info,
	"Warning": logging.Warning,
	"Error":   logging.Error,
	"Fatal":   logging.Fatal,
}

// Config holds mapimage settings.
type Config struct {
	ImageDir       string        // Directory searched for map images.
	LogPath        string        // Directory holding log files.
	LogLevel       int8          // One of the logging levels.
	SerialPort     string        // GPS receiver port.
	BaudRate       uint          // GPS receiver baud rate.
	SegmentGap     time.Duration // Fix gap that starts a new track segment.
	RenderInterval time.Duration // Time between overlay renders.
	CursorRadius   float64       // Location cursor radius in pixels.
	TrackWidth     float64       // Track line width in pixels.
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		ImageDir:       DefaultImageDir,
		LogPath:        DefaultLogPath,
		LogLevel:       logging.Info,
		SerialPort:     DefaultSerialPort,
		BaudRate:       DefaultBaudRate,
		SegmentGap:     DefaultSegmentGap,
		RenderInterval: DefaultRenderInterval,
		CursorRadius:   DefaultCursorRadius,
		TrackWidth:     DefaultTrackWidth,
	}
}

// Read reads the configuration file at path. Missing parameters get default
// values. An error is returned if the file cannot be read or a value is
// invalid, in which case the defaults are returned.
func Read(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Default(), fmt.Errorf("could not read config: %w", err)
	}
	m, err := filemap.ReadFrom(path, "\n", " ")
	if err != nil {
		return Default(), fmt.Errorf("could not read config: %w", err)
	}
	c, err := FromMap(m)
	if err != nil {
		return Default(), err
	}
	return c, nil
}

// FromMap builds a Config from parameter name/value pairs, validating
// numeric values. Unknown parameters are ignored.
func FromMap(m map[string]string) (Config, error) {
	c := Default()
	for _, name := range Params {
		val, present := m[name]
		if !present || val == "" {
			continue
		}
		if sliceutils.ContainsString(ints, name) {
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil || n == 0 {
				return c, errors.New("expected positive int for config param: " + name)
			}
		}
		if sliceutils.ContainsString(floats, name) {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || !(f > 0) {
				return c, errors.New("expected positive number for config param: " + name)
			}
		}

		switch name {
		case "ImageDir":
			c.ImageDir = val
		case "LogPath":
			c.LogPath = val
		case "LogLevel":
			l, ok := levels[val]
			if !ok {
				return c, errors.New("invalid log level: " + val)
			}
			c.LogLevel = l
		case "SerialPort":
			c.SerialPort = val
		case "BaudRate":
			n, _ := strconv.ParseUint(val, 10, 32)
			c.BaudRate = uint(n)
		case "SegmentGap":
			n, _ := strconv.Atoi(val)
			c.SegmentGap = time.Duration(n) * time.Second
		case "RenderInterval":
			n, _ := strconv.Atoi(val)
			c.RenderInterval = time.Duration(n) * time.Second
		case "CursorRadius":
			c.CursorRadius, _ = strconv.ParseFloat(val, 64)
		case "TrackWidth":
			c.TrackWidth, _ = strconv.ParseFloat(val, 64)
		}
	}
	return c, nil
}

// params returns c as parameter name/value pairs.
func (c Config) params() map[string]string {
	return map[string]string{
		"ImageDir":       c.ImageDir,
		"LogPath":        c.LogPath,
		"LogLevel":       LevelName(c.LogLevel),
		"SerialPort":     c.SerialPort,
		"BaudRate":       strconv.FormatUint(uint64(c.BaudRate), 10),
		"SegmentGap":     strconv.Itoa(int(c.SegmentGap / time.Second)),
		"RenderInterval": strconv.Itoa(int(c.RenderInterval / time.Second)),
		"CursorRadius":   strconv.FormatFloat(c.CursorRadius, 'g', -1, 64),
		"TrackWidth":     strconv.FormatFloat(c.TrackWidth, 'g', -1, 64),
	}
}

// Write writes c to path in Params order.
func (c Config) Write(path string) error {
	return filemap.WriteTo(path, "\n", " ", c.params(), Params)
}

// Level returns the logging level with the given name.
func Level(name string) (int8, bool) {
	l, ok := levels[name]
	return l, ok
}

// LevelName returns the name of logging level l, or Info for unknown levels.
func LevelName(l int8) string {
	for name, v := range levels {
		if v == l {
			return name
		}
	}
	return "Info"
}
