/*
NAME
  gps-mapimage - draws the live position and track from a GPS receiver on a
  calibrated map image.

DESCRIPTION
  gps-mapimage reads NMEA sentences from a GPS receiver on a serial port,
  records the track and periodically renders it, together with the current
  position, over a map image to a PNG file.

  Signals:
    SIGHUP   reload the image calibration and archive rotated logs.
    SIGUSR1  pause or resume recording of the track.
    SIGUSR2  clear the recorded track.

  Metrics are served at /metrics on the -MetricsAddr address, if given.

LICENSE
  gps-mapimage is Copyright (C) 2018-2026 the Australian Ocean Lab (AusOcean).

  It is free software: you can redistribute it and/or modify them under
  the terms of the GNU General Public License as published by the
  Free Software Foundation, either version 3 of the License, or (at your
  option) any later version.

  It is distributed in the hope that it will be useful, but WITHOUT
  ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
  FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License
  for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses.
*/

// gps-mapimage is a client for drawing GPS tracks on a calibrated map image.
package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/mapimage/calibration"
	"github.com/ausocean/mapimage/config"
	"github.com/ausocean/mapimage/overlay"
	"github.com/ausocean/mapimage/smartlogger"
	"github.com/ausocean/mapimage/track"
)

var log logging.Logger

const (
	progName           = "gps-mapimage"
	sentenceBufferSize = 32 // number of sentences to keep before discarding
)

// readRetryDelay is the pause after a failed serial read.
var readRetryDelay = time.Second

// gpsClient holds the map image, its calibration and the recorded track.
type gpsClient struct {
	imagePath string
	calPath   string
	out       string
	style     overlay.Style
	width     int
	height    int

	cur     calibration.Current
	rec     *track.Recorder
	reader  *track.Reader
	metrics *metrics
}

func main() {
	configFile := flag.String("ConfigFile", "", "Specifies config file")
	imagePath := flag.String("Image", "", "Map image")
	calPath := flag.String("Calib", "", "Calibration file, defaulting to the image's .calib file")
	out := flag.String("Out", "", "Output PNG, defaulting to the image name with a -track.png suffix")
	serialPort := flag.String("SerialPort", "", "Serial Port for GPS module, overriding the config file")
	baudRate := flag.Uint("BaudRate", 0, "Baud rate of GPS module, overriding the config file")
	logLevel := flag.String("LogLevel", "", "Specifies log level (Debug, Info, Warning, Error, Fatal)")
	logPath := flag.String("LogPath", "", "Specifies log path, overriding the config file")
	keepLogs := flag.Bool("KeepLogs", false, "Keep archived logs in the backups directory")
	paused := flag.Bool("Paused", false, "Start with track recording paused")
	metricsAddr := flag.String("MetricsAddr", "", "Address to serve Prometheus metrics on, e.g. :9100")
	flag.Parse()

	cfg := config.Default()
	var cfgErr error
	if *configFile != "" {
		cfg, cfgErr = config.Read(*configFile)
	}
	if *serialPort != "" {
		cfg.SerialPort = *serialPort
	}
	if *baudRate != 0 {
		cfg.BaudRate = *baudRate
	}
	if *logPath != "" {
		cfg.LogPath = *logPath
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
	logSender.SetKeepLogs(*keepLogs)
	defer logSender.Close()
	log = logging.New(cfg.LogLevel, io.MultiWriter(&logSender.LogRoller, os.Stderr), true)
	log.Info(progName + ": Logger Initialized")
	if !validLogLevel {
		log.Error("Invalid log level was defaulted to Info", "level", *logLevel)
	}
	if cfgErr != nil {
		log.Warning("using default config", "error", cfgErr.Error())
	}

	gc, err := newClient(*imagePath, *calPath, *out, cfg, !*paused)
	if err != nil {
		log.Error("could not set up map image", "error", err.Error())
		os.Exit(1)
	}
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		gc.metrics, err = newMetrics(reg)
		if err != nil {
			log.Error("could not register metrics", "error", err.Error())
			os.Exit(1)
		}
		go serveMetrics(*metricsAddr, gc.metrics)
	}
	gc.reload()

	// Open serial port.
	options := serial.OpenOptions{
		PortName:        cfg.SerialPort,
		BaudRate:        cfg.BaudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 4,
	}
	port, err := serial.Open(options)
	if err != nil {
		log.Error("serial.Open failed", "error", err.Error())
		os.Exit(1)
	}
	defer port.Close()
	log.Info("Opened serial port", "port", cfg.SerialPort, "baud", cfg.BaudRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	raw := make(chan string, sentenceBufferSize)
	go gc.parseSentences(raw)
	go gc.readGPS(port, raw)
	go gc.handleSignals(ctx, logSender)

	gc.renderLoop(ctx, cfg.RenderInterval)
	gc.render()
	log.Info(progName + ": stopped")
}

// newClient returns a gpsClient drawing on the image at imagePath.
func newClient(imagePath, calPath, out string, cfg config.Config, tracking bool) (*gpsClient, error) {
	if calPath == "" {
		var ok bool
		calPath, ok = overlay.CalibrationPath(imagePath)
		if !ok {
			return nil, overlay.ErrNoCalibration
		}
	}
	if out == "" {
		out = strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + "-track.png"
	}
	w, h, err := overlay.Bounds(imagePath)
	if err != nil {
		return nil, err
	}

	s := overlay.DefaultStyle()
	s.TrackWidth = cfg.TrackWidth
	s.CursorRadius = cfg.CursorRadius
	gc := &gpsClient{
		imagePath: imagePath,
		calPath:   calPath,
		out:       out,
		style:     s,
		width:     w,
		height:    h,
		rec:       track.NewRecorder(tracking),
		reader:    track.NewReader(log, cfg.SegmentGap),
	}
	gc.cur.Store(calibration.New())
	return gc, nil
}

// reload reads the calibration file and makes it current. The previous
// calibration stays in use by any render already in progress.
func (gc *gpsClient) reload() {
	c, err := calibration.ReadFile(gc.calPath)
	if err != nil {
		log.Warning("image not calibrated", "calib", gc.calPath, "error", err.Error())
	} else {
		log.Info("loaded calibration", "calib", gc.calPath, "points", len(c.ControlPoints()))
	}
	gc.cur.Swap(c)
	gc.metrics.setCalibrated(err == nil)
}

func serveMetrics(addr string, m *metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	log.Info("Serving metrics", "addr", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", "error", err.Error())
	}
}

func (gc *gpsClient) handleSignals(ctx context.Context, sl *smartlogger.Smartlogger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sig)
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-sig:
			switch s {
			case syscall.SIGHUP:
				gc.reload()
				if err := sl.Rotate(); err != nil {
					log.Warning("could not rotate logs", "error", err.Error())
				}
				files, err := sl.Archive()
				if err != nil {
					log.Warning("could not archive logs", "error", err.Error())
				}
				log.Info("archived logs", "files", len(files))
			case syscall.SIGUSR1:
				if gc.rec.Tracking() {
					gc.rec.Pause()
				} else {
					gc.rec.Resume()
				}
				log.Info("tracking", "on", gc.rec.Tracking())
			case syscall.SIGUSR2:
				gc.rec.Clear()
				log.Info("cleared track")
			}
		}
	}
}

func (gc *gpsClient) renderLoop(ctx context.Context, interval time.Duration) {
	log.Info("Starting render worker", "interval", interval.String(), "renderer", renderer)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gc.render()
		}
	}
}

// render draws the recorded track and latest fix with the current
// calibration.
func (gc *gpsClient) render() {
	start := time.Now()
	var o overlay.Overlay
	c := gc.cur.Load()
	pixels, ok := track.ProjectCalibrated(c, gc.rec.Snapshot())
	if !ok {
		log.Debug("skipping render, not calibrated")
		gc.metrics.render(renderSkipped, start, gc.rec.Len())
		return
	}
	o.Track = pixels
	if tp, ok := gc.rec.Last(); ok {
		x, y, ok := c.Unproject(tp.Lon, tp.Lat)
		if ok && calibration.InBounds(x, y, gc.width, gc.height) {
			o.Cursor, o.HasCursor = image.Pt(x, y), true
		}
	}
	if err := renderOverlay(gc.imagePath, gc.out, o, gc.style); err != nil {
		log.Error("render failed", "error", err.Error())
		gc.metrics.render(renderFailed, start, len(pixels))
		return
	}
	gc.metrics.render(renderOK, start, len(pixels))
	log.Debug("rendered", "out", gc.out, "entries", len(pixels), "cursor", o.HasCursor)
}

func (gc *gpsClient) parseSentences(raw chan string) {
	for r := range raw {
		entries, err := gc.reader.Process(r)
		gc.metrics.sentence(err == nil)
		if err != nil {
			log.Warning("Failed to process NMEA sentence", "error", err.Error())
			continue
		}
		gc.rec.AddEntries(entries)
	}
}

func (gc *gpsClient) readGPS(port io.ReadWriteCloser, raw chan string) {
	log.Info("Starting to read from serial port")
	r := make([]byte, 32)
	var b strings.Builder
	for {
		n, err := port.Read(r)
		if err != nil {
			log.Warning("Error reading from serial port", "error", err.Error())
			if err == io.EOF {
				close(raw)
				return
			}
			if n == 0 {
				time.Sleep(readRetryDelay)
			}
		}
		if n > 0 {
			gc.metrics.drop(processBuffer(r[:n], &b, raw))
		}
	}
}

// processBuffer splits r into sentences, sending completed ones on raw and
// keeping any partial sentence in b. It returns the number of sentences
// dropped to make room in raw.
func processBuffer(r []byte, b *strings.Builder, raw chan string) (dropped int) {
	for _, c := range r {
		if c == '\r' {
			// Ignore CR
			continue
		}

		if c == '\n' {
			// End of line, completed a sentence
			line := b.String()
			b.Reset()
			if line == "" {
				continue
			}

			select {
			case raw <- line:
			default:
				// Safely clear oldest element in chan.
				select {
				case <-raw:
				default:
				}
				raw <- line
				dropped++
				log.Warning("Dropped a sentence")
			}
			continue
		}

		// Write byte to buffer
		b.WriteByte(c)
	}
	return dropped
}
