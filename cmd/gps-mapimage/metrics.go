/*
DESCRIPTION
  metrics.go provides Prometheus metrics for gps-mapimage.

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

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Render results.
const (
	renderOK      = "ok"
	renderSkipped = "skipped"
	renderFailed  = "error"
)

// metrics holds the client's collectors. A nil *metrics records nothing.
type metrics struct {
	gatherer prometheus.Gatherer

	sentences      *prometheus.CounterVec
	dropped        prometheus.Counter
	renders        *prometheus.CounterVec
	renderDuration prometheus.Histogram
	entries        prometheus.Gauge
	calibrated     prometheus.Gauge
}

// newMetrics registers the client's metrics with reg.
func newMetrics(reg *prometheus.Registry) (*metrics, error) {
	m := &metrics{
		gatherer: reg,
		sentences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapimage_nmea_sentences_total",
			Help: "NMEA sentences received, labeled by whether they could be parsed.",
		}, []string{"result"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapimage_nmea_sentences_dropped_total",
			Help: "NMEA sentences dropped because the parser fell behind.",
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapimage_renders_total",
			Help: "Overlay renders, labeled by result.",
		}, []string{"result"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mapimage_render_duration_seconds",
			Help:    "Overlay render latency in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mapimage_track_entries",
			Help: "Entries in the recorded track, including segment breaks.",
		}),
		calibrated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mapimage_calibrated",
			Help: "1 if the map image is calibrated, otherwise 0.",
		}),
	}
	for _, c := range []prometheus.Collector{m.sentences, m.dropped, m.renders, m.renderDuration, m.entries, m.calibrated} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) sentence(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.sentences.WithLabelValues("ok").Inc()
	} else {
		m.sentences.WithLabelValues("error").Inc()
	}
}

func (m *metrics) drop(n int) {
	if m == nil || n == 0 {
		return
	}
	m.dropped.Add(float64(n))
}

func (m *metrics) render(result string, start time.Time, entries int) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(result).Inc()
	m.entries.Set(float64(entries))
	if result == renderOK {
		m.renderDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *metrics) setCalibrated(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.calibrated.Set(1)
	} else {
		m.calibrated.Set(0)
	}
}

// handler exposes the metrics for scraping.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
