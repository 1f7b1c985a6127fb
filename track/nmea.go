/*
DESCRIPTION
  nmea.go turns NMEA 0183 sentences from a GPS receiver into trackpoints,
  inserting segment breaks where the fix was lost or the receiver went quiet.

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

package track

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/ausocean/utils/logging"
)

// Reader converts NMEA sentences into track entries. RMC sentences with a
// valid fix produce trackpoints; GGA sentences supply the altitude used for
// subsequent points. A Reader is not safe for concurrent use.
type Reader struct {
	log logging.Logger
	gap time.Duration

	alt      float64
	last     Trackpoint
	hasLast  bool
	lostFix  bool
	nRead    int
	nSkipped int
}

// NewReader returns a Reader that inserts a break whenever consecutive fixes
// are more than gap apart. A gap of zero disables time based breaks.
func NewReader(log logging.Logger, gap time.Duration) *Reader {
	return &Reader{log: log, gap: gap}
}

// Process handles one sentence and returns the entries it produces: nothing,
// a point, or a break followed by a point.
func (r *Reader) Process(sentence string) ([]Entry, error) {
	s, err := nmea.Parse(strings.TrimSpace(sentence))
	if err != nil {
		return nil, fmt.Errorf("could not parse sentence: %w", err)
	}
	r.nRead++

	switch s := s.(type) {
	case nmea.GGA:
		if s.FixQuality != nmea.Invalid {
			r.alt = s.Altitude
		}
		return nil, nil
	case nmea.RMC:
		if s.Validity != nmea.ValidRMC {
			if r.hasLast {
				r.lostFix = true
			}
			return nil, nil
		}
		tp := Trackpoint{Lat: s.Latitude, Lon: s.Longitude, Alt: r.alt, Time: fixTime(s.Date, s.Time)}
		return r.add(tp), nil
	default:
		return nil, nil
	}
}

func (r *Reader) add(tp Trackpoint) []Entry {
	var entries []Entry
	if r.hasLast && (r.lostFix || r.gapped(tp)) {
		entries = append(entries, Break())
	}
	r.last, r.hasLast, r.lostFix = tp, true, false
	return append(entries, Point(tp))
}

func (r *Reader) gapped(tp Trackpoint) bool {
	if r.gap <= 0 || tp.Time.IsZero() || r.last.Time.IsZero() {
		return false
	}
	return tp.Time.Sub(r.last.Time) > r.gap
}

// Last returns the most recent valid fix.
func (r *Reader) Last() (tp Trackpoint, ok bool) {
	return r.last, r.hasLast
}

// ReadAll reads sentences, one per line, until EOF. Sentences that cannot be
// parsed are logged and skipped.
func (r *Reader) ReadAll(rd io.Reader) ([]Entry, error) {
	var entries []Entry
	s := bufio.NewScanner(rd)
	for s.Scan() {
		line := s.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := r.Process(line)
		if err != nil {
			r.nSkipped++
			r.log.Warning("skipping NMEA sentence", "sentence", line, "error", err.Error())
			continue
		}
		entries = append(entries, e...)
	}
	if err := s.Err(); err != nil {
		return entries, fmt.Errorf("could not read NMEA: %w", err)
	}
	r.log.Debug("read NMEA sentences", "read", r.nRead, "skipped", r.nSkipped)
	return entries, nil
}

// fixTime returns the UTC time of a fix, or the zero time if the date or time
// is missing.
func fixTime(d nmea.Date, t nmea.Time) time.Time {
	if !d.Valid || !t.Valid {
		return time.Time{}
	}
	return time.Date(2000+d.YY, time.Month(d.MM), d.DD, t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}
