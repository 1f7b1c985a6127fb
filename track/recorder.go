/*
DESCRIPTION
  recorder.go provides Recorder, an append-only live track that can be paused
  and resumed while fixes keep arriving.

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

import "sync"

// Recorder records a live track. The latest fix is always kept, but points
// are only appended while tracking. Resuming after a pause starts a new
// segment. Recorder is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	entries  []Entry
	tracking bool
	split    bool // Next appended point starts a new segment.
	last     Trackpoint
	hasLast  bool
}

// NewRecorder returns a Recorder that starts tracking if tracking is true.
func NewRecorder(tracking bool) *Recorder {
	return &Recorder{tracking: tracking}
}

// Add records a fix.
func (r *Recorder) Add(tp Trackpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(tp)
}

func (r *Recorder) add(tp Trackpoint) {
	r.last, r.hasLast = tp, true
	if !r.tracking {
		return
	}
	if r.split && len(r.entries) != 0 && !r.entries[len(r.entries)-1].IsBreak() {
		r.entries = append(r.entries, Break())
	}
	r.split = false
	r.entries = append(r.entries, Point(tp))
}

// AddEntries records entries such as those produced by a Reader. A break
// starts a new segment at the next recorded point.
func (r *Recorder) AddEntries(entries []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		tp, ok := e.Trackpoint()
		if !ok {
			r.split = true
			continue
		}
		r.add(tp)
	}
}

// Pause stops appending points.
func (r *Recorder) Pause() {
	r.mu.Lock()
	r.tracking = false
	r.mu.Unlock()
}

// Resume starts appending points again, in a new segment.
func (r *Recorder) Resume() {
	r.mu.Lock()
	if !r.tracking {
		r.tracking = true
		r.split = true
	}
	r.mu.Unlock()
}

// Tracking reports whether points are being appended.
func (r *Recorder) Tracking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracking
}

// Last returns the most recent fix, recorded or not.
func (r *Recorder) Last() (tp Trackpoint, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasLast
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns a copy of the recorded entries.
func (r *Recorder) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Clear discards the recorded entries.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.entries = nil
	r.split = false
	r.mu.Unlock()
}
