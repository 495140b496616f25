/*
DESCRIPTION
  events.go - lifecycle event types shared by every playlist kind, and the
  channel-backed stream that delivers them.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024-2026 the Australian Ocean Lab (AusOcean).

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  This is distributed in the hope that it will be useful, but WITHOUT
  ANY WARRANTY; without even the implied warranty of MERCHANTABILITY
  or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public
  License for more details.

  You should have received a copy of the GNU General Public License in
  gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package playlist

import "github.com/ausocean/hlsorigin/livemodel"

// EventKind enumerates the playlist lifecycle events (spec.md §4.2, §5).
type EventKind int

const (
	SegmentAdded EventKind = iota
	SegmentRemoved
	PlaylistUpdated
	StreamEnded
)

// Event is one lifecycle notification emitted by a playlist.
type Event struct {
	Kind    EventKind
	Segment *livemodel.LiveSegment // Set for SegmentAdded/SegmentRemoved.
}

// eventStream is a small broadcast-free, single-consumer event channel. It
// is buffered generously so that addSegment never blocks on a slow or
// absent reader, and is closed exactly once by endStream.
type eventStream struct {
	ch     chan Event
	closed bool
}

func newEventStream() *eventStream {
	return &eventStream{ch: make(chan Event, 64)}
}

// emit sends ev, dropping it silently if the stream has already been
// closed or the buffer is full (a slow consumer must not stall muxing).
func (s *eventStream) emit(ev Event) {
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
	}
}

// close finishes the stream. Safe to call more than once.
func (s *eventStream) close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Events returns the read-only event channel for external consumers (e.g.
// a websocket bridge).
func (s *eventStream) Events() <-chan Event { return s.ch }
