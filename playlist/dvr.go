/*
DESCRIPTION
  dvr.go - DVRBuffer and DVRPlaylist: a time-windowed (rather than
  count-windowed) playlist that additionally supports offset- and
  date-range-based segment lookup, as used by seek-back and "watch from
  X" DVR clients.

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

import (
	"sync"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/livemodel"
)

// DVRBuffer holds segments spanning at most MaxWindow seconds of media
// time, evicting from the front once the span is exceeded. It additionally
// maintains an index -> slice-position map so that segment lookup by
// index (used by partial-segment and byte-range requests) is O(1) rather
// than O(n).
type DVRBuffer struct {
	mu        sync.Mutex
	maxWindow float64 // seconds
	segments  []*livemodel.LiveSegment
	positions map[int64]int
}

// NewDVRBuffer returns an empty DVRBuffer spanning at most maxWindow
// seconds of media time.
func NewDVRBuffer(maxWindow float64) *DVRBuffer {
	return &DVRBuffer{maxWindow: maxWindow, positions: make(map[int64]int)}
}

// Add appends seg and evicts from the front until the buffer's span is
// within MaxWindow. Returns the evicted segments, if any, oldest first.
func (b *DVRBuffer) Add(seg *livemodel.LiveSegment) []*livemodel.LiveSegment {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.segments = append(b.segments, seg)
	b.reindex()

	cutoff := b.segments[len(b.segments)-1].TimestampSecs - b.maxWindow
	var evicted []*livemodel.LiveSegment
	for len(b.segments) > 1 && b.segments[0].End() < cutoff {
		evicted = append(evicted, b.segments[0])
		b.segments = b.segments[1:]
	}
	if len(evicted) > 0 {
		b.reindex()
	}
	return evicted
}

// reindex rebuilds the index -> position map. Called with mu held.
func (b *DVRBuffer) reindex() {
	for k := range b.positions {
		delete(b.positions, k)
	}
	for i, s := range b.segments {
		b.positions[s.Index] = i
	}
}

// Segments returns a snapshot of the currently buffered segments.
func (b *DVRBuffer) Segments() []*livemodel.LiveSegment {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*livemodel.LiveSegment, len(b.segments))
	copy(out, b.segments)
	return out
}

// ByIndex returns the segment with the given index, if still buffered.
func (b *DVRBuffer) ByIndex(idx int64) (*livemodel.LiveSegment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.positions[idx]
	if !ok {
		return nil, false
	}
	return b.segments[pos], true
}

// FromOffset returns buffered segments whose start time is at or after the
// live edge plus offsetSecs -- offsetSecs is relative to the newest
// buffered segment's timestamp, so a negative value rewinds from the live
// edge. The result is capped at maxCount segments, oldest first; maxCount
// <= 0 means unlimited.
func (b *DVRBuffer) FromOffset(offsetSecs float64, maxCount int) []*livemodel.LiveSegment {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.segments) == 0 {
		return nil
	}
	threshold := b.segments[len(b.segments)-1].TimestampSecs + offsetSecs
	var out []*livemodel.LiveSegment
	for _, s := range b.segments {
		if s.TimestampSecs >= threshold {
			out = append(out, s)
			if maxCount > 0 && len(out) >= maxCount {
				break
			}
		}
	}
	return out
}

// InDateRange returns every buffered segment whose [ProgramDateTime,
// ProgramDateTime+Duration) interval overlaps [start, end).
func (b *DVRBuffer) InDateRange(start, end time.Time) []*livemodel.LiveSegment {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*livemodel.LiveSegment
	for _, s := range b.segments {
		if !s.HasPDT {
			continue
		}
		segEnd := s.ProgramDateTime.Add(time.Duration(s.Duration * float64(time.Second)))
		if segEnd.After(start) && s.ProgramDateTime.Before(end) {
			out = append(out, s)
		}
	}
	return out
}

// DVRConfig configures a DVRPlaylist.
type DVRConfig struct {
	MaxWindowSeconds float64
	TargetDuration   int
	Version          int
	Metadata         Metadata
	InitSegmentURI   string
}

// DVRPlaylist is a time-windowed playlist backed by a DVRBuffer, exposing
// the same addSegment/endStream/render surface as SlidingWindowPlaylist
// plus offset- and date-range-based lookup.
type DVRPlaylist struct {
	mu       sync.Mutex
	cfg      DVRConfig
	buf      *DVRBuffer
	tracker  *MediaSequenceTracker
	renderer *PlaylistRenderer
	events   *eventStream
	ended    bool
	log      logging.Logger
}

// NewDVRPlaylist returns an empty DVRPlaylist.
func NewDVRPlaylist(cfg DVRConfig, log logging.Logger) (*DVRPlaylist, error) {
	if cfg.MaxWindowSeconds <= 0 {
		return nil, hlserr.New(hlserr.InvalidConfiguration, "max window must be positive")
	}
	return &DVRPlaylist{
		cfg:      cfg,
		buf:      NewDVRBuffer(cfg.MaxWindowSeconds),
		tracker:  NewMediaSequenceTracker(),
		renderer: NewPlaylistRenderer(),
		events:   newEventStream(),
		log:      log,
	}, nil
}

// Events returns the playlist's lifecycle event stream.
func (p *DVRPlaylist) Events() <-chan Event { return p.events.Events() }

// AddSegment appends seg, evicting any segments that fall outside the
// configured time window.
func (p *DVRPlaylist) AddSegment(seg *livemodel.LiveSegment) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ended {
		return hlserr.New(hlserr.StreamEnded, "playlist has ended")
	}

	p.tracker.RecordAdd(seg.Index, seg.Discontinuity)
	p.events.emit(Event{Kind: SegmentAdded, Segment: seg})

	for _, evicted := range p.buf.Add(seg) {
		p.tracker.RecordEviction(evicted.Index, evicted.Discontinuity)
		p.events.emit(Event{Kind: SegmentRemoved, Segment: evicted})
		if p.log != nil {
			p.log.Debug("evicted segment from dvr window", "index", evicted.Index, "mediaSequence", p.tracker.MediaSequence())
		}
	}

	p.events.emit(Event{Kind: PlaylistUpdated})
	return nil
}

// EndStream finishes the playlist.
func (p *DVRPlaylist) EndStream() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		return
	}
	p.ended = true
	p.events.emit(Event{Kind: StreamEnded})
	p.events.close()
}

// MediaSequence returns the playlist's current media sequence.
func (p *DVRPlaylist) MediaSequence() int64 { return p.tracker.MediaSequence() }

// DiscontinuitySequence returns the playlist's current discontinuity
// sequence.
func (p *DVRPlaylist) DiscontinuitySequence() int64 { return p.tracker.DiscontinuitySequence() }

// SegmentCount returns the number of segments currently buffered.
func (p *DVRPlaylist) SegmentCount() int { return len(p.buf.Segments()) }

// Render renders the current playlist state to M3U8 text.
func (p *DVRPlaylist) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderer.Render(RenderContext{
		Segments:       p.buf.Segments(),
		Tracker:        p.tracker,
		Metadata:       p.cfg.Metadata,
		TargetDuration: p.cfg.TargetDuration,
		PlaylistType:   PlaylistTypeNone,
		HasEndList:     p.ended,
		Version:        p.cfg.Version,
		InitSegmentURI: p.cfg.InitSegmentURI,
	})
}

// SegmentsFromOffset returns up to maxCount buffered segments starting at
// or after the live edge plus offsetSecs; a negative offsetSecs rewinds
// from the live edge. maxCount <= 0 means unlimited.
func (p *DVRPlaylist) SegmentsFromOffset(offsetSecs float64, maxCount int) []*livemodel.LiveSegment {
	return p.buf.FromOffset(offsetSecs, maxCount)
}

// AddPartialSegment validates that parentIndex names a buffered segment.
// Partial-segment delivery itself is out of scope; this exists for
// surface parity with SlidingWindowPlaylist.
func (p *DVRPlaylist) AddPartialSegment(parentIndex int64) error {
	if _, ok := p.buf.ByIndex(parentIndex); !ok {
		return hlserr.New(hlserr.ParentSegmentNotFound, "parent segment not found")
	}
	return nil
}

// SegmentsInDateRange returns the buffered segments overlapping
// [start, end).
func (p *DVRPlaylist) SegmentsInDateRange(start, end time.Time) []*livemodel.LiveSegment {
	return p.buf.InDateRange(start, end)
}

// SegmentByIndex returns the segment with the given index, if still
// buffered.
func (p *DVRPlaylist) SegmentByIndex(idx int64) (*livemodel.LiveSegment, bool) {
	return p.buf.ByIndex(idx)
}
