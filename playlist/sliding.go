/*
DESCRIPTION
  sliding.go - SlidingWindowPlaylist: a fixed-size window over the most
  recent segments, the common case for a live (non-DVR, non-event) HLS
  rendition.

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

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/livemodel"
)

// SlidingWindowConfig configures a SlidingWindowPlaylist.
type SlidingWindowConfig struct {
	WindowSize     int
	TargetDuration int
	Version        int
	Metadata       Metadata
	InitSegmentURI string
}

// SlidingWindowPlaylist maintains an ordered list of at most WindowSize
// segments, evicting from the front as new segments arrive.
type SlidingWindowPlaylist struct {
	mu       sync.Mutex
	cfg      SlidingWindowConfig
	segments []*livemodel.LiveSegment
	tracker  *MediaSequenceTracker
	renderer *PlaylistRenderer
	events   *eventStream
	ended    bool
	log      logging.Logger
}

// NewSlidingWindowPlaylist returns an empty SlidingWindowPlaylist.
func NewSlidingWindowPlaylist(cfg SlidingWindowConfig, log logging.Logger) (*SlidingWindowPlaylist, error) {
	if cfg.WindowSize <= 0 {
		return nil, hlserr.New(hlserr.InvalidConfiguration, "window size must be positive")
	}
	return &SlidingWindowPlaylist{
		cfg:      cfg,
		tracker:  NewMediaSequenceTracker(),
		renderer: NewPlaylistRenderer(),
		events:   newEventStream(),
		log:      log,
	}, nil
}

// Events returns the playlist's lifecycle event stream.
func (p *SlidingWindowPlaylist) Events() <-chan Event { return p.events.Events() }

// AddSegment appends seg, evicting from the front of the window as
// necessary. Rejects the call with hlserr.StreamEnded if EndStream has
// already been called.
func (p *SlidingWindowPlaylist) AddSegment(seg *livemodel.LiveSegment) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ended {
		return hlserr.New(hlserr.StreamEnded, "playlist has ended")
	}

	p.segments = append(p.segments, seg)
	p.tracker.RecordAdd(seg.Index, seg.Discontinuity)
	p.events.emit(Event{Kind: SegmentAdded, Segment: seg})

	for len(p.segments) > p.cfg.WindowSize {
		evicted := p.segments[0]
		p.segments = p.segments[1:]
		p.tracker.RecordEviction(evicted.Index, evicted.Discontinuity)
		p.events.emit(Event{Kind: SegmentRemoved, Segment: evicted})
		p.log.Debug("evicted segment from sliding window", "index", evicted.Index, "mediaSequence", p.tracker.MediaSequence())
	}

	p.events.emit(Event{Kind: PlaylistUpdated})
	return nil
}

// EndStream finishes the playlist: future AddSegment calls fail, and the
// event stream is closed after a final StreamEnded event.
func (p *SlidingWindowPlaylist) EndStream() {
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
func (p *SlidingWindowPlaylist) MediaSequence() int64 { return p.tracker.MediaSequence() }

// DiscontinuitySequence returns the playlist's current discontinuity
// sequence.
func (p *SlidingWindowPlaylist) DiscontinuitySequence() int64 { return p.tracker.DiscontinuitySequence() }

// SegmentCount returns the number of segments currently in the window.
func (p *SlidingWindowPlaylist) SegmentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.segments)
}

// Render renders the current playlist state to M3U8 text.
func (p *SlidingWindowPlaylist) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderer.Render(RenderContext{
		Segments:       p.segments,
		Tracker:        p.tracker,
		Metadata:       p.cfg.Metadata,
		TargetDuration: p.cfg.TargetDuration,
		PlaylistType:   PlaylistTypeNone,
		HasEndList:     p.ended,
		Version:        p.cfg.Version,
		InitSegmentURI: p.cfg.InitSegmentURI,
	})
}

// AddPartialSegment is a stub: LL-HLS partial-segment delivery is out of
// scope. It validates that the named parent segment exists and otherwise
// errors.
func (p *SlidingWindowPlaylist) AddPartialSegment(parentIndex int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.segments {
		if s.Index == parentIndex {
			return nil
		}
	}
	return hlserr.New(hlserr.ParentSegmentNotFound, "parent segment not found")
}
