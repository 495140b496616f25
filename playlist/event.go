/*
DESCRIPTION
  event.go - EventPlaylist: a never-evicting playlist rendered with
  EXT-X-PLAYLIST-TYPE:EVENT, used for recordings and simulcasts that must
  present the entire history of the stream.

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

	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/livemodel"
)

// EventConfig configures an EventPlaylist.
type EventConfig struct {
	TargetDuration int
	Version        int
	Metadata       Metadata
	InitSegmentURI string
}

// EventPlaylist never evicts segments; it renders EXT-X-PLAYLIST-TYPE:EVENT
// and, once ended, appends EXT-X-ENDLIST.
type EventPlaylist struct {
	mu       sync.Mutex
	cfg      EventConfig
	segments []*livemodel.LiveSegment
	tracker  *MediaSequenceTracker
	renderer *PlaylistRenderer
	events   *eventStream
	ended    bool
}

// NewEventPlaylist returns an empty EventPlaylist.
func NewEventPlaylist(cfg EventConfig) *EventPlaylist {
	return &EventPlaylist{
		cfg:      cfg,
		tracker:  NewMediaSequenceTracker(),
		renderer: NewPlaylistRenderer(),
		events:   newEventStream(),
	}
}

// Events returns the playlist's lifecycle event stream.
func (p *EventPlaylist) Events() <-chan Event { return p.events.Events() }

// AddSegment appends seg. EventPlaylist never evicts, so media sequence
// stays at zero for the playlist's entire life.
func (p *EventPlaylist) AddSegment(seg *livemodel.LiveSegment) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ended {
		return hlserr.New(hlserr.StreamEnded, "playlist has ended")
	}

	p.segments = append(p.segments, seg)
	p.tracker.RecordAdd(seg.Index, seg.Discontinuity)
	p.events.emit(Event{Kind: SegmentAdded, Segment: seg})
	p.events.emit(Event{Kind: PlaylistUpdated})
	return nil
}

// EndStream finishes the playlist: future AddSegment calls fail, and the
// rendered playlist gains a trailing EXT-X-ENDLIST tag.
func (p *EventPlaylist) EndStream() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		return
	}
	p.ended = true
	p.events.emit(Event{Kind: StreamEnded})
	p.events.close()
}

// MediaSequence always returns 0: an EventPlaylist never evicts.
func (p *EventPlaylist) MediaSequence() int64 { return p.tracker.MediaSequence() }

// DiscontinuitySequence always returns 0: an EventPlaylist never evicts.
func (p *EventPlaylist) DiscontinuitySequence() int64 { return p.tracker.DiscontinuitySequence() }

// SegmentCount returns the number of segments ever added.
func (p *EventPlaylist) SegmentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.segments)
}

// AddPartialSegment validates that parentIndex names an added segment.
// Partial-segment delivery itself is out of scope; this exists for surface
// parity with SlidingWindowPlaylist.
func (p *EventPlaylist) AddPartialSegment(parentIndex int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.segments {
		if s.Index == parentIndex {
			return nil
		}
	}
	return hlserr.New(hlserr.ParentSegmentNotFound, "parent segment not found")
}

// Render renders the current playlist state to M3U8 text.
func (p *EventPlaylist) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderer.Render(RenderContext{
		Segments:       p.segments,
		Tracker:        p.tracker,
		Metadata:       p.cfg.Metadata,
		TargetDuration: p.cfg.TargetDuration,
		PlaylistType:   PlaylistTypeEvent,
		HasEndList:     p.ended,
		Version:        p.cfg.Version,
		InitSegmentURI: p.cfg.InitSegmentURI,
	})
}
