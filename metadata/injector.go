/*
DESCRIPTION
  injector.go - LiveMetadataInjector: the coordinator that combines
  PROGRAM-DATE-TIME synchronization, date ranges, interstitials and a
  queued batch of ID3 frames into one per-segment metadata bundle.

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

package metadata

import (
	"sync"
	"time"
)

// SegmentMetadata is the bundle LiveMetadataInjector returns for one
// about-to-be-finalized segment.
type SegmentMetadata struct {
	ProgramDateTime    time.Time
	HasProgramDateTime bool
	DateRanges         []string // Rendered "#EXT-X-DATERANGE:" lines.
	Interstitials      []*HLSInterstitial
	ID3Data            []byte // Concatenated serialized ID3 tags, or nil if the queue was empty.
}

// LiveMetadataInjector coordinates the four timed-metadata primitives for
// one live rendition.
type LiveMetadataInjector struct {
	mu sync.Mutex

	pdt           *ProgramDateTimeSync
	dateRanges    *DateRangeManager
	interstitials *InterstitialManager
	id3Queue      []*ID3TimedMetadata
}

// NewLiveMetadataInjector returns a LiveMetadataInjector wired to the
// given PDT policy, sharing dateRanges with interstitials as described in
// spec.md §5: the interstitial manager is the sole writer, the injector
// only reads via RenderDateRanges.
func NewLiveMetadataInjector(pdt *ProgramDateTimeSync, dateRanges *DateRangeManager, interstitials *InterstitialManager) *LiveMetadataInjector {
	return &LiveMetadataInjector{pdt: pdt, dateRanges: dateRanges, interstitials: interstitials}
}

// QueueID3 enqueues a fully-formed ID3TimedMetadata value for delivery on
// the next MetadataForSegment call.
func (inj *LiveMetadataInjector) QueueID3(m *ID3TimedMetadata) {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	inj.id3Queue = append(inj.id3Queue, m)
}

// QueueTrackInfo is a convenience wrapper over QueueID3 adding a TIT2
// (title), TPE1 (artist) and/or TALB (album) frame, whichever are
// non-empty.
func (inj *LiveMetadataInjector) QueueTrackInfo(title, artist, album string) {
	m := &ID3TimedMetadata{}
	if title != "" {
		m.AddTextFrame("TIT2", title)
	}
	if artist != "" {
		m.AddTextFrame("TPE1", artist)
	}
	if album != "" {
		m.AddTextFrame("TALB", album)
	}
	if len(m.Frames) == 0 {
		return
	}
	inj.QueueID3(m)
}

// MetadataForSegment returns the metadata bundle for the segment at
// index, given its duration and whether it follows a discontinuity. The
// ID3 queue is drained on every call.
func (inj *LiveMetadataInjector) MetadataForSegment(index int64, duration float64, isDiscontinuity bool) SegmentMetadata {
	var out SegmentMetadata

	if inj.pdt != nil {
		date, fires := inj.pdt.TagForSegment(index, duration, isDiscontinuity)
		if fires {
			out.ProgramDateTime = date
			out.HasProgramDateTime = true
		}
	}

	if inj.dateRanges != nil {
		out.DateRanges = inj.dateRanges.RenderDateRanges()
	}
	if inj.interstitials != nil {
		out.Interstitials = inj.interstitials.Interstitials()
	}

	inj.mu.Lock()
	queue := inj.id3Queue
	inj.id3Queue = nil
	inj.mu.Unlock()

	if len(queue) > 0 {
		var data []byte
		for _, m := range queue {
			data = append(data, m.Serialize()...)
		}
		out.ID3Data = data
	}

	return out
}
