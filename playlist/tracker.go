/*
DESCRIPTION
  tracker.go - MediaSequenceTracker, the small state machine that tracks
  media/discontinuity sequence numbers as segments are evicted from a
  playlist.

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

// Package playlist implements the live playlist managers: the
// sliding-window, event and DVR playlists, their shared sequence tracker,
// and the M3U8 renderer.
package playlist

// MediaSequenceTracker tracks the current media sequence (the first
// segment's serial number), the discontinuity sequence, running
// added/evicted counters, a pending-discontinuity flag, and the set of
// still-resident segment indices whose predecessor carried a
// discontinuity.
//
// Invariants (spec.md §3):
//   - mediaSequence increases monotonically by exactly 1 per eviction.
//   - discontinuitySequence increases by 1 only when an evicted segment
//     carried a preceding discontinuity.
//   - the discontinuity-index set contains only indices still resident in
//     the playlist.
type MediaSequenceTracker struct {
	mediaSequence         int64
	discontinuitySequence int64
	added                 int64
	evicted               int64
	pendingDiscontinuity  bool
	discontinuityIndices  map[int64]bool
}

// NewMediaSequenceTracker returns a tracker starting at sequence zero.
func NewMediaSequenceTracker() *MediaSequenceTracker {
	return &MediaSequenceTracker{discontinuityIndices: make(map[int64]bool)}
}

// MediaSequence returns the current media sequence number.
func (t *MediaSequenceTracker) MediaSequence() int64 { return t.mediaSequence }

// DiscontinuitySequence returns the current discontinuity sequence number.
func (t *MediaSequenceTracker) DiscontinuitySequence() int64 { return t.discontinuitySequence }

// TotalAdded returns the running count of segments ever added.
func (t *MediaSequenceTracker) TotalAdded() int64 { return t.added }

// TotalEvicted returns the running count of segments ever evicted; this
// always equals MediaSequence (spec.md §8).
func (t *MediaSequenceTracker) TotalEvicted() int64 { return t.evicted }

// RecordAdd registers that a new segment (at index idx, carrying
// discontinuity flag disc) has been appended to the playlist.
func (t *MediaSequenceTracker) RecordAdd(idx int64, disc bool) {
	t.added++
	if disc {
		t.discontinuityIndices[idx] = true
	}
}

// RecordEviction registers that the segment at index idx has been evicted.
// carriedDiscontinuity is the evicted segment's own Discontinuity flag: it
// describes the boundary immediately preceding that segment, so the
// boundary leaves the window with it and the discontinuity sequence
// advances by one.
func (t *MediaSequenceTracker) RecordEviction(idx int64, carriedDiscontinuity bool) {
	t.evicted++
	t.mediaSequence++
	if carriedDiscontinuity {
		t.discontinuitySequence++
	}
	delete(t.discontinuityIndices, idx)
}

// HasDiscontinuityBefore reports whether the segment at idx is marked as
// following a discontinuity.
func (t *MediaSequenceTracker) HasDiscontinuityBefore(idx int64) bool {
	return t.discontinuityIndices[idx]
}

// SetMediaSequence forces the starting media sequence, used when a
// playlist is rehydrated from persisted state. The evicted count is set to
// the same value, so TotalEvicted keeps equalling MediaSequence.
func (t *MediaSequenceTracker) SetMediaSequence(seq int64) {
	t.mediaSequence = seq
	t.evicted = seq
}

// SetDiscontinuitySequence forces the starting discontinuity sequence.
func (t *MediaSequenceTracker) SetDiscontinuitySequence(seq int64) { t.discontinuitySequence = seq }
