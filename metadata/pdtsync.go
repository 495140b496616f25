/*
DESCRIPTION
  pdtsync.go - ProgramDateTimeSync: tracks accumulated media time against
  a wall-clock stream start date, and decides per-segment whether an
  EXT-X-PROGRAM-DATE-TIME tag should be emitted.

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

// PDTPolicy selects when ProgramDateTimeSync emits a tag.
type PDTPolicy int

const (
	// PDTEverySegment emits a tag on every segment.
	PDTEverySegment PDTPolicy = iota
	// PDTEveryNSegments emits a tag when index % N == 0 (N from
	// ProgramDateTimeSync.N); N <= 0 behaves like PDTEverySegment.
	PDTEveryNSegments
	// PDTOnDiscontinuity emits a tag for index 0 and for any segment that
	// follows a discontinuity.
	PDTOnDiscontinuity
)

// ProgramDateTimeSync carries a wall-clock stream start date and the
// accumulated media time observed so far, and decides per the configured
// policy whether a given segment should carry EXT-X-PROGRAM-DATE-TIME.
type ProgramDateTimeSync struct {
	mu sync.Mutex

	streamStartDate      time.Time
	accumulatedMediaTime float64
	segmentCount         int64
	createdAt            time.Time

	Policy PDTPolicy
	N      int // Used only when Policy == PDTEveryNSegments.
}

// NewProgramDateTimeSync returns a ProgramDateTimeSync anchored at
// streamStartDate, using now as its creation timestamp for drift
// reporting.
func NewProgramDateTimeSync(streamStartDate, now time.Time, policy PDTPolicy) *ProgramDateTimeSync {
	return &ProgramDateTimeSync{
		streamStartDate: streamStartDate,
		createdAt:       now,
		Policy:          policy,
	}
}

// AdvanceAndGetDate returns streamStartDate + accumulatedMediaTime, then
// advances accumulatedMediaTime by segmentDuration.
func (s *ProgramDateTimeSync) AdvanceAndGetDate(segmentDuration float64) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceAndGetDateLocked(segmentDuration)
}

func (s *ProgramDateTimeSync) advanceAndGetDateLocked(segmentDuration float64) time.Time {
	date := s.streamStartDate.Add(time.Duration(s.accumulatedMediaTime * float64(time.Second)))
	s.accumulatedMediaTime += segmentDuration
	return date
}

// TagForSegment advances the clock unconditionally and returns
// (date, true) only if the configured policy fires for this segment
// index; otherwise returns (date, false). The date is always the value
// that would have been emitted had the policy fired.
func (s *ProgramDateTimeSync) TagForSegment(index int64, segmentDuration float64, followsDiscontinuity bool) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date := s.advanceAndGetDateLocked(segmentDuration)
	s.segmentCount++

	var fires bool
	switch s.Policy {
	case PDTEverySegment:
		fires = true
	case PDTEveryNSegments:
		if s.N <= 0 {
			fires = true
		} else {
			fires = index%int64(s.N) == 0
		}
	case PDTOnDiscontinuity:
		fires = index == 0 || followsDiscontinuity
	}
	return date, fires
}

// SegmentCount returns the number of segments observed so far.
func (s *ProgramDateTimeSync) SegmentCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.segmentCount
}

// Drift returns the difference between the wall-clock time elapsed since
// creation and the accumulated media time, in seconds: a positive value
// means the encoder is falling behind real time.
func (s *ProgramDateTimeSync) Drift(now time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallElapsed := now.Sub(s.createdAt).Seconds()
	return wallElapsed - s.accumulatedMediaTime
}
