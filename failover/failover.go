/*
DESCRIPTION
  failover.go - FailoverManager: per-primary-URI backup escalation state,
  used to fail an origin's upstream/transcoding source over to a ranked
  list of backup URIs and report recovery.

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

// Package failover implements the content-steering failover manager: per
// primary-URI backup escalation, tracked independently of whether any
// backups are actually configured.
package failover

import (
	"sync"
	"time"
)

// sourceState is the per-primary escalation record.
type sourceState struct {
	backups           []string
	currentBackupIdx  int // -1 means "on the primary".
	failureCount      int
	lastFailureTime   time.Time
	hasLastFailure    bool
}

// FailoverManager tracks, for each primary URI registered with it, an
// ordered list of backup URIs and the current escalation state. All
// methods are mutex-guarded; only one operation is linearized at a time.
type FailoverManager struct {
	mu      sync.Mutex
	sources map[string]*sourceState
}

// NewFailoverManager returns an empty FailoverManager.
func NewFailoverManager() *FailoverManager {
	return &FailoverManager{sources: make(map[string]*sourceState)}
}

// Register associates primary with an ordered list of backup URIs. Safe
// to call again to replace the backup list; does not reset escalation
// state.
func (f *FailoverManager) Register(primary string, backups []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sources[primary]
	if !ok {
		s = &sourceState{currentBackupIdx: -1}
		f.sources[primary] = s
	}
	s.backups = append([]string(nil), backups...)
}

// ActiveURI returns the URI callers should currently use for primary: the
// primary itself if unknown, not yet failed, or if no backups are
// registered; otherwise the current escalation target, clamped to the
// last backup once escalation has run past the end of the list.
func (f *FailoverManager) ActiveURI(primary string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sources[primary]
	if !ok || s.currentBackupIdx == -1 || len(s.backups) == 0 {
		return primary
	}
	idx := s.currentBackupIdx
	if idx > len(s.backups)-1 {
		idx = len(s.backups) - 1
	}
	return s.backups[idx]
}

// ReportFailure records a failure for primary, advancing the escalation
// index by one (clamped to the last backup). A failure record is created
// even for an unknown primary with no registered backups, so that
// failureCount is tracked from the first reported failure onward.
func (f *FailoverManager) ReportFailure(primary string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sources[primary]
	if !ok {
		s = &sourceState{currentBackupIdx: -1}
		f.sources[primary] = s
	}
	s.failureCount++
	s.lastFailureTime = at
	s.hasLastFailure = true

	s.currentBackupIdx++
	if max := len(s.backups) - 1; s.currentBackupIdx > max {
		s.currentBackupIdx = max
	}
}

// ReportRecovery resets primary's escalation index back to the primary
// (-1). It deliberately does NOT reset failureCount: the failure history
// is kept so that callers (e.g. alerting) can see how many times a
// source has flapped across recoveries.
func (f *FailoverManager) ReportRecovery(primary string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sources[primary]
	if !ok {
		return
	}
	s.currentBackupIdx = -1
}

// Reset clears all tracked state for every primary.
func (f *FailoverManager) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = make(map[string]*sourceState)
}

// Status is a snapshot of one primary's escalation state, returned by
// Status for diagnostics and metrics.
type Status struct {
	Primary          string
	CurrentBackupIdx int
	FailureCount     int
	LastFailureTime  time.Time
	HasLastFailure   bool
}

// Status returns a snapshot of primary's current state. ok is false if
// primary has never been registered or reported a failure.
func (f *FailoverManager) Status(primary string) (Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sources[primary]
	if !ok {
		return Status{}, false
	}
	return Status{
		Primary:          primary,
		CurrentBackupIdx: s.currentBackupIdx,
		FailureCount:     s.failureCount,
		LastFailureTime:  s.lastFailureTime,
		HasLastFailure:   s.hasLastFailure,
	}, true
}
