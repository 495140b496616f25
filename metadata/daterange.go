/*
DESCRIPTION
  daterange.go - DateRangeManager: an insertion-ordered, serialized map of
  EXT-X-DATERANGE state, backing both ad-hoc date ranges and (via
  InterstitialManager) HLS interstitials.

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
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ausocean/hlsorigin/hlserr"
)

// DateRangeState is the lifecycle state of a ManagedDateRange.
type DateRangeState int

const (
	DateRangeOpen DateRangeState = iota
	DateRangeClosed
	DateRangeExpired
)

// ManagedDateRange is one EXT-X-DATERANGE entry under management.
type ManagedDateRange struct {
	ID                string
	Class             string
	StartDate         time.Time
	EndDate           time.Time
	HasEndDate        bool
	Duration          float64
	HasDuration       bool
	PlannedDuration   float64
	HasPlannedDuration bool
	EndOnNext         bool
	SCTE35Cmd         string
	SCTE35Out         string
	SCTE35In          string
	CustomAttributes  map[string]string

	State DateRangeState

	seq int64 // insertion order, assigned by DateRangeManager
}

// effectiveEnd returns the range's effective end time for eviction
// purposes: EndDate if set, else StartDate + Duration (or
// PlannedDuration, or just StartDate if neither is known).
func (r *ManagedDateRange) effectiveEnd() time.Time {
	if r.HasEndDate {
		return r.EndDate
	}
	if r.HasDuration {
		return r.StartDate.Add(time.Duration(r.Duration * float64(time.Second)))
	}
	if r.HasPlannedDuration {
		return r.StartDate.Add(time.Duration(r.PlannedDuration * float64(time.Second)))
	}
	return r.StartDate
}

// DateRangeManager is a serialized, insertion-ordered mapping from id to
// ManagedDateRange. Every exported method is mutex-guarded, matching the
// single-owner style used for the playlist managers.
type DateRangeManager struct {
	mu     sync.Mutex
	ranges map[string]*ManagedDateRange
	next   int64
}

// NewDateRangeManager returns an empty DateRangeManager.
func NewDateRangeManager() *DateRangeManager {
	return &DateRangeManager{ranges: make(map[string]*ManagedDateRange)}
}

// Open creates a new open date range. customAttributes may be nil.
func (m *DateRangeManager) Open(id string, startDate time.Time, class string, plannedDuration *float64, customAttributes map[string]string) *ManagedDateRange {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &ManagedDateRange{
		ID:               id,
		Class:            class,
		StartDate:        startDate,
		State:            DateRangeOpen,
		CustomAttributes: cloneAttrs(customAttributes),
		seq:              m.next,
	}
	if plannedDuration != nil {
		r.PlannedDuration = *plannedDuration
		r.HasPlannedDuration = true
	}
	m.next++
	m.ranges[id] = r
	return r
}

// Restore inserts r directly, preserving its State and field values,
// assigning it the next insertion-order sequence number. Used to
// rehydrate a manager from persisted storage after a restart; r.ID must
// not already be present.
func (m *DateRangeManager) Restore(r *ManagedDateRange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.CustomAttributes == nil {
		r.CustomAttributes = make(map[string]string)
	}
	r.seq = m.next
	m.next++
	m.ranges[r.ID] = r
}

// Update merges customAttributes into the existing range's custom
// attributes.
func (m *DateRangeManager) Update(id string, customAttributes map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ranges[id]
	if !ok {
		return hlserr.New(hlserr.UnknownID, "unknown date range id")
	}
	if r.CustomAttributes == nil {
		r.CustomAttributes = make(map[string]string)
	}
	for k, v := range customAttributes {
		r.CustomAttributes[k] = v
	}
	return nil
}

// Close transitions a range to closed.
func (m *DateRangeManager) Close(id string, endDate *time.Time, duration *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ranges[id]
	if !ok {
		return hlserr.New(hlserr.UnknownID, "unknown date range id")
	}
	if endDate != nil {
		r.EndDate = *endDate
		r.HasEndDate = true
	}
	if duration != nil {
		r.Duration = *duration
		r.HasDuration = true
	}
	r.State = DateRangeClosed
	return nil
}

// Expire transitions a range to expired.
func (m *DateRangeManager) Expire(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ranges[id]
	if !ok {
		return hlserr.New(hlserr.UnknownID, "unknown date range id")
	}
	r.State = DateRangeExpired
	return nil
}

// EvictBefore transitions every closed range whose effective end
// precedes cutoff to expired.
func (m *DateRangeManager) EvictBefore(cutoff time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ranges {
		if r.State == DateRangeClosed && r.effectiveEnd().Before(cutoff) {
			r.State = DateRangeExpired
		}
	}
}

// PurgeExpired removes every expired range from the manager.
func (m *DateRangeManager) PurgeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.ranges {
		if r.State == DateRangeExpired {
			delete(m.ranges, id)
		}
	}
}

// Get returns the range with the given id, if present.
func (m *DateRangeManager) Get(id string) (*ManagedDateRange, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ranges[id]
	return r, ok
}

// All returns every range currently held, in insertion order.
func (m *DateRangeManager) All() []*ManagedDateRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked(func(*ManagedDateRange) bool { return true })
}

func (m *DateRangeManager) sortedLocked(keep func(*ManagedDateRange) bool) []*ManagedDateRange {
	out := make([]*ManagedDateRange, 0, len(m.ranges))
	for _, r := range m.ranges {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// RenderDateRanges emits one "#EXT-X-DATERANGE:" line per non-expired
// range, in insertion order.
func (m *DateRangeManager) RenderDateRanges() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ranges := m.sortedLocked(func(r *ManagedDateRange) bool { return r.State != DateRangeExpired })

	lines := make([]string, 0, len(ranges))
	for _, r := range ranges {
		lines = append(lines, renderDateRangeTag(r))
	}
	return lines
}

func renderDateRangeTag(r *ManagedDateRange) string {
	var attrs []string
	add := func(k, v string) { attrs = append(attrs, fmt.Sprintf("%s=%q", k, v)) }

	add("ID", r.ID)
	if r.Class != "" {
		add("CLASS", r.Class)
	}
	add("START-DATE", FormatISO8601(r.StartDate))
	if r.HasEndDate {
		add("END-DATE", FormatISO8601(r.EndDate))
	}
	if r.HasDuration {
		attrs = append(attrs, fmt.Sprintf("DURATION=%s", formatDecimal(r.Duration)))
	}
	if r.HasPlannedDuration {
		attrs = append(attrs, fmt.Sprintf("PLANNED-DURATION=%s", formatDecimal(r.PlannedDuration)))
	}
	if r.EndOnNext {
		attrs = append(attrs, "END-ON-NEXT=YES")
	}
	if r.SCTE35Cmd != "" {
		attrs = append(attrs, fmt.Sprintf("SCTE35-CMD=%s", r.SCTE35Cmd))
	}
	if r.SCTE35Out != "" {
		attrs = append(attrs, fmt.Sprintf("SCTE35-OUT=%s", r.SCTE35Out))
	}
	if r.SCTE35In != "" {
		attrs = append(attrs, fmt.Sprintf("SCTE35-IN=%s", r.SCTE35In))
	}

	keys := make([]string, 0, len(r.CustomAttributes))
	for k := range r.CustomAttributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, r.CustomAttributes[k])
	}

	return "#EXT-X-DATERANGE:" + strings.Join(attrs, ",")
}

func formatDecimal(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}

// FormatISO8601 formats t as an ISO-8601 UTC timestamp with millisecond
// precision and a trailing Z, matching the format used by the playlist
// renderer's EXT-X-PROGRAM-DATE-TIME tags.
func FormatISO8601(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ParseISO8601 parses a timestamp produced by FormatISO8601. Returns the
// zero time for an empty string.
func ParseISO8601(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02T15:04:05.000Z", s)
}

func cloneAttrs(src map[string]string) map[string]string {
	if src == nil {
		return make(map[string]string)
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
