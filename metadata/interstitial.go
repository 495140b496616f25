/*
DESCRIPTION
  interstitial.go - InterstitialManager and HLSInterstitial: rfc8216bis
  Appendix D interstitials, authored as EXT-X-DATERANGE entries via an
  underlying DateRangeManager.

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
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ausocean/hlsorigin/hlserr"
)

// RestrictFlag is an HLS interstitial navigation restriction.
type RestrictFlag string

const (
	RestrictJump RestrictFlag = "JUMP"
	RestrictSeek RestrictFlag = "SEEK"
)

// Interstitial custom-attribute keys, shared between HLSInterstitial and
// its DateRange encoding.
const (
	attrAssetURI         = "X-ASSET-URI"
	attrAssetList        = "X-ASSET-LIST"
	attrRestrict         = "X-RESTRICT"
	attrResumeOffset     = "X-RESUME-OFFSET"
	attrSkipAfter        = "X-SKIP-AFTER"
	attrSkipButtonStart  = "X-SKIP-BUTTON-START"
	attrApplePreload     = "X-com.apple.hls.preload"
	attrPreloadAhead     = "X-PRELOAD-AHEAD"
)

// HLSInterstitial is one scheduled interstitial: an ad break, bumper, or
// SCTE-35-derived break, authored as a date range with id equal to
// ID.
type HLSInterstitial struct {
	ID            string
	StartDate     time.Time
	AssetURI      string
	AssetListURI  string
	Restrict      []RestrictFlag
	ResumeOffset  *float64
	SkipAfter     *float64
	SkipButton    string
	ApplePreload  string
	PreloadAhead  *float64

	CompletedAt *time.Time
}

// fromDateRange reconstructs an HLSInterstitial from a ManagedDateRange.
// Returns (nil, false) when neither X-ASSET-URI nor X-ASSET-LIST is
// present -- such a range isn't an interstitial.
func fromDateRange(r *ManagedDateRange) (*HLSInterstitial, bool) {
	uri := r.CustomAttributes[attrAssetURI]
	list := r.CustomAttributes[attrAssetList]
	if uri == "" && list == "" {
		return nil, false
	}
	it := &HLSInterstitial{
		ID:           r.ID,
		StartDate:    r.StartDate,
		AssetURI:     uri,
		AssetListURI: list,
		SkipButton:   r.CustomAttributes[attrSkipButtonStart],
		ApplePreload: r.CustomAttributes[attrApplePreload],
	}
	if raw, ok := r.CustomAttributes[attrRestrict]; ok && raw != "" {
		for _, part := range strings.Split(raw, ",") {
			it.Restrict = append(it.Restrict, RestrictFlag(part))
		}
	}
	if v, ok := parseFloatAttr(r.CustomAttributes[attrResumeOffset]); ok {
		it.ResumeOffset = &v
	}
	if v, ok := parseFloatAttr(r.CustomAttributes[attrSkipAfter]); ok {
		it.SkipAfter = &v
	}
	if v, ok := parseFloatAttr(r.CustomAttributes[attrPreloadAhead]); ok {
		it.PreloadAhead = &v
	}
	if r.HasEndDate {
		t := r.EndDate
		it.CompletedAt = &t
	}
	return it, true
}

func parseFloatAttr(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// toCustomAttributes renders it's interstitial-specific fields as the
// custom-attribute map carried by its backing date range. Restrict flags
// are sorted alphabetically and comma-joined.
func (it *HLSInterstitial) toCustomAttributes() map[string]string {
	attrs := make(map[string]string)
	if it.AssetURI != "" {
		attrs[attrAssetURI] = it.AssetURI
	}
	if it.AssetListURI != "" {
		attrs[attrAssetList] = it.AssetListURI
	}
	if len(it.Restrict) > 0 {
		flags := make([]string, len(it.Restrict))
		for i, f := range it.Restrict {
			flags[i] = string(f)
		}
		sort.Strings(flags)
		attrs[attrRestrict] = strings.Join(flags, ",")
	}
	if it.ResumeOffset != nil {
		attrs[attrResumeOffset] = formatDecimal(*it.ResumeOffset)
	}
	if it.SkipAfter != nil {
		attrs[attrSkipAfter] = formatDecimal(*it.SkipAfter)
	}
	if it.SkipButton != "" {
		attrs[attrSkipButtonStart] = it.SkipButton
	}
	if it.ApplePreload != "" {
		attrs[attrApplePreload] = it.ApplePreload
	}
	if it.PreloadAhead != nil {
		attrs[attrPreloadAhead] = formatDecimal(*it.PreloadAhead)
	}
	return attrs
}

// InterstitialManager authors HLSInterstitial values backed by a
// DateRangeManager: every scheduled interstitial also opens a date range
// sharing its id.
type InterstitialManager struct {
	mu         sync.Mutex
	dateRanges *DateRangeManager
	ownsRanges bool
}

// NewInterstitialManager returns an InterstitialManager backed by a
// fresh DateRangeManager.
func NewInterstitialManager() *InterstitialManager {
	return &InterstitialManager{dateRanges: NewDateRangeManager(), ownsRanges: true}
}

// NewInterstitialManagerWithDateRanges returns an InterstitialManager
// sharing an existing DateRangeManager, e.g. one also fed by a
// LiveMetadataInjector (spec.md §5: mutation goes through the
// interstitial manager; other paths only read via RenderDateRanges).
func NewInterstitialManagerWithDateRanges(dr *DateRangeManager) *InterstitialManager {
	return &InterstitialManager{dateRanges: dr}
}

// DateRanges returns the underlying DateRangeManager.
func (m *InterstitialManager) DateRanges() *DateRangeManager { return m.dateRanges }

// ScheduleAd schedules an ad-break interstitial at startDate.
func (m *InterstitialManager) ScheduleAd(assetURI string, startDate time.Time, resumeOffset *float64) *HLSInterstitial {
	return m.schedule(&HLSInterstitial{
		ID:           uuid.NewString(),
		StartDate:    startDate,
		AssetURI:     assetURI,
		ResumeOffset: resumeOffset,
	})
}

// ScheduleBumper schedules a short bumper interstitial with the preset
// JUMP+SEEK navigation restrictions.
func (m *InterstitialManager) ScheduleBumper(assetURI string, startDate time.Time) *HLSInterstitial {
	return m.schedule(&HLSInterstitial{
		ID:        uuid.NewString(),
		StartDate: startDate,
		AssetURI:  assetURI,
		Restrict:  []RestrictFlag{RestrictJump, RestrictSeek},
	})
}

// ScheduleFromSCTE35 schedules an interstitial from an SCTE-35 marker
// carrying a splice_insert command: its break_duration, if present,
// becomes the interstitial's planned duration via the date range.
func (m *InterstitialManager) ScheduleFromSCTE35(marker *SCTE35Marker, startDate time.Time, assetURI string) (*HLSInterstitial, error) {
	if marker.CommandType != SpliceInsert {
		return nil, hlserr.New(hlserr.InvalidConfiguration, "scte-35 marker is not a splice_insert")
	}
	it := &HLSInterstitial{
		ID:        uuid.NewString(),
		StartDate: startDate,
		AssetURI:  assetURI,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var planned *float64
	if marker.BreakDuration.Present {
		d := PTSToSeconds(marker.BreakDuration.Duration)
		planned = &d
	}
	r := m.dateRanges.Open(it.ID, it.StartDate, "com.apple.hls.interstitial", planned, it.toCustomAttributes())
	r.SCTE35Out = marker.Hex()
	return it, nil
}

func (m *InterstitialManager) schedule(it *HLSInterstitial) *HLSInterstitial {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dateRanges.Open(it.ID, it.StartDate, "com.apple.hls.interstitial", nil, it.toCustomAttributes())
	return it
}

// Complete closes the date range backing id with endDate = now.
func (m *InterstitialManager) Complete(id string, now time.Time) error {
	return m.dateRanges.Close(id, &now, nil)
}

// Interstitials returns every interstitial currently tracked, in
// insertion order.
func (m *InterstitialManager) Interstitials() []*HLSInterstitial {
	var out []*HLSInterstitial
	for _, r := range m.dateRanges.All() {
		if it, ok := fromDateRange(r); ok {
			out = append(out, it)
		}
	}
	return out
}

// ActiveInterstitials returns interstitials that have started but not
// completed, as of now.
func (m *InterstitialManager) ActiveInterstitials(now time.Time) []*HLSInterstitial {
	var out []*HLSInterstitial
	for _, it := range m.Interstitials() {
		if !it.StartDate.After(now) && it.CompletedAt == nil {
			out = append(out, it)
		}
	}
	return out
}

// CompletedInterstitials returns interstitials whose date range has been
// closed.
func (m *InterstitialManager) CompletedInterstitials() []*HLSInterstitial {
	var out []*HLSInterstitial
	for _, it := range m.Interstitials() {
		if it.CompletedAt != nil {
			out = append(out, it)
		}
	}
	return out
}

// Upcoming returns interstitials whose start date is strictly after
// `after`, in start-date order.
func (m *InterstitialManager) Upcoming(after time.Time) []*HLSInterstitial {
	var out []*HLSInterstitial
	for _, it := range m.Interstitials() {
		if it.StartDate.After(after) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}
