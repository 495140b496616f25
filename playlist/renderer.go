/*
DESCRIPTION
  renderer.go - the M3U8 media-playlist renderer: RFC 8216 tag ordering,
  duration/timestamp formatting.

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
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/hlsorigin/livemodel"
)

// PlaylistType selects the EXT-X-PLAYLIST-TYPE tag.
type PlaylistType int

const (
	PlaylistTypeNone PlaylistType = iota
	PlaylistTypeEvent
	PlaylistTypeVOD
)

// Metadata carries the renderer flags and injected tags that aren't
// derived from the segment list itself.
type Metadata struct {
	IndependentSegments bool
	StartOffsetSeconds  *float64
	StartPrecise        bool
	CustomTags          []string // Verbatim lines, each on its own EXT-X-* line.
}

// RenderContext bundles everything PlaylistRenderer needs to produce one
// M3U8 media playlist.
type RenderContext struct {
	Segments        []*livemodel.LiveSegment
	Tracker         *MediaSequenceTracker
	Metadata        Metadata
	TargetDuration  int // Fallback target duration if Segments is empty.
	PlaylistType    PlaylistType
	HasEndList      bool
	Version         int
	InitSegmentURI  string // EXT-X-MAP URI, if non-empty.
}

// PlaylistRenderer renders RenderContext values into M3U8 text.
type PlaylistRenderer struct{}

// NewPlaylistRenderer returns a PlaylistRenderer. It carries no state: all
// inputs are supplied per call via RenderContext.
func NewPlaylistRenderer() *PlaylistRenderer { return &PlaylistRenderer{} }

// Render produces the M3U8 text for ctx, following the tag order in
// spec.md §4.2 exactly.
func (r *PlaylistRenderer) Render(ctx RenderContext) string {
	var lines []string
	add := func(s string) { lines = append(lines, s) }

	add("#EXTM3U")
	add(fmt.Sprintf("#EXT-X-VERSION:%d", ctx.Version))
	add(fmt.Sprintf("#EXT-X-TARGETDURATION:%d", targetDuration(ctx)))
	add(fmt.Sprintf("#EXT-X-MEDIA-SEQUENCE:%d", ctx.Tracker.MediaSequence()))
	if ctx.Tracker.DiscontinuitySequence() > 0 {
		add(fmt.Sprintf("#EXT-X-DISCONTINUITY-SEQUENCE:%d", ctx.Tracker.DiscontinuitySequence()))
	}
	switch ctx.PlaylistType {
	case PlaylistTypeEvent:
		add("#EXT-X-PLAYLIST-TYPE:EVENT")
	case PlaylistTypeVOD:
		add("#EXT-X-PLAYLIST-TYPE:VOD")
	}
	if ctx.Metadata.IndependentSegments {
		add("#EXT-X-INDEPENDENT-SEGMENTS")
	}
	if ctx.Metadata.StartOffsetSeconds != nil {
		tag := fmt.Sprintf("#EXT-X-START:TIME-OFFSET=%s", formatDuration(*ctx.Metadata.StartOffsetSeconds))
		if ctx.Metadata.StartPrecise {
			tag += ",PRECISE=YES"
		}
		add(tag)
	}
	for _, t := range ctx.Metadata.CustomTags {
		add(t)
	}
	if ctx.InitSegmentURI != "" {
		add(fmt.Sprintf(`#EXT-X-MAP:URI="%s"`, ctx.InitSegmentURI))
	}

	for _, seg := range ctx.Segments {
		if ctx.Tracker.HasDiscontinuityBefore(seg.Index) {
			add("#EXT-X-DISCONTINUITY")
		}
		if seg.IsGap {
			add("#EXT-X-GAP")
		}
		if seg.HasPDT {
			add(fmt.Sprintf("#EXT-X-PROGRAM-DATE-TIME:%s", FormatISO8601(seg.ProgramDateTime)))
		}
		add(fmt.Sprintf("#EXTINF:%s,", formatDuration(seg.Duration)))
		add(seg.Filename)
	}

	if ctx.HasEndList {
		add("#EXT-X-ENDLIST")
	}

	return strings.Join(lines, "\n") + "\n"
}

// targetDuration returns ceil(max segment duration), or ctx.TargetDuration
// if there are no segments.
func targetDuration(ctx RenderContext) int {
	if len(ctx.Segments) == 0 {
		return ctx.TargetDuration
	}
	max := 0.0
	for _, s := range ctx.Segments {
		if s.Duration > max {
			max = s.Duration
		}
	}
	return int(math.Ceil(max))
}

// formatDuration formats a duration with 3-decimal precision, trimming
// trailing zeros down to but not past one decimal place: 6.006 stays
// 6.006; 6.000 becomes 6.0.
func formatDuration(d float64) string {
	s := strconv.FormatFloat(d, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// FormatISO8601 formats t as an ISO-8601 UTC timestamp with millisecond
// precision and a trailing Z, e.g. "2026-07-29T12:00:00.000Z".
func FormatISO8601(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
