/*
DESCRIPTION
  livemodel defines the data types shared between the MPEG-TS muxer, the
  live playlist managers and the timed-metadata subsystem: a LiveSegment
  (one completed media segment), a SampleData (one encoded sample fed to
  the muxer) and a TSCodecConfig (the per-segment codec descriptor).

  A LiveSegment is an in-memory, immutable record owned exclusively by
  whichever playlist holds it, not a datastore entity.

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

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package livemodel defines the live-streaming data model: LiveSegment,
// SampleData and TSCodecConfig.
package livemodel

import "time"

// LiveSegment is one completed media segment produced by an external
// segmenter. Its Index is globally monotonic across the stream's lifetime
// and is never reused. A LiveSegment is immutable once produced and is
// destroyed (i.e. dropped) only when evicted from every buffer that holds
// it.
type LiveSegment struct {
	Index           int64     // Globally monotonic segment serial number.
	Data            []byte    // Opaque segment payload (e.g. MPEG-TS bytes).
	Duration        float64   // Segment duration in seconds.
	TimestampTicks  int64     // Presentation time in 90 kHz ticks.
	TimestampSecs   float64   // Presentation time in seconds.
	IsIndependent   bool      // True if the segment starts with a keyframe.
	Discontinuity   bool      // True if the segment follows a mux-level discontinuity.
	IsGap           bool      // True if this is a gap marker (no media).
	ProgramDateTime time.Time // Wall-clock time of the segment, if known.
	HasPDT          bool      // True if ProgramDateTime is set.
	Filename        string    // Segment filename as rendered in the playlist.
	FrameCount      int       // Number of encoded samples in the segment.
	Codecs          string    // RFC 6381 codec string, e.g. "avc1.640028,mp4a.40.2".
}

// End returns the segment's end time in seconds: TimestampSecs + Duration.
func (s *LiveSegment) End() float64 {
	return s.TimestampSecs + s.Duration
}

// SampleData is one encoded video or audio sample fed to the MPEG-TS muxer.
// For video, Data holds 4-byte-length-prefixed NAL units; for audio, Data
// holds a raw AAC access unit.
type SampleData struct {
	Data     []byte  // Length-prefixed NALUs (video) or raw AAC AU (audio).
	PTS      int64   // Presentation timestamp, 90 kHz ticks (33-bit range).
	DTS      int64   // Decoding timestamp, 90 kHz ticks.
	HasDTS   bool    // True if DTS differs from PTS and should be signaled.
	Duration int64   // Sample duration in 90 kHz ticks.
	IsSync   bool    // True if this sample is a random-access point.
}

// Stream types recognized by the muxer (spec.md §3, §4.1).
const (
	StreamTypeAVC  = 0x1B
	StreamTypeHEVC = 0x24
	StreamTypeAAC  = 0x0F
)

// AACConfig carries the decoded fields of an esds AudioSpecificConfig,
// enough to build an ADTS header.
type AACConfig struct {
	ProfileIndex     byte // MPEG-4 Audio Object Type minus one (see spec.md §9).
	SampleRateIndex  byte // 4-bit ADTS sampling-frequency index.
	ChannelConfig    byte // 3-bit ADTS channel configuration.
}

// TSCodecConfig is a per-segment, read-only codec descriptor built once per
// segment before muxing begins.
type TSCodecConfig struct {
	SPS  []byte // Annex-B-formatted SPS (video), if present.
	PPS  []byte // Annex-B-formatted PPS (video), if present.
	HasVideo bool

	AAC      AACConfig
	HasAudio bool

	VideoStreamType byte // StreamTypeAVC or StreamTypeHEVC.
	AudioStreamType byte // StreamTypeAAC.
}
