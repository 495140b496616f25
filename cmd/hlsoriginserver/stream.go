/*
DESCRIPTION
  stream.go - Stream: one live rendition's worth of state, wiring the
  MPEG-TS muxer, the sliding-window and DVR playlists, the timed-metadata
  injector and the failover manager into a single ingestion path. Manager
  is the broadcastManager-shaped registry of Streams, keyed by name.

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

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hlsorigin/archive"
	"github.com/ausocean/hlsorigin/failover"
	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/livemodel"
	"github.com/ausocean/hlsorigin/metadata"
	"github.com/ausocean/hlsorigin/metrics"
	"github.com/ausocean/hlsorigin/playlist"
	"github.com/ausocean/hlsorigin/store"
	"github.com/ausocean/hlsorigin/tsmux"
)

// Stream is one named live rendition: the muxer that builds its MPEG-TS
// segments, the sliding-window playlist serving the live edge, the
// optional DVR playlist serving the lookback window, and the
// timed-metadata injector stamping each segment before it is added.
type Stream struct {
	name string
	mu   sync.Mutex

	codec livemodel.TSCodecConfig
	index int64

	sliding    *playlist.SlidingWindowPlaylist
	dvr        *playlist.DVRPlaylist
	injector   *metadata.LiveMetadataInjector
	dateRanges *metadata.DateRangeManager

	archiver archive.SegmentArchiver
	db       *store.SQLiteStore
	log      logging.Logger
}

// IngestRequest describes one batch of encoded samples to mux into a
// single new segment.
type IngestRequest struct {
	Video         []livemodel.SampleData
	Audio         []livemodel.SampleData
	Discontinuity bool
	IsGap         bool
}

// Ingest muxes req into a new MPEG-TS segment, stamps it with the
// stream's timed metadata, and fans it out to the sliding-window and (if
// configured) DVR playlists, then archives the new segment's payload if
// an archiver is configured.
func (s *Stream) Ingest(ctx context.Context, req IngestRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := tsmux.BuildSegment(s.codec, req.Video, req.Audio)
	if err != nil {
		return hlserr.Wrap(hlserr.PacketError, "failed to build segment", err)
	}

	duration, pts := segmentTiming(req)
	meta := s.injector.MetadataForSegment(s.index, duration, req.Discontinuity)

	seg := &livemodel.LiveSegment{
		Index:           s.index,
		Data:            data,
		Duration:        duration,
		TimestampTicks:  pts,
		TimestampSecs:   float64(pts) / 90000.0,
		IsIndependent:   hasSyncSample(req.Video),
		Discontinuity:   req.Discontinuity,
		IsGap:           req.IsGap,
		ProgramDateTime: meta.ProgramDateTime,
		HasPDT:          meta.HasProgramDateTime,
		Filename:        fmt.Sprintf("seg%012d.ts", s.index),
		FrameCount:      len(req.Video) + len(req.Audio),
	}
	s.index++

	seqBefore := s.sliding.MediaSequence()
	if err := s.sliding.AddSegment(seg); err != nil {
		return err
	}
	if s.dvr != nil {
		if err := s.dvr.AddSegment(seg); err != nil {
			return err
		}
	}

	metrics.SegmentsMuxed.WithLabelValues(s.name).Inc()
	for i := 0; i+tsmux.PacketSize <= len(data); i += tsmux.PacketSize {
		pid := uint16(data[i+1]&0x1F)<<8 | uint16(data[i+2])
		metrics.PacketsWritten.WithLabelValues(s.name, fmt.Sprint(pid)).Inc()
	}
	metrics.PlaylistSegmentCount.WithLabelValues(s.name).Set(float64(s.sliding.SegmentCount()))
	metrics.PlaylistEvictions.WithLabelValues(s.name).Add(float64(s.sliding.MediaSequence() - seqBefore))

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, s.name, seg); err != nil {
			s.log.Warning("failed to archive segment", "stream", s.name, "index", seg.Index, "error", err)
		}
	}
	return nil
}

// segmentTiming derives a segment's duration and starting PTS from its
// samples: the duration is the sum of the video track's sample
// durations (falling back to audio if there is no video), and the PTS is
// the first sample's.
func segmentTiming(req IngestRequest) (duration float64, pts int64) {
	samples := req.Video
	if len(samples) == 0 {
		samples = req.Audio
	}
	if len(samples) == 0 {
		return 0, 0
	}
	pts = samples[0].PTS
	var ticks int64
	for _, s := range samples {
		ticks += s.Duration
	}
	return float64(ticks) / 90000.0, pts
}

func hasSyncSample(video []livemodel.SampleData) bool {
	for _, s := range video {
		if s.IsSync {
			return true
		}
	}
	return false
}

// RenderSliding renders the stream's sliding-window (live-edge) playlist.
func (s *Stream) RenderSliding() string {
	return s.sliding.Render()
}

// RenderDVR renders the stream's DVR playlist, or the empty string if
// DVR is not configured for this stream.
func (s *Stream) RenderDVR() string {
	if s.dvr == nil {
		return ""
	}
	return s.dvr.Render()
}

// Purge transitions closed date ranges older than cutoff to expired,
// removes already-expired ranges, and mirrors the resulting state to the
// SQLite store if one is configured. Returns the number still tracked.
func (s *Stream) Purge(ctx context.Context, cutoff time.Time) int {
	s.dateRanges.EvictBefore(cutoff)

	if s.db != nil {
		for _, r := range s.dateRanges.All() {
			if r.State == metadata.DateRangeExpired {
				if err := s.db.DeleteDateRange(ctx, r.ID); err != nil {
					s.log.Warning("failed to delete expired date range", "id", r.ID, "error", err)
				}
			}
		}
	}

	s.dateRanges.PurgeExpired()

	remaining := s.dateRanges.All()
	if s.db != nil {
		for _, r := range remaining {
			if err := s.db.SaveDateRange(ctx, r); err != nil {
				s.log.Warning("failed to persist date range", "id", r.ID, "error", err)
			}
		}
	}
	return len(remaining)
}

// Manager is the registry of Streams, addressed by name, matching the
// broadcastManager shape used by vidforward: a mutex-guarded map
// populated through HTTP handlers.
type Manager struct {
	mu      sync.Mutex
	streams map[string]*Stream

	failover *failover.FailoverManager
	archiver archive.SegmentArchiver
	db       *store.SQLiteStore
	bridge   *eventBridge
	ctx      context.Context
	log      logging.Logger
}

// NewManager returns an empty Manager. Every stream's lifecycle events
// are relayed to bridge for as long as ctx remains live.
func NewManager(ctx context.Context, fo *failover.FailoverManager, archiver archive.SegmentArchiver, db *store.SQLiteStore, bridge *eventBridge, log logging.Logger) *Manager {
	return &Manager{
		streams:  make(map[string]*Stream),
		failover: fo,
		archiver: archiver,
		db:       db,
		bridge:   bridge,
		ctx:      ctx,
		log:      log,
	}
}

// CreateStreamRequest configures a new Stream.
type CreateStreamRequest struct {
	Name           string
	Codec          livemodel.TSCodecConfig
	WindowSize     int
	TargetDuration int
	DVR            bool
	DVRWindowSecs  float64
	PDTPolicy      metadata.PDTPolicy
	PDTEveryN      int
	PDTStreamStart time.Time
}

// CreateStream registers a new Stream under name, replacing any existing
// stream of the same name.
func (m *Manager) CreateStream(req CreateStreamRequest) (*Stream, error) {
	sliding, err := playlist.NewSlidingWindowPlaylist(playlist.SlidingWindowConfig{
		WindowSize:     req.WindowSize,
		TargetDuration: req.TargetDuration,
		Version:        7,
		Metadata:       playlist.Metadata{IndependentSegments: true},
	}, m.log)
	if err != nil {
		return nil, err
	}

	var dvr *playlist.DVRPlaylist
	if req.DVR {
		dvr, err = playlist.NewDVRPlaylist(playlist.DVRConfig{
			MaxWindowSeconds: req.DVRWindowSecs,
			TargetDuration:   req.TargetDuration,
			Version:          7,
		}, m.log)
		if err != nil {
			return nil, err
		}
	}

	pdt := metadata.NewProgramDateTimeSync(req.PDTStreamStart, time.Now(), req.PDTPolicy)
	pdt.N = req.PDTEveryN
	dateRanges := metadata.NewDateRangeManager()
	interstitials := metadata.NewInterstitialManagerWithDateRanges(dateRanges)
	injector := metadata.NewLiveMetadataInjector(pdt, dateRanges, interstitials)

	if m.db != nil {
		if err := m.db.LoadDateRanges(m.ctx, dateRanges); err != nil {
			m.log.Warning("failed to rehydrate date ranges", "stream", req.Name, "error", err)
		}
	}

	s := &Stream{
		name:       req.Name,
		codec:      req.Codec,
		sliding:    sliding,
		dvr:        dvr,
		injector:   injector,
		dateRanges: dateRanges,
		archiver:   m.archiver,
		db:         m.db,
		log:        m.log,
	}

	m.mu.Lock()
	m.streams[req.Name] = s
	m.mu.Unlock()

	if m.failover != nil {
		m.failover.Register(req.Name, nil)
	}
	if m.bridge != nil {
		go m.bridge.Watch(m.ctx, req.Name, sliding.Events())
		if dvr != nil {
			go m.bridge.Watch(m.ctx, req.Name, dvr.Events())
		}
	}
	return s, nil
}

// Stream returns the named stream, if registered.
func (m *Manager) Stream(name string) (*Stream, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[name]
	return s, ok
}

// Names returns every registered stream name.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.streams))
	for name := range m.streams {
		out = append(out, name)
	}
	return out
}

// All returns every registered Stream.
func (m *Manager) All() []*Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Stream, 0, len(m.streams))
	for _, s := range m.streams {
		out = append(out, s)
	}
	return out
}
