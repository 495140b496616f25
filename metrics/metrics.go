/*
DESCRIPTION
  metrics.go - Prometheus instrumentation for the muxer, playlists and
  failover manager.

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

// Package metrics declares the Prometheus collectors exported by an HLS
// origin server process.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SegmentsMuxed counts completed MPEG-TS segments, labeled by
	// rendition.
	SegmentsMuxed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hlsorigin",
		Name:      "segments_muxed_total",
		Help:      "Total number of MPEG-TS segments muxed.",
	}, []string{"rendition"})

	// PacketsWritten counts individual 188-byte TS packets written,
	// labeled by rendition and PID.
	PacketsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hlsorigin",
		Name:      "packets_written_total",
		Help:      "Total number of 188-byte transport-stream packets written.",
	}, []string{"rendition", "pid"})

	// PlaylistSegmentCount is a gauge of the number of segments currently
	// resident in a playlist, labeled by rendition.
	PlaylistSegmentCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hlsorigin",
		Name:      "playlist_segment_count",
		Help:      "Number of segments currently resident in a live playlist.",
	}, []string{"rendition"})

	// PlaylistEvictions counts segment evictions, labeled by rendition.
	PlaylistEvictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hlsorigin",
		Name:      "playlist_evictions_total",
		Help:      "Total number of segments evicted from a live playlist.",
	}, []string{"rendition"})

	// FailoverEscalations is a counter of failover escalations, labeled by
	// primary source URI. FailoverManager.ReportFailure does not increment
	// it, and nothing else in this module does either.
	FailoverEscalations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hlsorigin",
		Name:      "failover_escalations_total",
		Help:      "Total number of failover escalations reported per primary source.",
	}, []string{"primary"})

	// FailoverActiveBackup is a gauge of the current backup index in use
	// per primary source; -1 means the primary itself is active.
	FailoverActiveBackup = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hlsorigin",
		Name:      "failover_active_backup_index",
		Help:      "Current backup index in use per primary source (-1 = primary).",
	}, []string{"primary"})

	// DateRangesOpen is a gauge of currently open-or-closed (non-expired)
	// date ranges.
	DateRangesOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hlsorigin",
		Name:      "date_ranges_active",
		Help:      "Number of date ranges not yet purged as expired.",
	})
)

// Registry returns a prometheus.Registerer with every collector above
// registered, ready to be exposed via promhttp.Handler.
func Registry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		SegmentsMuxed,
		PacketsWritten,
		PlaylistSegmentCount,
		PlaylistEvictions,
		FailoverEscalations,
		FailoverActiveBackup,
		DateRangesOpen,
	)
	return r
}
