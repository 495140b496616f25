/*
DESCRIPTION
  handlers.go - HTTP handlers for stream lifecycle, segment ingestion and
  playlist retrieval, following vidforward's http.HandleFunc-per-concern
  style rather than a router framework.

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
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/livemodel"
	"github.com/ausocean/hlsorigin/metadata"
)

// server bundles the handler dependencies. Its methods are registered
// against the http.ServeMux built in main, following vidforward's
// HandleFunc-per-route registration style.
type server struct {
	manager *Manager
	log     logging.Logger
}

// createStreamBody is the wire shape for POST /streams.
type createStreamBody struct {
	Name           string `json:"name"`
	WindowSize     int    `json:"windowSize"`
	TargetDuration int    `json:"targetDuration"`
	DVR            bool   `json:"dvr"`
	DVRWindowSecs  float64 `json:"dvrWindowSecs"`
	PDTPolicy      string `json:"pdtPolicy"` // "every_segment" | "every_n" | "on_discontinuity"
	PDTEveryN      int    `json:"pdtEveryN"`
	SPSBase64      string `json:"spsBase64"`
	PPSBase64      string `json:"ppsBase64"`
	HasVideo       bool   `json:"hasVideo"`
	HasAudio       bool   `json:"hasAudio"`
}

func (srv *server) createStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body createStreamBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if body.WindowSize <= 0 {
		body.WindowSize = defaultWindowSize
	}
	if body.TargetDuration <= 0 {
		body.TargetDuration = defaultTargetDuration
	}
	if body.DVRWindowSecs <= 0 {
		body.DVRWindowSecs = defaultDVRWindowSecs
	}

	sps, _ := base64.StdEncoding.DecodeString(body.SPSBase64)
	pps, _ := base64.StdEncoding.DecodeString(body.PPSBase64)

	policy := metadata.PDTEverySegment
	switch body.PDTPolicy {
	case "every_n":
		policy = metadata.PDTEveryNSegments
	case "on_discontinuity":
		policy = metadata.PDTOnDiscontinuity
	}

	_, err := srv.manager.CreateStream(CreateStreamRequest{
		Name: body.Name,
		Codec: livemodel.TSCodecConfig{
			SPS:             sps,
			PPS:             pps,
			HasVideo:        body.HasVideo,
			HasAudio:        body.HasAudio,
			VideoStreamType: livemodel.StreamTypeAVC,
			AudioStreamType: livemodel.StreamTypeAAC,
		},
		WindowSize:     body.WindowSize,
		TargetDuration: body.TargetDuration,
		DVR:            body.DVR,
		DVRWindowSecs:  body.DVRWindowSecs,
		PDTPolicy:      policy,
		PDTEveryN:      body.PDTEveryN,
		PDTStreamStart: time.Now(),
	})
	if err != nil {
		srv.writeHLSError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// sampleBody is the wire shape of one encoded sample.
type sampleBody struct {
	DataBase64 string `json:"dataBase64"`
	PTS        int64  `json:"pts"`
	DTS        int64  `json:"dts"`
	HasDTS     bool   `json:"hasDts"`
	Duration   int64  `json:"duration"`
	IsSync     bool   `json:"isSync"`
}

func (b sampleBody) toSample() livemodel.SampleData {
	data, _ := base64.StdEncoding.DecodeString(b.DataBase64)
	return livemodel.SampleData{
		Data:     data,
		PTS:      b.PTS,
		DTS:      b.DTS,
		HasDTS:   b.HasDTS,
		Duration: b.Duration,
		IsSync:   b.IsSync,
	}
}

// ingestBody is the wire shape for POST /streams/{name}/segments.
type ingestBody struct {
	Video         []sampleBody `json:"video"`
	Audio         []sampleBody `json:"audio"`
	Discontinuity bool         `json:"discontinuity"`
	IsGap         bool         `json:"isGap"`
}

func (srv *server) ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := streamNameFromPath(r.URL.Path, "/streams/", "/segments")
	s, ok := srv.manager.Stream(name)
	if !ok {
		http.Error(w, "unknown stream", http.StatusNotFound)
		return
	}

	var body ingestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req := IngestRequest{Discontinuity: body.Discontinuity, IsGap: body.IsGap}
	for _, v := range body.Video {
		req.Video = append(req.Video, v.toSample())
	}
	for _, a := range body.Audio {
		req.Audio = append(req.Audio, a.toSample())
	}

	if err := s.Ingest(r.Context(), req); err != nil {
		srv.writeHLSError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *server) playlist(w http.ResponseWriter, r *http.Request) {
	name := streamNameFromPath(r.URL.Path, "/streams/", "/playlist.m3u8")
	s, ok := srv.manager.Stream(name)
	if !ok {
		http.Error(w, "unknown stream", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Write([]byte(s.RenderSliding()))
}

func (srv *server) dvrPlaylist(w http.ResponseWriter, r *http.Request) {
	name := streamNameFromPath(r.URL.Path, "/streams/", "/dvr.m3u8")
	s, ok := srv.manager.Stream(name)
	if !ok {
		http.Error(w, "unknown stream", http.StatusNotFound)
		return
	}
	out := s.RenderDVR()
	if out == "" {
		http.Error(w, "dvr not configured for stream", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Write([]byte(out))
}

func (srv *server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok\n"))
}

func (srv *server) writeHLSError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if he, ok := err.(*hlserr.Error); ok {
		switch he.Kind {
		case hlserr.StreamEnded, hlserr.InvalidSegmentIndex, hlserr.ParentSegmentNotFound, hlserr.UnknownID:
			code = http.StatusConflict
		case hlserr.InvalidConfiguration, hlserr.InvalidAvcConfig, hlserr.InvalidAudioConfig, hlserr.UnsupportedCodec:
			code = http.StatusBadRequest
		}
	}
	srv.log.Error("request failed", "error", err)
	http.Error(w, err.Error(), code)
}

// streamNameFromPath extracts the {name} segment from a path of the form
// prefix + name + suffix.
func streamNameFromPath(path, prefix, suffix string) string {
	name := strings.TrimPrefix(path, prefix)
	name = strings.TrimSuffix(name, suffix)
	return name
}
