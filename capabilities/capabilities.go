/*
DESCRIPTION
  capabilities.go - the external capability interfaces the core consumes
  but does not implement: transcoding, managed-transcoding-provider
  polling, HTTP transport, thumbnail extraction and raw audio/video
  encoding. Realizations live outside this module.

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

// Package capabilities declares the abstract external interfaces consumed
// by the HLS origin core (spec.md §6). None are implemented here.
package capabilities

import (
	"context"
	"image"
	"time"
)

// TranscodeConfig configures one Transcoder invocation.
type TranscodeConfig struct {
	VideoBitrateKbps int
	AudioBitrateKbps int
	Resolution       string
	SegmentDuration  float64
}

// TranscodeProgress reports incremental progress from a Transcoder.
type TranscodeProgress struct {
	PercentComplete float64
	ElapsedSeconds  float64
}

// TranscodeResult is the outcome of a completed Transcoder run.
type TranscodeResult struct {
	OutputPaths []string
	Duration    float64
}

// Transcoder runs a synchronous, local transcode of input into outputDir.
type Transcoder interface {
	Transcode(ctx context.Context, input string, outputDir string, cfg TranscodeConfig, progress func(TranscodeProgress)) (TranscodeResult, error)
}

// JobStatus is the lifecycle state of a ManagedTranscodingProvider job.
type JobStatus int

const (
	JobQueued JobStatus = iota
	JobRunning
	JobComplete
	JobFailed
)

// ManagedTranscodingProvider drives a remote, asynchronous transcoding
// service: upload source media, create a job, poll its status, download
// the result, and clean up remote state.
type ManagedTranscodingProvider interface {
	Upload(ctx context.Context, localPath string) (remoteRef string, err error)
	CreateJob(ctx context.Context, remoteRef string, cfg TranscodeConfig) (jobID string, err error)
	CheckStatus(ctx context.Context, jobID string) (JobStatus, error)
	Download(ctx context.Context, jobID string, destPath string) error
	Cleanup(ctx context.Context, jobID string) error

	// PollingInterval and Timeout give the CheckStatus polling cadence and
	// the overall job deadline. Nothing in this module polls a provider or
	// reports its failures to the FailoverManager.
	PollingInterval() time.Duration
	Timeout() time.Duration
}

// HttpClient abstracts outbound HTTP so that the core can be tested
// without a real network.
type HttpClient interface {
	Request(ctx context.Context, method, url string, body []byte, headers map[string]string) (status int, respBody []byte, err error)
	Upload(ctx context.Context, url string, body []byte, progress func(sent, total int64)) error
	Download(ctx context.Context, url string, progress func(received, total int64)) ([]byte, error)
}

// ThumbnailImageProvider extracts a single still image from a decoded
// segment at the given presentation timestamp.
type ThumbnailImageProvider interface {
	Extract(segmentBytes []byte, timestamp time.Duration, size image.Point) (imageBytes []byte, err error)
}

// AudioEncoder configures and drives a streaming audio encoder.
type AudioEncoder interface {
	Configure(cfg AudioEncoderConfig) error
	Encode(buffer []byte) ([]EncodedFrame, error)
	Flush() ([]EncodedFrame, error)
	Teardown() error
}

// VideoEncoder configures and drives a streaming video encoder.
type VideoEncoder interface {
	Configure(cfg VideoEncoderConfig) error
	Encode(buffer []byte) ([]EncodedFrame, error)
	Flush() ([]EncodedFrame, error)
	Teardown() error
}

// AudioEncoderConfig configures an AudioEncoder.
type AudioEncoderConfig struct {
	SampleRate int
	Channels   int
	BitrateKbps int
}

// VideoEncoderConfig configures a VideoEncoder.
type VideoEncoderConfig struct {
	Width, Height int
	FrameRate     float64
	BitrateKbps   int
	KeyframeEvery int // Frames between forced keyframes.
}

// EncodedFrame is one frame emitted by an AudioEncoder or VideoEncoder.
type EncodedFrame struct {
	Data     []byte
	PTS      int64 // 90 kHz ticks.
	IsSync   bool
}
