/*
DESCRIPTION
  config.go - flag-based bootstrap configuration for the origin server,
  following vidforward's flag.String pattern rather than introducing a
  config framework the teacher never used.

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
	"flag"
	"strings"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Server defaults.
const (
	defaultHost = ""
	defaultPort = "8080"

	defaultWindowSize     = 6
	defaultTargetDuration = 6
	defaultDVRWindowSecs  = 3600.0

	defaultPurgeInterval = 30 * time.Second
)

// Logging configuration, following vidforward/main.go's constants.
const (
	logPath      = "/var/log/hlsoriginserver/hlsoriginserver.log"
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logSuppress  = true
)

// Config holds the server's runtime configuration, populated from flags.
type Config struct {
	Host string
	Port string

	WindowSize     int
	TargetDuration int
	DVRWindowSecs  float64

	SQLitePath string

	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3Prefix   string

	PurgeInterval time.Duration
}

// parseConfig builds a Config from command-line flags.
func parseConfig() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Host, "host", defaultHost, "Host IP to listen on.")
	flag.StringVar(&cfg.Port, "port", defaultPort, "Port to listen on.")
	flag.IntVar(&cfg.WindowSize, "window-size", defaultWindowSize, "Sliding-window playlist segment count.")
	flag.IntVar(&cfg.TargetDuration, "target-duration", defaultTargetDuration, "Fallback EXT-X-TARGETDURATION in seconds.")
	flag.Float64Var(&cfg.DVRWindowSecs, "dvr-window-secs", defaultDVRWindowSecs, "DVR playlist retention window in seconds.")
	flag.StringVar(&cfg.SQLitePath, "sqlite-path", "hlsorigin.db", "Path to the SQLite date-range store.")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", "", "S3 bucket for archived segments (disabled if empty).")
	flag.StringVar(&cfg.S3Region, "s3-region", "us-east-1", "S3 region.")
	flag.StringVar(&cfg.S3Endpoint, "s3-endpoint", "", "S3-compatible endpoint override (e.g. MinIO).")
	flag.StringVar(&cfg.S3Prefix, "s3-prefix", "", "S3 key prefix for archived segments.")
	flag.DurationVar(&cfg.PurgeInterval, "purge-interval", defaultPurgeInterval, "Interval between date-range purge sweeps.")
	flag.Parse()

	return cfg
}

// hasSuffixPath reports whether path ends with suffix.
func hasSuffixPath(path, suffix string) bool {
	return strings.HasSuffix(path, suffix)
}
