/*
DESCRIPTION
  hlsoriginserver is the HLS origin toolkit's server binary: it accepts
  encoded samples over HTTP, muxes them into MPEG-TS segments, serves
  sliding-window and DVR media playlists, bridges playlist lifecycle
  events over a websocket, persists timed-metadata state to SQLite, and
  optionally archives segments to S3.

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
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/ausocean/utils/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/hlsorigin/archive"
	"github.com/ausocean/hlsorigin/failover"
	"github.com/ausocean/hlsorigin/store"
)

const loggingLevel = logging.Info

func main() {
	cfg := parseConfig()

	if cfg.Host != "" && net.ParseIP(cfg.Host) == nil {
		panic(fmt.Sprintf("invalid host: %s", cfg.Host))
	}

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(loggingLevel, io.MultiWriter(fileLog), logSuppress)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatal("could not open sqlite store", "error", err)
	}
	defer db.Close()

	var archiver archive.SegmentArchiver
	if cfg.S3Bucket != "" {
		a, err := archive.NewS3Archiver(ctx, archive.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			KeyPrefix: cfg.S3Prefix,
		})
		if err != nil {
			log.Warning("could not construct s3 archiver, archiving disabled", "error", err)
		} else {
			archiver = a
			log.Info("segment archiving enabled", "bucket", cfg.S3Bucket)
		}
	}

	fo := failover.NewFailoverManager()
	bridge := newEventBridge(log)
	manager := NewManager(ctx, fo, archiver, db, bridge, log)
	srv := &server{manager: manager, log: log}

	sched := newScheduler(ctx, manager, log)
	if err := sched.scheduleSpec(cfg.PurgeInterval); err != nil {
		log.Fatal("could not schedule purge sweep", "error", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.healthz)
	mux.HandleFunc("/streams", srv.createStream)
	mux.HandleFunc("/streams/", routeStreamPath(srv))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/events", bridge.ServeHTTP)

	httpServer := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "host", cfg.Host, "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
	}
	log.Info("shutdown complete")
}

// routeStreamPath dispatches requests under /streams/ to the segment
// ingestion, live playlist or DVR playlist handler based on suffix,
// since http.ServeMux's pattern matching can't express per-stream
// wildcard routes on Go's older mux.
func routeStreamPath(srv *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case hasSuffixPath(r.URL.Path, "/segments"):
			srv.ingest(w, r)
		case hasSuffixPath(r.URL.Path, "/dvr.m3u8"):
			srv.dvrPlaylist(w, r)
		case hasSuffixPath(r.URL.Path, "/playlist.m3u8"):
			srv.playlist(w, r)
		default:
			http.NotFound(w, r)
		}
	}
}
