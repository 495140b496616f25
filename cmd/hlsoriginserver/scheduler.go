/*
DESCRIPTION
  scheduler.go - scheduler: a thin robfig/cron wrapper that runs periodic
  date-range purge sweeps across every registered stream, mirroring
  oceancron's "scheduler implements a scheduler based on robfig/cron"
  wrapper.

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
	"time"

	cron "github.com/robfig/cron/v3"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hlsorigin/metrics"
)

// scheduler runs the periodic purge sweep for every stream's date-range
// manager on a fixed interval, via robfig/cron.
type scheduler struct {
	cron    *cron.Cron
	manager *Manager
	ctx     context.Context
	log     logging.Logger
}

// newScheduler returns a scheduler with its cron runtime started. We will
// not stop the cron explicitly; it is torn down with the process.
func newScheduler(ctx context.Context, m *Manager, log logging.Logger) *scheduler {
	c := cron.New()
	c.Start()
	return &scheduler{cron: c, manager: m, ctx: ctx, log: log}
}

// scheduleSpec installs the purge sweep to run every interval.
func (s *scheduler) scheduleSpec(interval time.Duration) error {
	_, err := s.cron.AddFunc(intervalSpec(interval), s.sweep)
	return err
}

// sweep purges expired date ranges and refreshes the failover/active-
// backup and date-ranges-open gauges for every registered stream.
func (s *scheduler) sweep() {
	now := time.Now()
	var totalOpen int
	for _, name := range s.manager.Names() {
		st, ok := s.manager.Stream(name)
		if !ok {
			continue
		}
		totalOpen += st.Purge(s.ctx, now.Add(-dateRangeRetention))
		s.log.Debug("swept date ranges", "stream", name)

		if s.manager.failover != nil {
			if status, ok := s.manager.failover.Status(name); ok {
				metrics.FailoverActiveBackup.WithLabelValues(name).Set(float64(status.CurrentBackupIdx))
			}
		}
	}
	metrics.DateRangesOpen.Set(float64(totalOpen))
}

// dateRangeRetention bounds how long a closed date range is kept past
// its effective end before the sweep expires it.
const dateRangeRetention = 24 * time.Hour

// intervalSpec renders a robfig/cron "@every" spec for interval.
func intervalSpec(interval time.Duration) string {
	return "@every " + interval.String()
}
