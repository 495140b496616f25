/*
DESCRIPTION
  store.go - SQLite-backed persistence for DateRangeManager and
  InterstitialManager state, so a restarted origin can rehydrate
  in-flight date ranges rather than losing them across a process
  restart.

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

// Package store persists timed-metadata state to a local SQLite
// database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"

	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/metadata"
)

const schema = `
CREATE TABLE IF NOT EXISTS date_ranges (
	id                 TEXT PRIMARY KEY,
	class              TEXT,
	start_date         TEXT NOT NULL,
	end_date           TEXT,
	has_end_date       INTEGER NOT NULL,
	duration           REAL,
	has_duration       INTEGER NOT NULL,
	planned_duration   REAL,
	has_planned        INTEGER NOT NULL,
	end_on_next        INTEGER NOT NULL,
	scte35_cmd         TEXT,
	scte35_out         TEXT,
	scte35_in          TEXT,
	state              INTEGER NOT NULL,
	custom_attributes  TEXT NOT NULL
);
`

// SQLiteStore is a SQLite-backed persistence layer for date-range state.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database at path and
// ensures its schema exists.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, hlserr.Wrap(hlserr.InvalidConfiguration, "failed to open sqlite store", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, hlserr.Wrap(hlserr.InvalidConfiguration, "failed to apply sqlite schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// SaveDateRange upserts one date range's full state.
func (s *SQLiteStore) SaveDateRange(ctx context.Context, r *metadata.ManagedDateRange) error {
	attrs, err := json.Marshal(r.CustomAttributes)
	if err != nil {
		return hlserr.Wrap(hlserr.InvalidConfiguration, "failed to marshal custom attributes", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO date_ranges (
			id, class, start_date, end_date, has_end_date, duration,
			has_duration, planned_duration, has_planned, end_on_next,
			scte35_cmd, scte35_out, scte35_in, state, custom_attributes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			class=excluded.class, start_date=excluded.start_date,
			end_date=excluded.end_date, has_end_date=excluded.has_end_date,
			duration=excluded.duration, has_duration=excluded.has_duration,
			planned_duration=excluded.planned_duration, has_planned=excluded.has_planned,
			end_on_next=excluded.end_on_next, scte35_cmd=excluded.scte35_cmd,
			scte35_out=excluded.scte35_out, scte35_in=excluded.scte35_in,
			state=excluded.state, custom_attributes=excluded.custom_attributes
	`,
		r.ID, r.Class, metadata.FormatISO8601(r.StartDate), metadata.FormatISO8601(r.EndDate),
		boolToInt(r.HasEndDate), r.Duration, boolToInt(r.HasDuration),
		r.PlannedDuration, boolToInt(r.HasPlannedDuration), boolToInt(r.EndOnNext),
		r.SCTE35Cmd, r.SCTE35Out, r.SCTE35In, int(r.State), string(attrs),
	)
	if err != nil {
		return hlserr.Wrap(hlserr.InvalidConfiguration, "failed to save date range", err)
	}
	return nil
}

// DeleteDateRange removes a persisted date range by id.
func (s *SQLiteStore) DeleteDateRange(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM date_ranges WHERE id = ?`, id); err != nil {
		return hlserr.Wrap(hlserr.InvalidConfiguration, "failed to delete date range", err)
	}
	return nil
}

// LoadDateRanges reads every persisted date range back into a
// DateRangeManager via Restore, in the order they were originally
// inserted.
func (s *SQLiteStore) LoadDateRanges(ctx context.Context, into *metadata.DateRangeManager) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, class, start_date, end_date, has_end_date, duration,
		       has_duration, planned_duration, has_planned, end_on_next,
		       scte35_cmd, scte35_out, scte35_in, state, custom_attributes
		FROM date_ranges ORDER BY rowid ASC
	`)
	if err != nil {
		return hlserr.Wrap(hlserr.InvalidConfiguration, "failed to query date ranges", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, class, startDate, endDate                           string
			hasEndDate, hasDuration, hasPlanned, endOnNext          int
			duration, planned                                      float64
			scte35Cmd, scte35Out, scte35In                          string
			state                                                   int
			attrsJSON                                               string
		)
		if err := rows.Scan(&id, &class, &startDate, &endDate, &hasEndDate, &duration,
			&hasDuration, &planned, &hasPlanned, &endOnNext,
			&scte35Cmd, &scte35Out, &scte35In, &state, &attrsJSON); err != nil {
			return hlserr.Wrap(hlserr.InvalidConfiguration, "failed to scan date range row", err)
		}

		start, err := metadata.ParseISO8601(startDate)
		if err != nil {
			return hlserr.Wrap(hlserr.InvalidConfiguration, "failed to parse start_date", err)
		}
		end, err := metadata.ParseISO8601(endDate)
		if err != nil {
			return hlserr.Wrap(hlserr.InvalidConfiguration, "failed to parse end_date", err)
		}
		var attrs map[string]string
		if err := json.Unmarshal([]byte(attrsJSON), &attrs); err != nil {
			return hlserr.Wrap(hlserr.InvalidConfiguration, "failed to unmarshal custom attributes", err)
		}

		into.Restore(&metadata.ManagedDateRange{
			ID:                 id,
			Class:              class,
			StartDate:          start,
			EndDate:            end,
			HasEndDate:         hasEndDate != 0,
			Duration:           duration,
			HasDuration:        hasDuration != 0,
			PlannedDuration:    planned,
			HasPlannedDuration: hasPlanned != 0,
			EndOnNext:          endOnNext != 0,
			SCTE35Cmd:          scte35Cmd,
			SCTE35Out:          scte35Out,
			SCTE35In:           scte35In,
			State:              metadata.DateRangeState(state),
			CustomAttributes:   attrs,
		})
	}
	return rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
