/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package remote pushes and pulls whole workspace snapshots to and from a shared Postgres database.
package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"wpuilab/internal/domain"
	applog "wpuilab/internal/log"
)

// ErrNotFound is returned by Pull when no snapshot exists for the stable id.
var ErrNotFound = errors.New("remote workspace not found")

// Store is a Postgres-backed snapshot store.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Snapshot is one pushed version of a workspace.
type Snapshot struct {
	StableID  string
	Version   int64
	CreatedAt time.Time
	Workspace domain.Workspace
}

// Entry is a listing row of a remote workspace.
type Entry struct {
	StableID  string
	Name      string
	Version   int64
	UpdatedAt time.Time
}

// Open connects to the database at dsn. A non-empty password overrides the one in dsn.
func Open(ctx context.Context, dsn, password string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("remote dsn is required")
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if password != "" {
		cfg.Password = password
	}
	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	l := applog.WithComponent("remote").With(slog.String("host", cfg.Host), slog.String("db", cfg.Database))
	return &Store{db: db, log: l}, nil
}

// NewStore wraps an already opened database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, log: applog.WithComponent("remote")}
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// workspaceName picks a display name for the listing: the current project's name.
func workspaceName(ws domain.Workspace) string {
	if i := ws.ProjectByID(ws.CurrentProjectID); i >= 0 {
		return ws.Projects[i].Name
	}
	if len(ws.Projects) > 0 {
		return ws.Projects[0].Name
	}
	return ""
}

// Push stores ws as the next version of stableID and returns that version. Versions start at 1.
func (s *Store) Push(ctx context.Context, stableID string, ws domain.Workspace) (int64, error) {
	if stableID == "" {
		return 0, errors.New("stable id is required")
	}
	blob, err := json.Marshal(ws)
	if err != nil {
		return 0, fmt.Errorf("marshal workspace: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin push: %w", err)
	}
	var version int64
	err = tx.QueryRowContext(ctx, `INSERT INTO workspaces(stable_id, name, version, updated_at) VALUES($1, $2, 1, now())
		ON CONFLICT (stable_id) DO UPDATE SET version = workspaces.version + 1, name = EXCLUDED.name, updated_at = now()
		RETURNING version`, stableID, workspaceName(ws)).Scan(&version)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("bump version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO workspace_snapshots(stable_id, version, snapshot) VALUES($1, $2, $3)`, stableID, version, string(blob)); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit push: %w", err)
	}
	s.log.Info("pushed workspace", slog.String("stable_id", stableID), slog.Int64("version", version), slog.Int("bytes", len(blob)))
	return version, nil
}

// Pull returns the latest snapshot of stableID.
func (s *Store) Pull(ctx context.Context, stableID string) (Snapshot, error) {
	return s.pull(ctx, stableID, 0)
}

// PullVersion returns a specific version of stableID.
func (s *Store) PullVersion(ctx context.Context, stableID string, version int64) (Snapshot, error) {
	if version <= 0 {
		return Snapshot{}, fmt.Errorf("invalid version %d", version)
	}
	return s.pull(ctx, stableID, version)
}

func (s *Store) pull(ctx context.Context, stableID string, version int64) (Snapshot, error) {
	snap := Snapshot{StableID: stableID}
	var raw []byte
	var row *sql.Row
	if version > 0 {
		row = s.db.QueryRowContext(ctx, `SELECT version, snapshot, created_at FROM workspace_snapshots WHERE stable_id = $1 AND version = $2`, stableID, version)
	} else {
		row = s.db.QueryRowContext(ctx, `SELECT version, snapshot, created_at FROM workspace_snapshots WHERE stable_id = $1 ORDER BY version DESC, id DESC LIMIT 1`, stableID)
	}
	switch err := row.Scan(&snap.Version, &raw, &snap.CreatedAt); {
	case errors.Is(err, sql.ErrNoRows):
		return Snapshot{}, ErrNotFound
	case err != nil:
		return Snapshot{}, fmt.Errorf("select snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snap.Workspace); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s@%d: %w", stableID, snap.Version, err)
	}
	s.log.Info("pulled workspace", slog.String("stable_id", stableID), slog.Int64("version", snap.Version))
	return snap, nil
}

// List returns the remote workspaces, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stable_id, name, version, updated_at FROM workspaces ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var list []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.StableID, &e.Name, &e.Version, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
