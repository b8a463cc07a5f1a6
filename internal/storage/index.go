/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wpuilab/internal/domain"
	applog "wpuilab/internal/log"
	"wpuilab/internal/tree"
	"wpuilab/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName holds per-workspace derived data under the workspace root.
	IndexDirName  = ".wpui"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema. Bump it and add a migration step for schema changes.
	schemaVersion = 2
)

// IndexPath returns the full path to the workspace's index database file.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the SQLite index exists at .wpui/index.sqlite, opens it in WAL mode and brings
// its schema up to date. Callers close the returned *sql.DB.
func InitOrOpenIndex(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(slog.String("root", root))
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, IndexDirName), 0o755); err != nil {
		l.Error("create .wpui dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .wpui dir: %w", err)
	}

	path := IndexPath(root)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep the stored schema for runMigrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// where-used lookups and name search on indexes created before version 2
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_nodes_global ON nodes(project_id, global_component_id);`,
				`CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the node and revision tables if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// One row per node; global component definitions use page_id ''.
		`CREATE TABLE IF NOT EXISTS nodes (
			project_id          TEXT    NOT NULL,
			page_id             TEXT    NOT NULL,
			node_id             TEXT    NOT NULL,
			parent_id           TEXT    NOT NULL DEFAULT '',
			type                TEXT    NOT NULL,
			name                TEXT    NOT NULL DEFAULT '',
			global_component_id TEXT    NOT NULL DEFAULT '',
			depth               INTEGER NOT NULL,
			ord                 INTEGER NOT NULL,
			PRIMARY KEY(project_id, page_id, node_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_global ON nodes(project_id, global_component_id);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);`,

		`CREATE TABLE IF NOT EXISTS revisions (
			id         INTEGER PRIMARY KEY,
			project_id TEXT    NOT NULL,
			ts         INTEGER NOT NULL,
			blob       BLOB    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_revisions_project_ts ON revisions(project_id, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// UpdateIndex replaces the node rows with the content of ws.
func UpdateIndex(ctx context.Context, root string, ws domain.Workspace) error {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildNodes(ctx, db, ws)
}

// RebuildIndex drops and recreates the node table and fills it from ws. Revisions are kept.
func RebuildIndex(ctx context.Context, root string, ws domain.Workspace) error {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS nodes;"); err != nil {
		return fmt.Errorf("drop nodes: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return rebuildNodes(ctx, db, ws)
}

// DetectAndRebuildIndex checks the index for corruption or a missing schema and rebuilds it from ws when needed.
// A damaged file is copied to .wpui/backups first. It reports whether a rebuild happened.
func DetectAndRebuildIndex(ctx context.Context, root string, ws domain.Workspace) (bool, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_check").With(slog.String("root", root))
	path := IndexPath(root)
	db, err := InitOrOpenIndex(root)
	if err != nil {
		l.Warn("index unusable, rebuilding", slog.Any("err", err))
		backupIndexFile(path)
		removeIndexFiles(path)
		if rbErr := RebuildIndex(ctx, root, ws); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM nodes LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	l.Warn("index failed integrity check, rebuilding")
	backupIndexFile(path)
	removeIndexFiles(path)
	if err := RebuildIndex(ctx, root, ws); err != nil {
		return false, err
	}
	return true, nil
}

func removeIndexFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}

// backupIndexFile copies the current index file into .wpui/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

type nodeRow struct {
	projectID, pageID, nodeID, parentID string
	typ, name, globalID                 string
	depth, ord                          int
}

func appendForest(rows []nodeRow, projectID, pageID string, forest []*domain.ComponentNode) []nodeRow {
	ords := map[*domain.ComponentNode]int{}
	for i, n := range forest {
		ords[n] = i
	}
	tree.Walk(forest, func(n, parent *domain.ComponentNode, depth int) bool {
		parentID := ""
		if parent != nil {
			parentID = parent.ID
		}
		for i, c := range n.Children {
			ords[c] = i
		}
		rows = append(rows, nodeRow{
			projectID: projectID,
			pageID:    pageID,
			nodeID:    n.ID,
			parentID:  parentID,
			typ:       n.Type,
			name:      n.Name,
			globalID:  n.GlobalComponentID,
			depth:     depth,
			ord:       ords[n],
		})
		return true
	})
	return rows
}

// flattenWorkspace lists every page node and every definition node of ws.
func flattenWorkspace(ws domain.Workspace) []nodeRow {
	rows := make([]nodeRow, 0, 256)
	for _, pr := range ws.Projects {
		for _, pg := range pr.Pages {
			rows = append(rows, appendForest(nil, pr.ID, pg.ID, pg.Tree)...)
		}
		rows = appendForest(rows, pr.ID, "", pr.GlobalComponents)
	}
	return rows
}

// rebuildNodes replaces the nodes table content inside one transaction.
func rebuildNodes(ctx context.Context, db *sql.DB, ws domain.Workspace) error {
	rows := flattenWorkspace(ws)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM nodes;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear nodes: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO nodes(project_id, page_id, node_id, parent_id, type, name, global_component_id, depth, ord) VALUES(?,?,?,?,?,?,?,?,?);`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, r := range rows {
		if _, err := ins.ExecContext(ctx, r.projectID, r.pageID, r.nodeID, r.parentID, r.typ, r.name, r.globalID, r.depth, r.ord); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert node: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Meta returns the value stored under key in the index meta table; ok is false when the key is unset.
func Meta(ctx context.Context, root, key string) (value string, ok bool, err error) {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return "", false, err
	}
	defer db.Close()
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetMeta stores value under key in the index meta table.
func SetMeta(ctx context.Context, root, key, value string) error {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
