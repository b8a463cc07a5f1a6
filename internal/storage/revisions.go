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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wpuilab/internal/domain"
)

// Revision is one saved project snapshot.
type Revision struct {
	ID   int64
	TS   time.Time
	Blob []byte
}

// Project decodes the revision blob.
func (r Revision) Project() (domain.Project, error) {
	var p domain.Project
	if err := json.Unmarshal(r.Blob, &p); err != nil {
		return p, fmt.Errorf("decode revision %d: %w", r.ID, err)
	}
	return p, nil
}

// language=SQL
// dialect=SQLite
const insertRevisionSQL = `INSERT INTO revisions(project_id, ts, blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestRevisionSQL = `SELECT id, ts, blob FROM revisions WHERE project_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listRevisionsSQL = `SELECT id, ts, blob FROM revisions WHERE project_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneRevisionsSQL = `DELETE FROM revisions WHERE project_id = ? AND id NOT IN (
	SELECT id FROM revisions WHERE project_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// SaveRevision stores blob as a revision of projectID taken at ts.
func SaveRevision(ctx context.Context, h *Handle, projectID string, blob []byte, ts time.Time) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertRevisionSQL, projectID, ts.UTC().UnixNano(), blob)
	return err
}

// RecordRevision snapshots project projectID of h.Workspace and prunes to keep revisions (keep <= 0 keeps all).
func RecordRevision(ctx context.Context, h *Handle, projectID string, keep int) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	i := h.Workspace.ProjectByID(projectID)
	if i < 0 {
		return fmt.Errorf("project %q not found", projectID)
	}
	blob, err := json.Marshal(h.Workspace.Projects[i])
	if err != nil {
		return fmt.Errorf("marshal revision: %w", err)
	}
	if err := SaveRevision(ctx, h, projectID, blob, time.Now()); err != nil {
		return err
	}
	if keep > 0 {
		if _, err := PruneRevisions(ctx, h, projectID, keep); err != nil {
			return err
		}
	}
	return nil
}

// LatestRevision returns the newest revision of projectID, or ok=false when there is none.
func LatestRevision(ctx context.Context, h *Handle, projectID string) (rev Revision, ok bool, err error) {
	if h == nil {
		return Revision{}, false, errors.New("nil Handle")
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return Revision{}, false, err
	}
	defer func() { _ = db.Close() }()
	var ts int64
	err = db.QueryRowContext(ctx, selectLatestRevisionSQL, projectID).Scan(&rev.ID, &ts, &rev.Blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, false, nil
	}
	if err != nil {
		return Revision{}, false, err
	}
	rev.TS = time.Unix(0, ts).UTC()
	return rev, true, nil
}

// ListRevisions returns up to limit most recent revisions of projectID, newest first.
func ListRevisions(ctx context.Context, h *Handle, projectID string, limit int) ([]Revision, error) {
	if h == nil {
		return nil, errors.New("nil Handle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listRevisionsSQL, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		var r Revision
		var ts int64
		if err := rows.Scan(&r.ID, &ts, &r.Blob); err != nil {
			return nil, err
		}
		r.TS = time.Unix(0, ts).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneRevisions keeps at most keepLast revisions of projectID and deletes older ones.
func PruneRevisions(ctx context.Context, h *Handle, projectID string, keepLast int) (int64, error) {
	if h == nil {
		return 0, errors.New("nil Handle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneRevisionsSQL, projectID, projectID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
