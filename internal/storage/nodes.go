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
	"strings"
)

// NodeQuery describes a node search over the index.
// Text matches a case-insensitive substring of the node name, type or id. Types restricts the node types.
// ProjectID restricts the search to one project. Limit/Offset paginate; defaults apply when zero.
type NodeQuery struct {
	Text      string
	Types     []string
	ProjectID string
	Limit     int
	Offset    int
}

// NodeHit is one indexed node. PageID is empty for nodes inside a global component definition.
type NodeHit struct {
	ProjectID         string
	PageID            string
	NodeID            string
	ParentID          string
	Type              string
	Name              string
	GlobalComponentID string
	Depth             int
	Ord               int
}

// language=SQL
// dialect=SQLite
const nodeColumns = `n.project_id, n.page_id, n.node_id, n.parent_id, n.type, n.name, n.global_component_id, n.depth, n.ord`

// language=SQL
// dialect=SQLite
const whereUsedSQL = `SELECT ` + nodeColumns + `
FROM nodes n
LEFT JOIN nodes p ON p.project_id = n.project_id AND p.page_id = n.page_id AND p.node_id = n.parent_id
WHERE n.project_id = ? AND n.global_component_id = ? AND n.page_id <> ''
  AND (p.node_id IS NULL OR p.global_component_id <> n.global_component_id)
ORDER BY n.page_id, n.depth, n.ord`

// FindNodes searches the index of the workspace at root.
func FindNodes(ctx context.Context, root string, q NodeQuery) ([]NodeHit, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return findNodesDB(ctx, db, q)
}

func findNodesDB(ctx context.Context, db *sql.DB, q NodeQuery) ([]NodeHit, error) {
	var args []any
	var sb strings.Builder
	sb.WriteString("SELECT " + nodeColumns + "\nFROM nodes n\nWHERE 1=1\n")
	if t := strings.TrimSpace(q.Text); t != "" {
		like := "%" + escapeLike(strings.ToLower(t)) + "%"
		sb.WriteString(` AND (lower(n.name) LIKE ? ESCAPE '\' OR lower(n.type) LIKE ? ESCAPE '\' OR lower(n.node_id) LIKE ? ESCAPE '\')` + "\n")
		args = append(args, like, like, like)
	}
	if len(q.Types) > 0 {
		sb.WriteString(" AND n.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	if q.ProjectID != "" {
		sb.WriteString(" AND n.project_id = ?\n")
		args = append(args, q.ProjectID)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("ORDER BY n.project_id, n.page_id, n.depth, n.ord\nLIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return scanHits(rows)
}

// WhereUsed lists the instance roots of the global component globalID inside projectID, ordered by page.
func WhereUsed(ctx context.Context, root, projectID, globalID string) ([]NodeHit, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if globalID == "" {
		return nil, errors.New("global component id is required")
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, whereUsedSQL, projectID, globalID)
	if err != nil {
		return nil, err
	}
	return scanHits(rows)
}

func scanHits(rows *sql.Rows) ([]NodeHit, error) {
	defer func() { _ = rows.Close() }()
	var out []NodeHit
	for rows.Next() {
		var h NodeHit
		if err := rows.Scan(&h.ProjectID, &h.PageID, &h.NodeID, &h.ParentID, &h.Type, &h.Name, &h.GlobalComponentID, &h.Depth, &h.Ord); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
