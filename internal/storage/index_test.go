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
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func hitIDs(hits []NodeHit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.NodeID)
	}
	return out
}

func TestSaveBuildsNodeIndex(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root, sampleWorkspace())
	require.NoError(t, err)
	ctx := testCtx(t)

	hits, err := FindNodes(ctx, root, NodeQuery{Text: "sign UP"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	h := hits[0]
	assert.Equal(t, NodeHit{ProjectID: "p1", PageID: "home", NodeID: "btn", ParentID: "root-vstack", Type: "Button", Name: "Sign up button", Depth: 1, Ord: 1}, h)

	hits, err = FindNodes(ctx, root, NodeQuery{Types: []string{"Heading"}})
	require.NoError(t, err)
	// definition rows (page "") sort first
	assert.Equal(t, []string{"hero-title", "i2-t", "i1-t"}, hitIDs(hits))

	hits, err = FindNodes(ctx, root, NodeQuery{Text: "%"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = FindNodes(ctx, root, NodeQuery{Types: []string{"VStack"}, ProjectID: "p1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "home", hits[0].PageID)
}

func TestWhereUsedListsInstanceRoots(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root, sampleWorkspace())
	require.NoError(t, err)
	ctx := testCtx(t)

	hits, err := WhereUsed(ctx, root, "p1", "hero")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "about", hits[0].PageID)
	assert.Equal(t, "i2", hits[0].NodeID)
	assert.Equal(t, "grid", hits[0].ParentID)
	assert.Equal(t, "home", hits[1].PageID)
	assert.Equal(t, "i1", hits[1].NodeID)

	hits, err = WhereUsed(ctx, root, "p1", "nothing")
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = WhereUsed(ctx, root, "p1", "")
	assert.Error(t, err)
}

func TestIndexFollowsSaves(t *testing.T) {
	root := t.TempDir()
	h, err := Init(root, sampleWorkspace())
	require.NoError(t, err)
	h.Workspace.Projects[0].Pages = h.Workspace.Projects[0].Pages[:1]
	require.NoError(t, Save(h))

	hits, err := WhereUsed(testCtx(t), root, "p1", "hero")
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, hitIDs(hits))
}

func TestDetectAndRebuildIndexOnCorruption(t *testing.T) {
	root := t.TempDir()
	ws := sampleWorkspace()
	_, err := Init(root, ws)
	require.NoError(t, err)
	ctx := testCtx(t)

	rebuilt, err := DetectAndRebuildIndex(ctx, root, ws)
	require.NoError(t, err)
	assert.False(t, rebuilt)

	idx := IndexPath(root)
	removeIndexFiles(idx)
	require.NoError(t, os.WriteFile(idx, []byte("THIS IS NOT SQLITE"), 0o644))
	rebuilt, err = DetectAndRebuildIndex(ctx, root, ws)
	require.NoError(t, err)
	assert.True(t, rebuilt)

	ents, _ := os.ReadDir(filepath.Join(root, IndexDirName, "backups"))
	assert.NotEmpty(t, ents)
	hits, err := WhereUsed(ctx, root, "p1", "hero")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestMigrationFromV1(t *testing.T) {
	root := t.TempDir()
	idx := IndexPath(root)
	require.NoError(t, os.MkdirAll(filepath.Dir(idx), 0o755))
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(idx))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	ctx := testCtx(t)
	for _, q := range []string{
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
	} {
		_, err := db.ExecContext(ctx, q)
		require.NoError(t, err, q)
	}
	require.NoError(t, db.Close())

	mdb, err := InitOrOpenIndex(root)
	require.NoError(t, err)
	defer mdb.Close()
	var v int
	require.NoError(t, mdb.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v))
	assert.Equal(t, schemaVersion, v)
	var name string
	require.NoError(t, mdb.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='index' AND name='idx_nodes_global'`).Scan(&name))
	assert.Equal(t, "idx_nodes_global", name)
}

func TestEscapeLikeAndPlaceholders(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
	assert.Equal(t, "?,?,?", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}

func TestMeta(t *testing.T) {
	root := t.TempDir()
	ctx := testCtx(t)
	_, ok, err := Meta(ctx, root, "remote_id")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SetMeta(ctx, root, "remote_id", "a"))
	require.NoError(t, SetMeta(ctx, root, "remote_id", "b"))
	v, ok, err := Meta(ctx, root, "remote_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}
