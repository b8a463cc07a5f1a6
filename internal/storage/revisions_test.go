/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevisions(t *testing.T) {
	h, err := Init(t.TempDir(), sampleWorkspace())
	require.NoError(t, err)
	ctx := testCtx(t)

	_, ok, err := LatestRevision(ctx, h, "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, blob := range []string{"a", "b", "c", "d"} {
		require.NoError(t, SaveRevision(ctx, h, "p1", []byte(blob), base.Add(time.Duration(i)*time.Millisecond)))
	}
	require.NoError(t, SaveRevision(ctx, h, "other", []byte("x"), base.Add(time.Hour)))

	rev, ok, err := LatestRevision(ctx, h, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "d", string(rev.Blob))
	assert.True(t, rev.TS.Equal(base.Add(3*time.Millisecond)))

	list, err := ListRevisions(ctx, h, "p1", 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "d", string(list[0].Blob))
	assert.Equal(t, "b", string(list[2].Blob))

	n, err := PruneRevisions(ctx, h, "p1", 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	list, err = ListRevisions(ctx, h, "p1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	list, err = ListRevisions(ctx, h, "other", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err = PruneRevisions(ctx, h, "p1", 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordRevisionDecodesProject(t *testing.T) {
	h, err := Init(t.TempDir(), sampleWorkspace())
	require.NoError(t, err)
	ctx := testCtx(t)
	for i := 0; i < 3; i++ {
		h.Workspace.Projects[0].LastModified = int64(i)
		require.NoError(t, RecordRevision(ctx, h, "p1", 2))
	}
	list, err := ListRevisions(ctx, h, "p1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	p, err := list[0].Project()
	require.NoError(t, err)
	assert.Equal(t, "Site", p.Name)
	assert.EqualValues(t, 2, p.LastModified)
	assert.Equal(t, "hero", p.GlobalComponents[0].ID)

	assert.Error(t, RecordRevision(ctx, h, "missing", 2))
	assert.Error(t, SaveRevision(ctx, nil, "p1", nil, time.Now()))
}
