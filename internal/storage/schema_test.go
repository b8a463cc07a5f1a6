/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gojsonschema "github.com/xeipuuv/gojsonschema"

	"wpuilab/internal/domain"
)

func TestManifestConformsToSchema(t *testing.T) {
	ws := sampleWorkspace()
	ws.Projects[0].Theme = &domain.Theme{PrimaryColor: "#3858e9", Density: "compact"}
	ws.Projects[0].Pages[0].CanvasPosition = &domain.CanvasPosition{X: 10, Y: -4.5}
	// nil props and nil trees are written as null
	ws.Projects[0].Pages = append(ws.Projects[0].Pages, domain.Page{ID: "empty", Name: "Empty"})
	ws.Projects[0].Pages[0].Tree[0].Children[1].Props = nil
	h, err := Init(t.TempDir(), ws)
	require.NoError(t, err)

	data, err := os.ReadFile(h.ManifestPath)
	require.NoError(t, err)
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(ManifestSchema()), gojsonschema.NewBytesLoader(data))
	require.NoError(t, err)
	for _, e := range res.Errors() {
		t.Logf("schema error: %s", e)
	}
	assert.True(t, res.Valid())
	assert.NoError(t, CheckManifest(data))
}

func TestCheckManifestReportsProblems(t *testing.T) {
	err := CheckManifest([]byte(`{"projects":[{"id":"","name":"x","pages":[{"id":"p","name":"P","tree":[{"id":"a"}]}]}],"currentProjectId":"x"}`))
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.GreaterOrEqual(t, len(se.Problems), 2)

	err = CheckManifest([]byte(`not json`))
	require.Error(t, err)
	assert.False(t, isSchemaError(err))
}

func isSchemaError(err error) bool {
	_, ok := err.(*SchemaError)
	return ok
}
