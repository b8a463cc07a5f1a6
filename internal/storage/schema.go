/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed workspace.schema.json
var manifestSchemaJSON []byte

var (
	manifestSchemaOnce sync.Once
	manifestSchema     *gojsonschema.Schema
	manifestSchemaErr  error
)

// ManifestSchema returns the embedded JSON schema of wpui.json.
func ManifestSchema() []byte { return append([]byte(nil), manifestSchemaJSON...) }

// SchemaError lists the schema violations of a manifest.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "manifest does not match schema: " + strings.Join(e.Problems, "; ")
}

// CheckManifest validates raw manifest bytes against the embedded schema.
// Syntax errors are returned as plain errors, shape problems as *SchemaError.
func CheckManifest(data []byte) error {
	manifestSchemaOnce.Do(func() {
		manifestSchema, manifestSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(manifestSchemaJSON))
	})
	if manifestSchemaErr != nil {
		return fmt.Errorf("compile manifest schema: %w", manifestSchemaErr)
	}
	res, err := manifestSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if res.Valid() {
		return nil
	}
	se := &SchemaError{}
	for _, e := range res.Errors() {
		se.Problems = append(se.Problems, e.String())
	}
	return se
}
