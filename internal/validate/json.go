/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package validate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"wpuilab/internal/domain"
)

//go:embed tree.schema.json
var treeSchemaJSON []byte

var (
	schemaOnce sync.Once
	treeSchema *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		treeSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(treeSchemaJSON))
	})
	return treeSchema, schemaErr
}

// TreeSchema returns the embedded JSON schema of a component forest.
func TreeSchema() []byte { return append([]byte(nil), treeSchemaJSON...) }

// JSON validates a raw forest payload (markup parser output, imported files). Shape problems found by the
// schema are reported first; when the shape is sound the decoded forest is returned and checked with Tree.
func JSON(data []byte, reg Registry) (Result, []*domain.ComponentNode, error) {
	schema, err := compiledSchema()
	if err != nil {
		return Result{}, nil, fmt.Errorf("compile tree schema: %w", err)
	}
	sr, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Result{}, nil, fmt.Errorf("parse tree json: %w", err)
	}
	res := Result{Valid: true}
	if !sr.Valid() {
		for _, e := range sr.Errors() {
			res.add(jsonPath(e.Field()), SeverityError, "%s", e.Description())
		}
		return res, nil, nil
	}
	var nodes []*domain.ComponentNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return Result{}, nil, fmt.Errorf("decode tree json: %w", err)
	}
	res.merge(Tree(nodes, reg))
	return res, nodes, nil
}

// jsonPath turns a gojsonschema field ("0.children.1.props") into the tree path notation ("[0].children[1].props").
func jsonPath(field string) string {
	if field == "" || field == "(root)" {
		return ""
	}
	var b strings.Builder
	for _, part := range strings.Split(field, ".") {
		if _, err := strconv.Atoi(part); err == nil {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
