/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ids supplies fresh identifiers for nodes, pages, projects and interactions.
package ids

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator returns a new id on every call. Ids must never repeat within a project's lifetime.
type Generator interface {
	NewID() string
}

// UUID generates random v4 UUIDs, optionally prefixed (e.g. "node-").
type UUID struct {
	Prefix string
}

func (u UUID) NewID() string { return u.Prefix + uuid.New().String() }

// Sequence hands out prefix-1, prefix-2, ... and is meant for tests and reproducible scripts.
// It is safe for concurrent use.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewSequence(prefix string) *Sequence { return &Sequence{prefix: prefix} }

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%d", s.prefix, s.n)
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) NewID() string { return f() }
