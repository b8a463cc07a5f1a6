/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"slices"

	"wpuilab/internal/domain"
	"wpuilab/internal/history"
	"wpuilab/internal/tree"
)

type node = domain.ComponentNode

// State is the complete editor state. It is a value: reducers never write into slices or nodes reachable
// from a State they received.
type State struct {
	Projects         []domain.Project
	CurrentProjectID string

	SelectedNodeIDs []string
	LastSelectedID  string

	Clipboard *domain.ComponentNode
	CutNodeID string

	// EditingGlobalComponentID is set while a definition is edited in isolation.
	EditingGlobalComponentID string
	GridLinesVisible         bool

	History history.History
	IsDirty bool
}

// NewState wraps a loaded workspace into a clean state with an empty history.
func NewState(ws domain.Workspace) State {
	s := State{Projects: ws.Projects, CurrentProjectID: ws.CurrentProjectID}
	if s.projectIndex() >= 0 {
		s.CurrentProjectID = s.Projects[s.projectIndex()].ID
	}
	s.SelectedNodeIDs = []string{s.fallbackSelection()}
	return s
}

// Workspace returns the persistable part of s.
func (s State) Workspace() domain.Workspace {
	return domain.Workspace{Projects: s.Projects, CurrentProjectID: s.CurrentProjectID}
}

func (s State) CanUndo() bool { return s.History.CanUndo() }
func (s State) CanRedo() bool { return s.History.CanRedo() }

// CurrentProject returns the current project, falling back to the first one.
func (s State) CurrentProject() (*domain.Project, bool) {
	i := s.projectIndex()
	if i < 0 {
		return nil, false
	}
	return &s.Projects[i], true
}

// ActiveTree returns the forest actions operate on: the current page's tree, or the one-element forest of
// the definition being edited in isolation.
func (s State) ActiveTree() []*domain.ComponentNode {
	sc, ok := s.scope()
	if !ok {
		return nil
	}
	return sc.tree
}

func (s State) projectIndex() int {
	if len(s.Projects) == 0 {
		return -1
	}
	for i := range s.Projects {
		if s.Projects[i].ID == s.CurrentProjectID {
			return i
		}
	}
	return 0
}

// scope locates the active tree inside the state.
type scope struct {
	proj   int
	page   int // -1 while editing a definition
	global int // -1 unless editing a definition
	tree   []*node
}

func (sc scope) isolated() bool { return sc.global >= 0 }

// root is the id that can never be removed from the active tree.
func (sc scope) root() string {
	if sc.isolated() {
		return sc.tree[0].ID
	}
	return domain.RootContainerID
}

func (sc scope) protected(id string) bool {
	return id == domain.RootContainerID || id == sc.root()
}

func (s State) scope() (scope, bool) {
	pi := s.projectIndex()
	if pi < 0 {
		return scope{}, false
	}
	p := &s.Projects[pi]
	if s.EditingGlobalComponentID != "" {
		if gi := p.GlobalComponent(s.EditingGlobalComponentID); gi >= 0 {
			return scope{proj: pi, page: -1, global: gi, tree: []*node{p.GlobalComponents[gi]}}, true
		}
	}
	pg := p.CurrentPage()
	if pg < 0 {
		return scope{}, false
	}
	return scope{proj: pi, page: pg, global: -1, tree: p.Pages[pg].Tree}, true
}

func (s State) fallbackSelection() string {
	if sc, ok := s.scope(); ok {
		return sc.root()
	}
	return domain.RootContainerID
}

// pruneSelection drops selected ids missing from the active tree.
func (s State) pruneSelection() State {
	sc, ok := s.scope()
	if !ok {
		s.SelectedNodeIDs = []string{domain.RootContainerID}
		return s
	}
	kept := make([]string, 0, len(s.SelectedNodeIDs))
	for _, id := range s.SelectedNodeIDs {
		if tree.Contains(sc.tree, id) {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		kept = []string{sc.root()}
	}
	s.SelectedNodeIDs = kept
	if s.LastSelectedID != "" && !tree.Contains(sc.tree, s.LastSelectedID) {
		s.LastSelectedID = ""
	}
	return s
}

func (s State) selectOnly(id string) State {
	s.SelectedNodeIDs = []string{id}
	s.LastSelectedID = id
	return s
}

func (s State) snapshot() history.Snapshot {
	return history.Snapshot{Projects: s.Projects, CurrentProjectID: s.CurrentProjectID}
}

// withProjects returns a copy of s whose project list is a fresh slice; callers may then replace elements.
func (s State) withProjects() State {
	s.Projects = slices.Clone(s.Projects)
	return s
}

func replacePage(pages []domain.Page, i int, pg domain.Page) []domain.Page {
	out := slices.Clone(pages)
	out[i] = pg
	return out
}
