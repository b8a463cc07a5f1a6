/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"
	"slices"
	"strings"

	"wpuilab/internal/domain"
	"wpuilab/internal/history"
	"wpuilab/internal/validate"
)

// NewProject returns a project with a single empty "Home" page.
func (p *Processor) NewProject(name string) domain.Project {
	pg := p.NewPage("Home")
	return domain.Project{
		ID:               p.IDs.NewID(),
		Name:             name,
		Pages:            []domain.Page{pg},
		CurrentPageID:    pg.ID,
		GlobalComponents: []*node{},
		LastModified:     p.now().UnixMilli(),
	}
}

// NewWorkspace returns a workspace holding one new project.
func (p *Processor) NewWorkspace(name string) domain.Workspace {
	pr := p.NewProject(name)
	return domain.Workspace{Projects: []domain.Project{pr}, CurrentProjectID: pr.ID}
}

func (p *Processor) projectByID(s State, a Action, id string) (int, bool) {
	if id == "" {
		return p.currentProject(s, a)
	}
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return i, true
		}
	}
	p.warn(a, "project not found", slog.String("project", id))
	return -1, false
}

// switchProject makes the project at i current and resets project-scoped UI state.
func switchProject(s State, i int) State {
	s.CurrentProjectID = s.Projects[i].ID
	s.EditingGlobalComponentID = ""
	s.SelectedNodeIDs = []string{domain.RootContainerID}
	s.LastSelectedID = ""
	return s
}

func (p *Processor) createProject(s State, a CreateProject) (State, bool, error) {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = "Untitled Project"
	}
	pr := p.NewProject(name)
	s.Projects = append(slices.Clone(s.Projects), pr)
	return switchProject(s, len(s.Projects)-1), true, nil
}

func (p *Processor) deleteProject(s State, a DeleteProject) (State, bool, error) {
	i, ok := p.projectByID(s, a, a.ID)
	if !ok {
		return s, false, nil
	}
	switch {
	case len(s.Projects) <= 1:
		p.warn(a, "cannot delete the last project", slog.String("project", a.ID))
		return s, false, nil
	case s.Projects[i].IsExampleProject:
		p.warn(a, "example projects cannot be deleted", slog.String("project", a.ID))
		return s, false, nil
	}
	wasCurrent := s.Projects[i].ID == s.CurrentProjectID
	s.Projects = slices.Delete(slices.Clone(s.Projects), i, i+1)
	if wasCurrent {
		return switchProject(s, min(i, len(s.Projects)-1)), true, nil
	}
	return s, true, nil
}

func (p *Processor) renameProject(s State, a RenameProject) (State, bool, error) {
	i, ok := p.projectByID(s, a, a.ID)
	if !ok {
		return s, false, nil
	}
	name := strings.TrimSpace(a.Name)
	switch {
	case s.Projects[i].IsExampleProject:
		p.warn(a, "example projects cannot be renamed", slog.String("project", a.ID))
		return s, false, nil
	case name == "":
		p.warn(a, "project name cannot be empty", slog.String("project", a.ID))
		return s, false, nil
	case name == s.Projects[i].Name:
		return s, false, nil
	}
	return p.updateProject(s, i, func(pr *domain.Project) { pr.Name = name }), true, nil
}

// duplicateProject copies a project under a new id. Node ids are kept: uniqueness is scoped to a project.
func (p *Processor) duplicateProject(s State, a DuplicateProject) (State, bool, error) {
	i, ok := p.projectByID(s, a, a.ID)
	if !ok {
		return s, false, nil
	}
	cp := s.Projects[i].DeepClone()
	cp.ID = p.IDs.NewID()
	cp.Name = s.Projects[i].Name + " (Copy)"
	cp.IsExampleProject = false
	cp.LastModified = p.now().UnixMilli()
	s.Projects = slices.Insert(slices.Clone(s.Projects), i+1, cp)
	return s, true, nil
}

func (p *Processor) setCurrentProject(s State, a SetCurrentProject) (State, bool, error) {
	i, ok := p.projectByID(s, a, a.ID)
	if !ok {
		return s, false, nil
	}
	if s.Projects[i].ID == s.CurrentProjectID {
		return s, false, nil
	}
	return switchProject(s, i).pruneSelection(), true, nil
}

func (p *Processor) updateProjectSettings(s State, a Action, id string, fn func(pr *domain.Project)) (State, bool, error) {
	i, ok := p.projectByID(s, a, id)
	if !ok {
		return s, false, nil
	}
	return p.updateProject(s, i, fn), true, nil
}

// setProjects loads a workspace wholesale. History, clipboard and isolation mode are reset.
func (p *Processor) setProjects(s State, a SetProjects) (State, bool, error) {
	if len(a.Projects) == 0 {
		return s, false, &validate.Error{Issues: []validate.Issue{{Path: "projects", Severity: validate.SeverityError,
			Message: "a workspace needs at least one project"}}}
	}
	ws := domain.Workspace{Projects: domain.CloneProjects(a.Projects), CurrentProjectID: a.CurrentProjectID}
	res := validate.Workspace(&ws, p.Registry)
	if !res.Valid {
		return s, false, res.Err()
	}
	next := NewState(ws)
	next.GridLinesVisible = s.GridLinesVisible
	next.History = history.History{}
	return next, true, nil
}
