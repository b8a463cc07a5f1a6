/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor is the command processor of the document model: a pure reducer from (State, Action) to the
// next State, with history checkpoints, dirty tracking and global component fan-out.
//
// Illegal or unresolvable requests are logged at WARN on the editor logger and leave the state unchanged.
// Only bulk replacements (SetTree, SetPages, SetProjects) return an error, a *validate.Error.
package editor

import (
	"fmt"
	"log/slog"
	"time"

	"wpuilab/internal/domain"
	"wpuilab/internal/history"
	"wpuilab/internal/ids"
	applog "wpuilab/internal/log"
	"wpuilab/internal/registry"
	"wpuilab/internal/tree"
)

// Processor holds the collaborators of the reducer. It keeps no document state and is safe for concurrent use.
type Processor struct {
	Registry *registry.Registry
	IDs      ids.Generator
	History  history.Policy
	Now      func() time.Time // stamps LastModified and snapshots
	Log      *slog.Logger
}

// New returns a processor using the built-in registry and UUID ids when reg or gen are nil.
func New(reg *registry.Registry, gen ids.Generator) *Processor {
	if reg == nil {
		reg = registry.Default()
	}
	if gen == nil {
		gen = ids.UUID{}
	}
	return &Processor{
		Registry: reg,
		IDs:      gen,
		History:  history.Policy{Limit: history.DefaultLimit},
		Now:      time.Now,
		Log:      applog.WithComponent("editor"),
	}
}

func (p *Processor) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Processor) log() *slog.Logger {
	if p.Log == nil {
		return applog.WithComponent("editor")
	}
	return p.Log
}

// warn reports a policy violation or not-found no-op.
func (p *Processor) warn(a Action, msg string, args ...any) {
	p.log().Warn(msg, append([]any{slog.String("action", string(a.Kind()))}, args...)...)
}

// Reduce applies a to s. The returned state is s itself when the action was a no-op.
func (p *Processor) Reduce(s State, a Action) (State, error) {
	if a == nil {
		return s, fmt.Errorf("nil action")
	}
	next, changed, err := p.apply(s, a)
	if err != nil {
		p.log().Warn("action rejected", slog.String("action", string(a.Kind())), slog.Any("err", err))
		return s, err
	}
	if !changed {
		return s, nil
	}
	switch {
	case a.Kind() == KindMarkSaved || a.Kind() == KindSetProjects:
		next.IsDirty = false
	case Dirties(a.Kind()):
		next.IsDirty = true
	}
	return next, nil
}

func (p *Processor) apply(s State, a Action) (State, bool, error) {
	switch a.(type) {
	case Undo:
		return p.undo(s)
	case Redo:
		return p.redo(s)
	case MarkSaved:
		if !s.IsDirty {
			return s, false, nil
		}
		return s, true, nil
	}
	next, changed, err := p.dispatch(s, a)
	if err != nil || !changed {
		return s, false, err
	}
	if Tracked(a.Kind()) {
		pre := s.snapshot()
		pre.TS = p.now()
		next.History = p.History.Commit(s.History, pre)
	}
	return next, true, nil
}

func (p *Processor) dispatch(s State, a Action) (State, bool, error) {
	switch a := a.(type) {
	case InsertComponent:
		return p.insertComponent(s, a)
	case RemoveComponent:
		return p.removeComponents(s, a, []string{a.ID})
	case RemoveComponents:
		return p.removeComponents(s, a, a.IDs)
	case UpdateComponentProps:
		return p.updateProps(s, a, []string{a.ID}, a.Props)
	case UpdateMultipleComponentProps:
		return p.updateProps(s, a, a.IDs, a.Props)
	case UpdateComponentPropsTransient:
		return p.updateProps(s, a, []string{a.ID}, a.Props)
	case UpdateComponentName:
		return p.updateName(s, a)
	case DuplicateComponent:
		return p.duplicateComponent(s, a)
	case MoveComponent:
		return p.moveComponent(s, a)
	case ReorderComponent:
		return p.reorderComponent(s, a)
	case SetTree:
		return p.setTree(s, a)
	case SwapLayoutType:
		return p.swapLayoutType(s, a)
	case GroupComponents:
		return p.groupComponents(s, a)
	case UngroupComponents:
		return p.ungroupComponents(s, a)

	case ToggleNodeSelection:
		return p.toggleSelection(s, a)
	case SetSelectedNodes:
		return p.setSelection(s, a)

	case CopyComponent:
		return p.copyComponent(s, a)
	case CutComponent:
		return p.cutComponent(s, a)
	case PasteComponent:
		return p.pasteComponent(s, a)

	case AddPage:
		return p.addPage(s, a)
	case DeletePage:
		return p.deletePage(s, a)
	case RenamePage:
		return p.renamePage(s, a)
	case DuplicatePage:
		return p.duplicatePage(s, a)
	case SetCurrentPage:
		return p.setCurrentPage(s, a)
	case UpdatePageTheme:
		return p.updatePage(s, a, a.ID, func(pg *domain.Page) { pg.Theme = a.Theme })
	case SetPageCanvasPosition:
		pos := a.Position
		return p.updatePage(s, a, a.ID, func(pg *domain.Page) { pg.CanvasPosition = &pos })
	case SetPages:
		return p.setPages(s, a)

	case CreateProject:
		return p.createProject(s, a)
	case DeleteProject:
		return p.deleteProject(s, a)
	case RenameProject:
		return p.renameProject(s, a)
	case DuplicateProject:
		return p.duplicateProject(s, a)
	case SetCurrentProject:
		return p.setCurrentProject(s, a)
	case UpdateProjectTheme:
		return p.updateProjectSettings(s, a, a.ID, func(pr *domain.Project) { pr.Theme = a.Theme })
	case UpdateProjectLayout:
		return p.updateProjectSettings(s, a, a.ID, func(pr *domain.Project) { pr.Layout = a.Layout })
	case SetProjects:
		return p.setProjects(s, a)

	case AddInteraction:
		return p.addInteraction(s, a)
	case UpdateInteraction:
		return p.updateInteraction(s, a)
	case RemoveInteraction:
		return p.removeInteraction(s, a)

	case MakeGlobalComponent:
		return p.makeGlobal(s, a)
	case InsertGlobalComponentInstance:
		return p.insertInstance(s, a)
	case UpdateGlobalComponent:
		return p.updateGlobal(s, a)
	case SetEditingGlobalComponent:
		return p.setEditingGlobal(s, a)
	case DetachGlobalComponentInstance:
		return p.detachInstance(s, a)
	case DeleteGlobalComponent:
		return p.deleteGlobal(s, a)

	case ToggleGridLines:
		s.GridLinesVisible = !s.GridLinesVisible
		return s, true, nil
	default:
		return s, false, fmt.Errorf("unsupported action %s", a.Kind())
	}
}

func (p *Processor) undo(s State) (State, bool, error) {
	cur := s.snapshot()
	cur.TS = p.now()
	h, snap, ok := p.History.Undo(s.History, cur)
	if !ok {
		return s, false, nil
	}
	return restore(s, h, snap), true, nil
}

func (p *Processor) redo(s State) (State, bool, error) {
	cur := s.snapshot()
	cur.TS = p.now()
	h, snap, ok := p.History.Redo(s.History, cur)
	if !ok {
		return s, false, nil
	}
	return restore(s, h, snap), true, nil
}

func restore(s State, h history.History, snap history.Snapshot) State {
	s.Projects = snap.Projects
	s.CurrentProjectID = snap.CurrentProjectID
	s.History = h
	if s.EditingGlobalComponentID != "" {
		if pr, ok := s.CurrentProject(); !ok || pr.GlobalComponent(s.EditingGlobalComponentID) < 0 {
			s.EditingGlobalComponentID = ""
		}
	}
	return s.pruneSelection()
}

// updateProject replaces project i with the result of fn on a copy and stamps LastModified.
// fn must replace, never mutate, the slices it changes.
func (p *Processor) updateProject(s State, i int, fn func(pr *domain.Project)) State {
	s = s.withProjects()
	pr := s.Projects[i]
	fn(&pr)
	pr.LastModified = p.now().UnixMilli()
	s.Projects[i] = pr
	return s
}

// commitTree writes a new active tree back into the state. While editing a definition in isolation the
// definition is replaced and every instance in the project is re-synced.
func (p *Processor) commitTree(s State, sc scope, nodes []*node) State {
	return p.updateProject(s, sc.proj, func(pr *domain.Project) {
		if sc.isolated() {
			defs := append([]*node(nil), pr.GlobalComponents...)
			defs[sc.global] = nodes[0]
			pr.GlobalComponents = defs
			p.resync(pr, nodes[0])
			return
		}
		pg := pr.Pages[sc.page]
		pg.Tree = nodes
		pr.Pages = replacePage(pr.Pages, sc.page, pg)
	})
}

// activeScope resolves the active tree or reports why there is none.
func (p *Processor) activeScope(s State, a Action) (scope, bool) {
	sc, ok := s.scope()
	if !ok {
		p.warn(a, "no active page")
	}
	return sc, ok
}

// projectIDs collects every node id used in pr.
func projectIDs(pr *domain.Project) map[string]struct{} {
	out := map[string]struct{}{}
	add := func(n, _ *node, _ int) bool {
		out[n.ID] = struct{}{}
		return true
	}
	for i := range pr.Pages {
		tree.Walk(pr.Pages[i].Tree, add)
	}
	tree.Walk(pr.GlobalComponents, add)
	return out
}
