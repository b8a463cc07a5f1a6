/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"wpuilab/internal/domain"
	"wpuilab/internal/tree"
	"wpuilab/internal/validate"
)

// NewPage returns a page holding an empty root container.
func (p *Processor) NewPage(name string) domain.Page {
	return domain.Page{
		ID:   p.IDs.NewID(),
		Name: name,
		Tree: []*node{domain.NewRootContainer(p.Registry.DefaultsFor(domain.RootContainerType))},
	}
}

func (p *Processor) currentProject(s State, a Action) (int, bool) {
	pi := s.projectIndex()
	if pi < 0 {
		p.warn(a, "no current project")
		return -1, false
	}
	return pi, true
}

// pageIndex resolves id (empty means the current page) in the current project.
func (p *Processor) pageIndex(s State, a Action, id string) (int, int, bool) {
	pi, ok := p.currentProject(s, a)
	if !ok {
		return -1, -1, false
	}
	pr := &s.Projects[pi]
	var pgi int
	if id == "" {
		pgi = pr.CurrentPage()
	} else {
		pgi = pr.PageByID(id)
	}
	if pgi < 0 {
		p.warn(a, "page not found", slog.String("page", id))
		return -1, -1, false
	}
	return pi, pgi, true
}

func (p *Processor) addPage(s State, a AddPage) (State, bool, error) {
	pi, ok := p.currentProject(s, a)
	if !ok {
		return s, false, nil
	}
	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = fmt.Sprintf("Page %d", len(s.Projects[pi].Pages)+1)
	}
	pg := p.NewPage(name)
	s = p.updateProject(s, pi, func(pr *domain.Project) {
		pr.Pages = append(slices.Clone(pr.Pages), pg)
		pr.CurrentPageID = pg.ID
	})
	return s.pruneSelection(), true, nil
}

func (p *Processor) deletePage(s State, a DeletePage) (State, bool, error) {
	pi, pgi, ok := p.pageIndex(s, a, a.ID)
	if !ok {
		return s, false, nil
	}
	if len(s.Projects[pi].Pages) <= 1 {
		p.warn(a, "cannot delete the last page", slog.String("page", a.ID))
		return s, false, nil
	}
	s = p.updateProject(s, pi, func(pr *domain.Project) {
		wasCurrent := pr.Pages[pgi].ID == pr.CurrentPageID
		pr.Pages = slices.Delete(slices.Clone(pr.Pages), pgi, pgi+1)
		if wasCurrent {
			pr.CurrentPageID = pr.Pages[min(pgi, len(pr.Pages)-1)].ID
		}
	})
	return s.pruneSelection(), true, nil
}

func (p *Processor) renamePage(s State, a RenamePage) (State, bool, error) {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		p.warn(a, "page name cannot be empty", slog.String("page", a.ID))
		return s, false, nil
	}
	return p.updatePage(s, a, a.ID, func(pg *domain.Page) { pg.Name = name })
}

func (p *Processor) duplicatePage(s State, a DuplicatePage) (State, bool, error) {
	pi, pgi, ok := p.pageIndex(s, a, a.ID)
	if !ok {
		return s, false, nil
	}
	src := s.Projects[pi].Pages[pgi]
	cp := src.DeepClone()
	cp.ID = p.IDs.NewID()
	cp.Name = src.Name + " (Copy)"
	cp.Tree = make([]*node, 0, len(src.Tree))
	for _, n := range src.Tree {
		cp.Tree = append(cp.Tree, tree.CloneMapped(n, func(c *node, _ bool) {
			if c.ID != domain.RootContainerID {
				c.ID = p.IDs.NewID()
			}
		}))
	}
	s = p.updateProject(s, pi, func(pr *domain.Project) {
		pr.Pages = slices.Insert(slices.Clone(pr.Pages), pgi+1, cp)
		pr.CurrentPageID = cp.ID
	})
	return s.pruneSelection(), true, nil
}

func (p *Processor) setCurrentPage(s State, a SetCurrentPage) (State, bool, error) {
	pi, pgi, ok := p.pageIndex(s, a, a.ID)
	if !ok {
		return s, false, nil
	}
	if s.Projects[pi].CurrentPageID == s.Projects[pi].Pages[pgi].ID {
		return s, false, nil
	}
	s = s.withProjects()
	pr := s.Projects[pi]
	pr.CurrentPageID = pr.Pages[pgi].ID
	s.Projects[pi] = pr
	s.SelectedNodeIDs = nil
	s.LastSelectedID = ""
	return s.pruneSelection(), true, nil
}

// updatePage applies fn to a copy of the page with id (empty means the current page).
func (p *Processor) updatePage(s State, a Action, id string, fn func(pg *domain.Page)) (State, bool, error) {
	pi, pgi, ok := p.pageIndex(s, a, id)
	if !ok {
		return s, false, nil
	}
	s = p.updateProject(s, pi, func(pr *domain.Project) {
		pg := pr.Pages[pgi]
		fn(&pg)
		pr.Pages = replacePage(pr.Pages, pgi, pg)
	})
	return s, true, nil
}

func (p *Processor) setPages(s State, a SetPages) (State, bool, error) {
	pi, ok := p.currentProject(s, a)
	if !ok {
		return s, false, nil
	}
	if len(a.Pages) == 0 {
		return s, false, &validate.Error{Issues: []validate.Issue{{Path: "pages", Severity: validate.SeverityError,
			Message: "a project needs at least one page"}}}
	}
	candidate := s.Projects[pi]
	candidate.Pages = make([]domain.Page, len(a.Pages))
	for i, pg := range a.Pages {
		candidate.Pages[i] = pg.DeepClone()
	}
	res := validate.Project(&candidate, p.Registry)
	for i := range candidate.Pages {
		if !rootedAtContainer(candidate.Pages[i].Tree) {
			res.Valid = false
			res.Errors = append(res.Errors, validate.Issue{Path: fmt.Sprintf("pages[%d].tree", i),
				Severity: validate.SeverityError, Message: "a page tree must contain the root container " + domain.RootContainerID})
		}
	}
	if !res.Valid {
		return s, false, res.Err()
	}
	s = p.updateProject(s, pi, func(pr *domain.Project) {
		pr.Pages = candidate.Pages
		if pr.PageByID(pr.CurrentPageID) < 0 {
			pr.CurrentPageID = pr.Pages[0].ID
		}
	})
	return s.pruneSelection(), true, nil
}
