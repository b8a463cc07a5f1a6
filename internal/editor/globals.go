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
	"maps"
	"slices"

	"wpuilab/internal/domain"
	"wpuilab/internal/tree"
	"wpuilab/internal/validate"
)

// InstanceRef locates the root of one global component instance.
type InstanceRef struct {
	PageID string
	NodeID string
}

// Instances indexes the instance roots of every definition in pr by definition id.
func Instances(pr *domain.Project) map[string][]InstanceRef {
	out := map[string][]InstanceRef{}
	for i := range pr.Pages {
		pageID := pr.Pages[i].ID
		tree.Walk(pr.Pages[i].Tree, func(n, _ *node, _ int) bool {
			if n.IsGlobalInstance && n.GlobalComponentID != "" {
				out[n.GlobalComponentID] = append(out[n.GlobalComponentID], InstanceRef{PageID: pageID, NodeID: n.ID})
				return false
			}
			return true
		})
	}
	return out
}

func isInstanceOf(gid string) func(*node) bool {
	return func(n *node) bool { return n.IsGlobalInstance && n.GlobalComponentID == gid }
}

// instantiate clones def into an instance: every node gets a fresh id (the root gets rootID when set) and is
// tagged with the definition id.
func (p *Processor) instantiate(def *node, rootID string) *node {
	return tree.CloneMapped(def, func(c *node, isRoot bool) {
		if isRoot && rootID != "" {
			c.ID = rootID
		} else {
			c.ID = p.IDs.NewID()
		}
		c.IsGlobalInstance = true
		c.GlobalComponentID = def.ID
	})
}

// detach turns an instance subtree back into ordinary nodes; ids are kept.
func detach(n *node) *node {
	return tree.CloneMapped(n, func(c *node, _ bool) {
		c.IsGlobalInstance = false
		c.GlobalComponentID = ""
	})
}

// copyPlacement carries the per-occurrence layout fields of src over to dst.
func copyPlacement(dst, src *node) {
	dst.Width = src.Width
	dst.GridColumnStart = src.GridColumnStart
	dst.GridColumnSpan = src.GridColumnSpan
	dst.GridRowSpan = src.GridRowSpan
	dst.ResponsiveColumns = maps.Clone(src.ResponsiveColumns)
}

// rebuildFrom returns an update that re-clones def over an instance root, keeping its id and placement.
func (p *Processor) rebuildFrom(def *node) tree.UpdateFunc {
	return func(inst *node) *node {
		c := p.instantiate(def, inst.ID)
		copyPlacement(c, inst)
		return c
	}
}

// resyncPages rebuilds every instance of def from def. Instance roots keep their id and placement;
// pages without instances are shared untouched.
func (p *Processor) resyncPages(pages []domain.Page, def *node) []domain.Page {
	var out []domain.Page
	for i := range pages {
		nodes := tree.UpdateWhere(pages[i].Tree, isInstanceOf(def.ID), p.rebuildFrom(def))
		if tree.Same(nodes, pages[i].Tree) {
			continue
		}
		if out == nil {
			out = slices.Clone(pages)
		}
		out[i].Tree = nodes
	}
	if out == nil {
		return pages
	}
	return out
}

// resync fans def out to every page and to the other definitions holding an instance of it.
// A definition changed that way is fanned out in turn.
func (p *Processor) resync(pr *domain.Project, def *node) {
	pending := []string{def.ID}
	for steps := 0; len(pending) > 0 && steps < (len(pr.GlobalComponents)+1)*(len(pr.GlobalComponents)+1); steps++ {
		gi := pr.GlobalComponent(pending[0])
		pending = pending[1:]
		if gi < 0 {
			continue
		}
		d := pr.GlobalComponents[gi]
		pr.Pages = p.resyncPages(pr.Pages, d)
		var defs []*node
		for i, g := range pr.GlobalComponents {
			if i == gi {
				continue
			}
			in := []*node{g}
			out := tree.UpdateWhere(in, isInstanceOf(d.ID), p.rebuildFrom(d))
			if tree.Same(in, out) {
				continue
			}
			if defs == nil {
				defs = slices.Clone(pr.GlobalComponents)
			}
			defs[i] = out[0]
			pending = append(pending, g.ID)
		}
		if defs != nil {
			pr.GlobalComponents = defs
		}
	}
}

// uses reports whether definition gid holds an instance of target, directly or through other definitions.
func uses(pr *domain.Project, gid, target string) bool {
	seen := map[string]bool{}
	var visit func(id string) bool
	visit = func(id string) bool {
		if id == target {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
		gi := pr.GlobalComponent(id)
		if gi < 0 {
			return false
		}
		return slices.ContainsFunc(instanceRefs(pr.GlobalComponents[gi].Children), visit)
	}
	return visit(gid)
}

// instanceRefs lists the definition ids of the outermost instances in nodes.
func instanceRefs(nodes []*node) []string {
	var out []string
	tree.Walk(nodes, func(n, _ *node, _ int) bool {
		if n.IsGlobalInstance && n.GlobalComponentID != "" {
			out = append(out, n.GlobalComponentID)
			return false
		}
		return true
	})
	return out
}

func (p *Processor) makeGlobal(s State, a MakeGlobalComponent) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	if sc.isolated() {
		p.warn(a, "cannot promote while editing a global component")
		return s, false, nil
	}
	n := tree.Find(sc.tree, a.ID)
	switch {
	case n == nil:
		p.warn(a, "node not found", slog.String("id", a.ID))
		return s, false, nil
	case sc.protected(a.ID):
		p.warn(a, "root container cannot become a global component")
		return s, false, nil
	case n.IsGlobalInstance:
		p.warn(a, "node is already a global component instance", slog.String("id", a.ID),
			slog.String("global", n.GlobalComponentID))
		return s, false, nil
	}

	def := tree.CloneMapped(n, func(c *node, _ bool) {
		c.ID = p.IDs.NewID()
		c.IsGlobalInstance = false
		c.GlobalComponentID = ""
	})
	def.Name = firstNonEmpty(a.Name, n.Name, n.Type)
	def.Width, def.GridColumnStart, def.GridColumnSpan, def.GridRowSpan, def.ResponsiveColumns = "", 0, 0, 0, nil

	inst := p.instantiate(def, "")
	copyPlacement(inst, n)
	nodes := tree.Update(sc.tree, n.ID, func(*node) *node { return inst })

	s = p.commitTree(s, sc, nodes)
	s = p.updateProject(s, sc.proj, func(pr *domain.Project) {
		pr.GlobalComponents = append(slices.Clone(pr.GlobalComponents), def)
	})
	return s.selectOnly(inst.ID), true, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (p *Processor) insertInstance(s State, a InsertGlobalComponentInstance) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	pr := &s.Projects[sc.proj]
	gi := pr.GlobalComponent(a.GlobalComponentID)
	if gi < 0 {
		p.warn(a, "global component not found", slog.String("global", a.GlobalComponentID))
		return s, false, nil
	}
	if sc.isolated() && uses(pr, a.GlobalComponentID, sc.root()) {
		p.warn(a, "a global component cannot contain itself", slog.String("global", a.GlobalComponentID))
		return s, false, nil
	}
	parentID := a.ParentID
	if parentID == "" {
		parentID = sc.root()
	}
	parent := tree.Find(sc.tree, parentID)
	if parent == nil || !p.Registry.AcceptsChildren(parent.Type) {
		p.warn(a, "parent not found or not a container", slog.String("parent", parentID))
		return s, false, nil
	}
	inst := p.instantiate(pr.GlobalComponents[gi], "")
	nodes, inst := p.placeInParent(sc.tree, parent, inst, a.Index)
	return p.commitTree(s, sc, nodes).selectOnly(inst.ID), true, nil
}

func (p *Processor) updateGlobal(s State, a UpdateGlobalComponent) (State, bool, error) {
	if a.Definition == nil {
		p.warn(a, "update without definition")
		return s, false, nil
	}
	pi := s.projectIndex()
	if pi < 0 {
		p.warn(a, "no current project")
		return s, false, nil
	}
	gi := s.Projects[pi].GlobalComponent(a.Definition.ID)
	if gi < 0 {
		p.warn(a, "global component not found", slog.String("global", a.Definition.ID))
		return s, false, nil
	}
	if res := validate.Tree([]*node{a.Definition}, p.Registry); !res.Valid {
		p.warn(a, "definition is not a valid tree", slog.Any("err", res.Err()))
		return s, false, nil
	}
	cur := &s.Projects[pi]
	if slices.ContainsFunc(instanceRefs(a.Definition.Children), func(ref string) bool { return uses(cur, ref, a.Definition.ID) }) {
		p.warn(a, "a global component cannot contain itself", slog.String("global", a.Definition.ID))
		return s, false, nil
	}
	if dups := foreignDuplicates(cur, scope{proj: pi, page: -1, global: gi}, []*node{a.Definition}); len(dups) > 0 {
		p.warn(a, "definition reuses ids from the project", slog.Any("err", &validate.Error{Issues: dups}))
		return s, false, nil
	}
	def := a.Definition.DeepClone()
	def.IsGlobalInstance, def.GlobalComponentID = false, ""
	s = p.updateProject(s, pi, func(pr *domain.Project) {
		defs := slices.Clone(pr.GlobalComponents)
		defs[gi] = def
		pr.GlobalComponents = defs
		p.resync(pr, def)
	})
	return s.pruneSelection(), true, nil
}

func (p *Processor) setEditingGlobal(s State, a SetEditingGlobalComponent) (State, bool, error) {
	if a.ID == s.EditingGlobalComponentID {
		return s, false, nil
	}
	if a.ID == "" {
		s.EditingGlobalComponentID = ""
		s.SelectedNodeIDs = []string{domain.RootContainerID}
		s.LastSelectedID = ""
		return s, true, nil
	}
	pr, ok := s.CurrentProject()
	if !ok || pr.GlobalComponent(a.ID) < 0 {
		p.warn(a, "global component not found", slog.String("global", a.ID))
		return s, false, nil
	}
	s.EditingGlobalComponentID = a.ID
	return s.selectOnly(a.ID), true, nil
}

func (p *Processor) detachInstance(s State, a DetachGlobalComponentInstance) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	n := tree.Find(sc.tree, a.ID)
	if n == nil || !n.IsGlobalInstance {
		p.warn(a, "node is not a global component instance", slog.String("id", a.ID))
		return s, false, nil
	}
	root := n
	for {
		parent := tree.FindParent(sc.tree, root.ID)
		if parent == nil || !isInstanceOf(n.GlobalComponentID)(parent) {
			break
		}
		root = parent
	}
	nodes := tree.Update(sc.tree, root.ID, detach)
	return p.commitTree(s, sc, nodes), true, nil
}

func (p *Processor) deleteGlobal(s State, a DeleteGlobalComponent) (State, bool, error) {
	pi := s.projectIndex()
	if pi < 0 {
		p.warn(a, "no current project")
		return s, false, nil
	}
	gi := s.Projects[pi].GlobalComponent(a.ID)
	if gi < 0 {
		p.warn(a, "global component not found", slog.String("global", a.ID))
		return s, false, nil
	}
	s = p.updateProject(s, pi, func(pr *domain.Project) {
		pages := slices.Clone(pr.Pages)
		for i := range pages {
			pages[i].Tree = tree.UpdateWhere(pages[i].Tree, isInstanceOf(a.ID), detach)
		}
		pr.Pages = pages
		defs := slices.Delete(slices.Clone(pr.GlobalComponents), gi, gi+1)
		for i, g := range defs {
			defs[i] = tree.UpdateWhere([]*node{g}, isInstanceOf(a.ID), detach)[0]
		}
		pr.GlobalComponents = defs
	})
	if s.EditingGlobalComponentID == a.ID {
		s.EditingGlobalComponentID = ""
	}
	return s.pruneSelection(), true, nil
}
