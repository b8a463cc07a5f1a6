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

	"wpuilab/internal/domain"
	"wpuilab/internal/registry"
	"wpuilab/internal/tree"
	"wpuilab/internal/validate"
)

// GridType is the container type whose children are placed on column tracks.
const GridType = "Grid"

func (p *Processor) insertComponent(s State, a InsertComponent) (State, bool, error) {
	if a.Node == nil {
		p.warn(a, "insert without node")
		return s, false, nil
	}
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	parentID := a.ParentID
	if parentID == "" {
		parentID = sc.root()
	}
	parent := tree.Find(sc.tree, parentID)
	if parent == nil {
		p.warn(a, "parent not found", slog.String("parent", parentID))
		return s, false, nil
	}
	if !p.Registry.AcceptsChildren(parent.Type) {
		p.warn(a, "parent does not accept children", slog.String("parent", parentID), slog.String("type", parent.Type))
		return s, false, nil
	}
	n := p.adopt(&s.Projects[sc.proj], a.Node)
	nodes, n := p.placeInParent(sc.tree, parent, n, a.Index)
	s = p.commitTree(s, sc, nodes)
	return s.selectOnly(n.ID), true, nil
}

// adopt copies an externally built node so the caller cannot mutate committed state. The copy keeps its ids
// unless one of them is empty, repeated, or already used in the project; then the whole subtree gets fresh ids.
func (p *Processor) adopt(pr *domain.Project, n *node) *node {
	used := projectIDs(pr)
	fresh := false
	seen := map[string]struct{}{}
	tree.Walk([]*node{n}, func(c, _ *node, _ int) bool {
		_, inProject := used[c.ID]
		_, repeated := seen[c.ID]
		if c.ID == "" || c.ID == domain.RootContainerID || inProject || repeated {
			fresh = true
			return false
		}
		seen[c.ID] = struct{}{}
		return true
	})
	if fresh {
		return tree.CloneWithFreshIDs(n, p.IDs)
	}
	return n.DeepClone()
}

// placeInParent inserts n under parent, applying the smart span policy when parent is a grid and n has no span.
func (p *Processor) placeInParent(nodes []*node, parent, n *node, index int) ([]*node, *node) {
	if parent.Type == GridType && n.GridColumnSpan == 0 {
		res := tree.SmartGridSpan(parent)
		n = n.ShallowCopy()
		n.GridColumnSpan = res.Span
		nodes = tree.ApplySpanUpdates(nodes, res.ChildrenToUpdate)
	}
	return tree.Insert(nodes, n, parent.ID, index), n
}

func (p *Processor) removeComponents(s State, a Action, idList []string) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	nodes := sc.tree
	for _, id := range idList {
		switch {
		case sc.protected(id):
			p.warn(a, "root cannot be removed", slog.String("id", id))
		case tree.Find(nodes, id) == nil:
			p.warn(a, "node not found", slog.String("id", id))
		default:
			nodes = tree.Remove(nodes, id)
		}
	}
	if tree.Same(nodes, sc.tree) {
		return s, false, nil
	}
	return p.commitTree(s, sc, nodes).pruneSelection(), true, nil
}

func (p *Processor) updateProps(s State, a Action, idList []string, patch map[string]any) (State, bool, error) {
	if len(patch) == 0 {
		return s, false, nil
	}
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	var found []string
	for _, id := range idList {
		if tree.Find(sc.tree, id) == nil {
			p.warn(a, "node not found", slog.String("id", id))
			continue
		}
		found = append(found, id)
	}
	if len(found) == 0 {
		return s, false, nil
	}
	patch = domain.CloneProps(patch)
	nodes := tree.UpdateMany(sc.tree, found, func(n *node) *node { return applyPatch(n, patch) })
	return p.commitTree(s, sc, nodes), true, nil
}

// applyPatch overlays patch onto n's props, lifting layout keys onto the node fields.
func applyPatch(n *node, patch map[string]any) *node {
	c := n.ShallowCopy()
	props := make(map[string]any, len(n.Props)+len(patch))
	maps.Copy(props, n.Props)
	for k, v := range patch {
		switch k {
		case "width":
			c.Width, _ = domain.StringValue(v)
		case "gridColumnStart":
			c.GridColumnStart, _ = domain.IntValue(v)
		case "gridColumnSpan":
			c.GridColumnSpan, _ = domain.IntValue(v)
		case "gridRowSpan":
			c.GridRowSpan, _ = domain.IntValue(v)
		case "responsiveColumns":
			c.ResponsiveColumns = responsiveColumns(v)
		default:
			if v == nil {
				delete(props, k)
			} else {
				props[k] = v
			}
		}
	}
	c.Props = props
	return c
}

func responsiveColumns(v any) map[string]int {
	switch t := v.(type) {
	case map[string]int:
		return maps.Clone(t)
	case map[string]any:
		out := make(map[string]int, len(t))
		for k, raw := range t {
			if n, ok := domain.IntValue(raw); ok {
				out[k] = n
			}
		}
		return out
	default:
		return nil
	}
}

func (p *Processor) updateName(s State, a UpdateComponentName) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	n := tree.Find(sc.tree, a.ID)
	if n == nil {
		p.warn(a, "node not found", slog.String("id", a.ID))
		return s, false, nil
	}
	if n.Name == a.Name {
		return s, false, nil
	}
	nodes := tree.Update(sc.tree, a.ID, func(n *node) *node {
		c := n.ShallowCopy()
		c.Name = a.Name
		return c
	})
	return p.commitTree(s, sc, nodes), true, nil
}

func (p *Processor) duplicateComponent(s State, a DuplicateComponent) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	if sc.protected(a.ID) {
		p.warn(a, "root cannot be duplicated", slog.String("id", a.ID))
		return s, false, nil
	}
	nodes, newID := tree.Duplicate(sc.tree, a.ID, p.IDs)
	if newID == "" {
		p.warn(a, "node not found", slog.String("id", a.ID))
		return s, false, nil
	}
	return p.commitTree(s, sc, nodes).selectOnly(newID), true, nil
}

func (p *Processor) moveComponent(s State, a MoveComponent) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	if a.Direction != tree.Up && a.Direction != tree.Down {
		p.warn(a, "unknown direction", slog.String("direction", string(a.Direction)))
		return s, false, nil
	}
	if sc.protected(a.ID) || tree.Find(sc.tree, a.ID) == nil {
		p.warn(a, "node cannot be moved", slog.String("id", a.ID))
		return s, false, nil
	}
	nodes := tree.Move(sc.tree, a.ID, a.Direction)
	if tree.Same(nodes, sc.tree) {
		return s, false, nil
	}
	return p.commitTree(s, sc, nodes), true, nil
}

func (p *Processor) reorderComponent(s State, a ReorderComponent) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	if a.ActiveID != a.OverID && sc.protected(a.ActiveID) {
		p.warn(a, "root cannot be moved", slog.String("id", a.ActiveID))
		return s, false, nil
	}
	nodes, err := tree.Reorder(sc.tree, a.ActiveID, a.OverID, a.Position, p.Registry)
	if err != nil {
		p.warn(a, "reorder refused", slog.String("active", a.ActiveID), slog.String("over", a.OverID),
			slog.String("position", string(a.Position)), slog.Any("err", err))
		return s, false, nil
	}
	if tree.Same(nodes, sc.tree) {
		return s, false, nil
	}
	return p.commitTree(s, sc, nodes), true, nil
}

func (p *Processor) setTree(s State, a SetTree) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	res := validate.Tree(a.Tree, p.Registry)
	if !res.Valid {
		return s, false, res.Err()
	}
	var issues []validate.Issue
	if sc.isolated() {
		if len(a.Tree) != 1 || a.Tree[0].ID != sc.root() {
			issues = append(issues, validate.Issue{Severity: validate.SeverityError,
				Message: "a definition tree must consist of the definition root " + sc.root()})
		}
	} else if !rootedAtContainer(a.Tree) {
		issues = append(issues, validate.Issue{Severity: validate.SeverityError,
			Message: "a page tree must contain the root container " + domain.RootContainerID})
	}
	issues = append(issues, foreignDuplicates(&s.Projects[sc.proj], sc, a.Tree)...)
	if len(issues) > 0 {
		return s, false, &validate.Error{Issues: issues}
	}
	nodes := domain.CloneTree(a.Tree)
	return p.commitTree(s, sc, nodes).pruneSelection(), true, nil
}

func rootedAtContainer(nodes []*node) bool {
	for _, n := range nodes {
		if n != nil && n.ID == domain.RootContainerID {
			return true
		}
	}
	return false
}

// foreignDuplicates reports ids of nodes that already exist outside the tree being replaced.
func foreignDuplicates(pr *domain.Project, sc scope, nodes []*node) []validate.Issue {
	other := map[string]struct{}{}
	add := func(n, _ *node, _ int) bool {
		other[n.ID] = struct{}{}
		return true
	}
	for i := range pr.Pages {
		if i != sc.page {
			tree.Walk(pr.Pages[i].Tree, add)
		}
	}
	for i, g := range pr.GlobalComponents {
		if i != sc.global {
			tree.Walk([]*node{g}, add)
		}
	}
	var issues []validate.Issue
	tree.Walk(nodes, func(n, _ *node, _ int) bool {
		if _, dup := other[n.ID]; dup && n.ID != domain.RootContainerID {
			issues = append(issues, validate.Issue{Severity: validate.SeverityError,
				Message: "id " + n.ID + " is already used elsewhere in the project"})
		}
		return true
	})
	return issues
}

// transposed maps alignment values between a horizontal and a vertical stack.
var transposed = map[string]string{
	"top":        "left",
	"left":       "top",
	"bottom":     "right",
	"right":      "bottom",
	"topRight":   "bottomLeft",
	"bottomLeft": "topRight",
}

func (p *Processor) swapLayoutType(s State, a SwapLayoutType) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	n := tree.Find(sc.tree, a.ID)
	if n == nil {
		p.warn(a, "node not found", slog.String("id", a.ID))
		return s, false, nil
	}
	target := registry.StackVertical
	switch p.Registry.StackDirection(n.Type) {
	case registry.StackVertical:
		target = registry.StackHorizontal
	case registry.StackHorizontal:
	default:
		p.warn(a, "only stacks can swap layout", slog.String("id", a.ID), slog.String("type", n.Type))
		return s, false, nil
	}
	newType := p.Registry.StackType(target)
	if newType == "" {
		p.warn(a, "no stack type registered", slog.String("direction", target))
		return s, false, nil
	}
	nodes := tree.Update(sc.tree, a.ID, func(n *node) *node {
		c := n.ShallowCopy()
		c.Type = newType
		c.Props = swapLayoutProps(n.Props, target)
		return c
	})
	return p.commitTree(s, sc, nodes), true, nil
}

// swapLayoutProps transposes directional alignment and justify values and drops wrap, which only horizontal
// stacks understand. Axis-relative justify values (flex-start, center, space-between) and spacing carry over.
func swapLayoutProps(props map[string]any, target string) map[string]any {
	out := maps.Clone(props)
	if out == nil {
		out = map[string]any{}
	}
	for _, key := range []string{"alignment", "justify"} {
		if v, ok := out[key].(string); ok {
			if t, ok := transposed[v]; ok {
				out[key] = t
			}
		}
	}
	if target == registry.StackVertical {
		delete(out, "wrap")
	}
	return out
}

func (p *Processor) groupComponents(s State, a GroupComponents) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	idList := a.IDs
	if len(idList) == 0 {
		idList = s.SelectedNodeIDs
	}
	group := map[string]struct{}{}
	parentID := ""
	for i, id := range idList {
		if sc.protected(id) {
			p.warn(a, "root cannot be grouped", slog.String("id", id))
			return s, false, nil
		}
		pid, found := tree.ParentID(sc.tree, id)
		if !found || pid == "" {
			p.warn(a, "node not found", slog.String("id", id))
			return s, false, nil
		}
		if i > 0 && pid != parentID {
			p.warn(a, "grouped nodes must share a parent", slog.String("id", id), slog.String("parent", pid),
				slog.String("expected", parentID))
			return s, false, nil
		}
		parentID = pid
		group[id] = struct{}{}
	}
	if len(group) == 0 {
		p.warn(a, "nothing to group")
		return s, false, nil
	}
	direction := registry.StackHorizontal
	if len(group) > 1 {
		direction = registry.StackVertical
	}
	wrapperType := p.Registry.StackType(direction)
	if wrapperType == "" {
		p.warn(a, "no stack type registered", slog.String("direction", direction))
		return s, false, nil
	}

	parent := tree.Find(sc.tree, parentID)
	wrapper := &node{ID: p.IDs.NewID(), Type: wrapperType, Props: p.Registry.DefaultsFor(wrapperType)}
	if parent.IsGlobalInstance {
		wrapper.IsGlobalInstance = true
		wrapper.GlobalComponentID = parent.GlobalComponentID
	}
	var rest []*node
	at := -1
	for _, c := range parent.Children {
		if _, ok := group[c.ID]; !ok {
			rest = append(rest, c)
			continue
		}
		if at < 0 {
			at = len(rest)
			if parent.Type == GridType {
				copyGridPlacement(wrapper, c)
			}
		}
		wrapper.Children = append(wrapper.Children, stripGridPlacement(c))
	}
	kids := tree.InsertAt(rest, at, wrapper)
	nodes := tree.Update(sc.tree, parentID, func(n *node) *node {
		c := n.ShallowCopy()
		c.Children = kids
		return c
	})
	return p.commitTree(s, sc, nodes).selectOnly(wrapper.ID), true, nil
}

func copyGridPlacement(dst, src *node) {
	dst.GridColumnStart = src.GridColumnStart
	dst.GridColumnSpan = src.GridColumnSpan
	dst.GridRowSpan = src.GridRowSpan
	dst.ResponsiveColumns = maps.Clone(src.ResponsiveColumns)
}

func stripGridPlacement(n *node) *node {
	if n.GridColumnStart == 0 && n.GridColumnSpan == 0 && n.GridRowSpan == 0 && n.ResponsiveColumns == nil {
		return n
	}
	c := n.ShallowCopy()
	c.GridColumnStart, c.GridColumnSpan, c.GridRowSpan, c.ResponsiveColumns = 0, 0, 0, nil
	return c
}

func (p *Processor) ungroupComponents(s State, a UngroupComponents) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	n := tree.Find(sc.tree, a.ID)
	switch {
	case n == nil:
		p.warn(a, "node not found", slog.String("id", a.ID))
		return s, false, nil
	case sc.protected(a.ID):
		p.warn(a, "root cannot be ungrouped", slog.String("id", a.ID))
		return s, false, nil
	case p.Registry.StackDirection(n.Type) == "":
		p.warn(a, "only stacks can be ungrouped", slog.String("id", a.ID), slog.String("type", n.Type))
		return s, false, nil
	}
	parent := tree.FindParent(sc.tree, a.ID)
	if parent == nil {
		p.warn(a, "node has no parent", slog.String("id", a.ID))
		return s, false, nil
	}
	kids := make([]*node, 0, len(n.Children))
	selected := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		if parent.Type == GridType && (c.GridColumnSpan == 0 || c.GridRowSpan == 0) {
			cc := c.ShallowCopy()
			if cc.GridColumnSpan == 0 {
				cc.GridColumnSpan = n.GridColumnSpan
			}
			if cc.GridRowSpan == 0 {
				cc.GridRowSpan = n.GridRowSpan
			}
			c = cc
		}
		kids = append(kids, c)
		selected = append(selected, c.ID)
	}
	idx := tree.IndexInParent(sc.tree, a.ID)
	siblings := tree.InsertAt(tree.RemoveAt(parent.Children, idx), idx, kids...)
	nodes := tree.Update(sc.tree, parent.ID, func(pn *node) *node {
		c := pn.ShallowCopy()
		c.Children = siblings
		return c
	})
	s = p.commitTree(s, sc, nodes)
	if len(selected) == 0 {
		selected = []string{parent.ID}
	}
	s.SelectedNodeIDs = selected
	s.LastSelectedID = selected[len(selected)-1]
	return s, true, nil
}
