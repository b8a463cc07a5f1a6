/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "maps"

// ShallowCopy returns a copy of n that shares Props, Children and Interactions with n.
// Callers replace (never mutate) the shared fields they want to change.
func (n *ComponentNode) ShallowCopy() *ComponentNode {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

// DeepClone returns a fully independent copy of the subtree rooted at n, ids included.
func (n *ComponentNode) DeepClone() *ComponentNode {
	if n == nil {
		return nil
	}
	c := *n
	c.Props = CloneProps(n.Props)
	if n.Children != nil {
		c.Children = make([]*ComponentNode, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.DeepClone()
		}
	}
	if n.Interactions != nil {
		c.Interactions = append([]Interaction(nil), n.Interactions...)
	}
	if n.ResponsiveColumns != nil {
		c.ResponsiveColumns = maps.Clone(n.ResponsiveColumns)
	}
	return &c
}

// WithProps returns a copy of n whose props are n.Props overlaid with patch.
func (n *ComponentNode) WithProps(patch map[string]any) *ComponentNode {
	c := n.ShallowCopy()
	merged := make(map[string]any, len(n.Props)+len(patch))
	maps.Copy(merged, n.Props)
	maps.Copy(merged, patch)
	c.Props = merged
	return c
}

// CloneProps deep-copies a props map; nested maps and slices are copied, scalars are shared.
// A nil map clones to an empty one so that every node carries a props object.
func CloneProps(p map[string]any) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneProps(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// CloneTree deep-copies a forest.
func CloneTree(nodes []*ComponentNode) []*ComponentNode {
	if nodes == nil {
		return nil
	}
	out := make([]*ComponentNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.DeepClone()
	}
	return out
}

// DeepClone returns a fully independent copy of the page.
func (p Page) DeepClone() Page {
	c := p
	c.Tree = CloneTree(p.Tree)
	if p.Theme != nil {
		t := *p.Theme
		c.Theme = &t
	}
	if p.CanvasPosition != nil {
		cp := *p.CanvasPosition
		c.CanvasPosition = &cp
	}
	return c
}

// DeepClone returns a fully independent copy of the project.
func (p Project) DeepClone() Project {
	c := p
	if p.Pages != nil {
		c.Pages = make([]Page, len(p.Pages))
		for i, pg := range p.Pages {
			c.Pages[i] = pg.DeepClone()
		}
	}
	c.GlobalComponents = CloneTree(p.GlobalComponents)
	if p.Theme != nil {
		t := *p.Theme
		c.Theme = &t
	}
	if p.Layout != nil {
		l := *p.Layout
		c.Layout = &l
	}
	return c
}

// CloneProjects deep-copies a project list.
func CloneProjects(ps []Project) []Project {
	if ps == nil {
		return nil
	}
	out := make([]Project, len(ps))
	for i, p := range ps {
		out[i] = p.DeepClone()
	}
	return out
}

// PageByID returns the index of the page with id, or -1.
func (p *Project) PageByID(id string) int {
	for i := range p.Pages {
		if p.Pages[i].ID == id {
			return i
		}
	}
	return -1
}

// CurrentPage returns the index of the current page, falling back to the first page, or -1 when empty.
func (p *Project) CurrentPage() int {
	if i := p.PageByID(p.CurrentPageID); i >= 0 {
		return i
	}
	if len(p.Pages) > 0 {
		return 0
	}
	return -1
}

// GlobalComponent returns the index of the definition with id, or -1.
func (p *Project) GlobalComponent(id string) int {
	for i, g := range p.GlobalComponents {
		if g != nil && g.ID == id {
			return i
		}
	}
	return -1
}

// ProjectByID returns the index of the project with id, or -1.
func (w *Workspace) ProjectByID(id string) int {
	for i := range w.Projects {
		if w.Projects[i].ID == id {
			return i
		}
	}
	return -1
}
