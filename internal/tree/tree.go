/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tree implements pure operations over one page's component forest.
//
// Every function treats its input as immutable and returns a new forest built by copying only the nodes on
// the path from the top level to the affected node; untouched subtrees are shared with the input.
// When nothing changes the input slice itself is returned, so callers can detect no-ops with Same.
package tree

import (
	"errors"
	"slices"

	"wpuilab/internal/domain"
	"wpuilab/internal/ids"
)

type node = domain.ComponentNode

// Capabilities is the slice of the component registry the tree operations consult.
type Capabilities interface {
	AcceptsChildren(typ string) bool
	IsStructural(typ string) bool
}

// Policy errors. Operations returning one of these also return their input unchanged.
var (
	ErrNotFound      = errors.New("node not found")
	ErrRootProtected = errors.New("root container cannot be moved, removed or duplicated")
	ErrNotSiblings   = errors.New("before/after reorder requires siblings under the same parent")
	ErrNotContainer  = errors.New("target does not accept children")
	ErrCycle         = errors.New("cannot move a node into its own subtree")
)

// Direction for Move.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Position for Reorder.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
	Inside Position = "inside"
)

// UpdateFunc returns the replacement for n. It must not mutate n; use ShallowCopy or WithProps.
type UpdateFunc func(n *node) *node

// Same reports whether a and b are the same forest value (same backing array and length).
func Same(a, b []*node) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// Find returns the node with id, searching depth-first.
func Find(nodes []*node, id string) *node {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			return n
		}
		if f := Find(n.Children, id); f != nil {
			return f
		}
	}
	return nil
}

// FindParent returns the parent of id; nil for top-level nodes (the root container) and unknown ids.
func FindParent(nodes []*node, id string) *node {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		for _, c := range n.Children {
			if c != nil && c.ID == id {
				return n
			}
		}
		if p := FindParent(n.Children, id); p != nil {
			return p
		}
	}
	return nil
}

// Update replaces the node with id by fn(node). It returns nodes unchanged when id is absent.
func Update(nodes []*node, id string, fn UpdateFunc) []*node {
	found := false
	out, _ := mapTree(nodes, func(n *node) (*node, bool) {
		if found {
			return n, false
		}
		if n.ID == id {
			found = true
			return fn(n), false
		}
		return n, true
	})
	return out
}

// UpdateMany applies fn to every node whose id is in ids, including nested matches.
func UpdateMany(nodes []*node, idList []string, fn UpdateFunc) []*node {
	if len(idList) == 0 {
		return nodes
	}
	set := make(map[string]struct{}, len(idList))
	for _, id := range idList {
		set[id] = struct{}{}
	}
	out, _ := mapTree(nodes, func(n *node) (*node, bool) {
		if _, ok := set[n.ID]; ok {
			return fn(n), true
		}
		return n, true
	})
	return out
}

// UpdateWhere applies fn to the outermost nodes matching pred; matched subtrees are not descended.
func UpdateWhere(nodes []*node, pred func(*node) bool, fn UpdateFunc) []*node {
	out, _ := mapTree(nodes, func(n *node) (*node, bool) {
		if pred(n) {
			return fn(n), false
		}
		return n, true
	})
	return out
}

// mapTree rebuilds nodes with visit's replacements, copying only changed paths.
// visit returns the replacement and whether to descend into its children.
func mapTree(nodes []*node, visit func(*node) (*node, bool)) ([]*node, bool) {
	var out []*node
	for i, n := range nodes {
		if n == nil {
			continue
		}
		repl, descend := visit(n)
		changed := repl != n
		if descend && repl != nil && len(repl.Children) > 0 {
			if kids, ok := mapTree(repl.Children, visit); ok {
				if !changed {
					repl = repl.ShallowCopy()
					changed = true
				}
				repl.Children = kids
			}
		}
		if changed {
			if out == nil {
				out = slices.Clone(nodes)
			}
			out[i] = repl
		}
	}
	if out == nil {
		return nodes, false
	}
	return out, true
}

// Insert adds n as a child of parentID at index (negative or out of range appends).
// An empty parentID means the root container; when the forest has no root container n is added at the top level.
// The caller is responsible for checking that the parent accepts children.
func Insert(nodes []*node, n *node, parentID string, index int) []*node {
	if n == nil {
		return nodes
	}
	if parentID == "" {
		parentID = domain.RootContainerID
		if Find(nodes, parentID) == nil {
			return insertAt(nodes, index, n)
		}
	}
	return Update(nodes, parentID, func(p *node) *node {
		c := p.ShallowCopy()
		c.Children = insertAt(p.Children, index, n)
		return c
	})
}

// Remove deletes id and its whole subtree. Removing the root container is a no-op.
func Remove(nodes []*node, id string) []*node {
	if id == domain.RootContainerID {
		return nodes
	}
	out, _ := editSiblings(nodes, id, func(sibs []*node, i int) []*node {
		return removeAt(sibs, i)
	})
	return out
}

// Duplicate clones the subtree at id with fresh ids and places the clone right after the original.
// It returns the new forest and the clone's id, or the input and "" when id is absent or the root container.
func Duplicate(nodes []*node, id string, gen ids.Generator) ([]*node, string) {
	if id == domain.RootContainerID {
		return nodes, ""
	}
	orig := Find(nodes, id)
	if orig == nil {
		return nodes, ""
	}
	clone := CloneWithFreshIDs(orig, gen)
	out, ok := editSiblings(nodes, id, func(sibs []*node, i int) []*node {
		return insertAt(sibs, i+1, clone)
	})
	if !ok {
		return nodes, ""
	}
	return out, clone.ID
}

// Move swaps id with its previous (Up) or next (Down) sibling; no-op at either end of the list.
func Move(nodes []*node, id string, dir Direction) []*node {
	if id == domain.RootContainerID {
		return nodes
	}
	out, _ := editSiblings(nodes, id, func(sibs []*node, i int) []*node {
		j := i - 1
		if dir == Down {
			j = i + 1
		}
		if j < 0 || j >= len(sibs) {
			return sibs
		}
		c := slices.Clone(sibs)
		c[i], c[j] = c[j], c[i]
		return c
	})
	return out
}

// Reorder is the drag-and-drop primitive.
//
// Before/After requires activeID and overID to share a parent; the active node is re-spliced next to the target.
// Inside re-parents the active node (with its subtree) as the last child of overID, which must accept children
// and must not lie inside the active subtree. Dropping a node onto itself is a no-op.
// On a policy failure the input is returned together with the reason.
func Reorder(nodes []*node, activeID, overID string, pos Position, caps Capabilities) ([]*node, error) {
	if activeID == overID {
		return nodes, nil
	}
	if activeID == domain.RootContainerID {
		return nodes, ErrRootProtected
	}
	active := Find(nodes, activeID)
	over := Find(nodes, overID)
	if active == nil || over == nil {
		return nodes, ErrNotFound
	}
	switch pos {
	case Before, After:
		if overID == domain.RootContainerID {
			return nodes, ErrRootProtected
		}
		pa, okA := parentIDOf(nodes, activeID)
		po, okO := parentIDOf(nodes, overID)
		if !okA || !okO || pa != po {
			return nodes, ErrNotSiblings
		}
		out, _ := editSiblings(nodes, overID, func(sibs []*node, _ int) []*node {
			rest := make([]*node, 0, len(sibs))
			for _, s := range sibs {
				if s.ID != activeID {
					rest = append(rest, s)
				}
			}
			j := indexOf(rest, overID)
			if pos == After {
				j++
			}
			return insertAt(rest, j, active)
		})
		return out, nil
	case Inside:
		if caps == nil || !caps.AcceptsChildren(over.Type) {
			return nodes, ErrNotContainer
		}
		if Find(active.Children, overID) != nil {
			return nodes, ErrCycle
		}
		removed := Remove(nodes, activeID)
		return Insert(removed, active, overID, -1), nil
	default:
		return nodes, errors.New("unknown drop position " + string(pos))
	}
}

// Flatten lists every node in pre-order: the root container first, then each subtree in document order.
func Flatten(nodes []*node) []*node {
	var out []*node
	Walk(nodes, func(n, _ *node, _ int) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Walk visits every node in pre-order with its parent (nil at top level) and depth.
// Returning false from fn skips the node's children.
func Walk(nodes []*node, fn func(n, parent *node, depth int) bool) {
	walk(nodes, nil, 0, fn)
}

func walk(nodes []*node, parent *node, depth int, fn func(n, parent *node, depth int) bool) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if fn(n, parent, depth) {
			walk(n.Children, n, depth+1, fn)
		}
	}
}

// FindTopMostContainer returns the highest ancestor of id (id included) strictly below the root container,
// skipping structural wrapper types. It returns nil when id is absent.
func FindTopMostContainer(nodes []*node, id string, caps Capabilities) *node {
	path := pathTo(nodes, id)
	if len(path) == 0 {
		return nil
	}
	candidates := path
	if candidates[0].ID == domain.RootContainerID {
		candidates = candidates[1:]
	}
	if len(candidates) == 0 {
		return path[0]
	}
	for _, n := range candidates {
		if caps == nil || !caps.IsStructural(n.Type) {
			return n
		}
	}
	return candidates[len(candidates)-1]
}

// FindPath returns the nodes from startID down to targetID inclusive, or an empty slice when targetID is not
// startID or one of its descendants.
func FindPath(nodes []*node, startID, targetID string) []*node {
	start := Find(nodes, startID)
	if start == nil {
		return []*node{}
	}
	p := pathTo([]*node{start}, targetID)
	if p == nil {
		return []*node{}
	}
	return p
}

// Contains reports whether id occurs anywhere in nodes.
func Contains(nodes []*node, id string) bool { return Find(nodes, id) != nil }

// CollectIDs returns every id in nodes in pre-order.
func CollectIDs(nodes []*node) []string {
	var out []string
	Walk(nodes, func(n, _ *node, _ int) bool {
		out = append(out, n.ID)
		return true
	})
	return out
}

// CloneWithFreshIDs deep-copies n and assigns a new id to every node of the copy.
func CloneWithFreshIDs(n *node, gen ids.Generator) *node {
	return CloneMapped(n, func(c *node, _ bool) { c.ID = gen.NewID() })
}

// CloneMapped deep-copies n and lets fn adjust every copied node; isRoot marks the copy of n itself.
func CloneMapped(n *node, fn func(c *node, isRoot bool)) *node {
	return cloneMapped(n, fn, true)
}

func cloneMapped(n *node, fn func(*node, bool), isRoot bool) *node {
	if n == nil {
		return nil
	}
	c := n.ShallowCopy()
	c.Props = domain.CloneProps(n.Props)
	if n.Interactions != nil {
		c.Interactions = slices.Clone(n.Interactions)
	}
	if n.Children != nil {
		c.Children = make([]*node, 0, len(n.Children))
		for _, ch := range n.Children {
			if ch != nil {
				c.Children = append(c.Children, cloneMapped(ch, fn, false))
			}
		}
	}
	fn(c, isRoot)
	return c
}

// ParentID returns the id of id's parent ("" at top level) and whether id was found.
func ParentID(nodes []*node, id string) (string, bool) { return parentIDOf(nodes, id) }

func parentIDOf(nodes []*node, id string) (string, bool) {
	if indexOf(nodes, id) >= 0 {
		return "", true
	}
	if p := FindParent(nodes, id); p != nil {
		return p.ID, true
	}
	return "", false
}

// IndexInParent returns id's position among its siblings, or -1.
func IndexInParent(nodes []*node, id string) int {
	if i := indexOf(nodes, id); i >= 0 {
		return i
	}
	if p := FindParent(nodes, id); p != nil {
		return indexOf(p.Children, id)
	}
	return -1
}

// editSiblings locates the sibling list holding id, replaces it with fn's result and copies the path above.
func editSiblings(nodes []*node, id string, fn func(sibs []*node, i int) []*node) ([]*node, bool) {
	if i := indexOf(nodes, id); i >= 0 {
		out := fn(nodes, i)
		return out, !Same(out, nodes)
	}
	for i, n := range nodes {
		if n == nil || len(n.Children) == 0 {
			continue
		}
		if kids, ok := editSiblings(n.Children, id, fn); ok {
			c := n.ShallowCopy()
			c.Children = kids
			out := slices.Clone(nodes)
			out[i] = c
			return out, true
		}
	}
	return nodes, false
}

func pathTo(nodes []*node, id string) []*node {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			return []*node{n}
		}
		if p := pathTo(n.Children, id); p != nil {
			return append([]*node{n}, p...)
		}
	}
	return nil
}

func indexOf(nodes []*node, id string) int {
	for i, n := range nodes {
		if n != nil && n.ID == id {
			return i
		}
	}
	return -1
}

// insertAt returns a new slice with v inserted at i; i out of range appends.
func insertAt(s []*node, i int, v ...*node) []*node {
	if i < 0 || i > len(s) {
		i = len(s)
	}
	out := make([]*node, 0, len(s)+len(v))
	out = append(out, s[:i]...)
	out = append(out, v...)
	return append(out, s[i:]...)
}

func removeAt(s []*node, i int) []*node {
	out := make([]*node, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// InsertAt and RemoveAt expose the copying slice helpers to callers assembling sibling lists.
func InsertAt(s []*node, i int, v ...*node) []*node { return insertAt(s, i, v...) }
func RemoveAt(s []*node, i int) []*node             { return removeAt(s, i) }
