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

	"wpuilab/internal/tree"
)

func (p *Processor) toggleSelection(s State, a ToggleNodeSelection) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	if !tree.Contains(sc.tree, a.ID) {
		p.warn(a, "node not found", slog.String("id", a.ID))
		return s, false, nil
	}
	switch {
	case a.Range:
		s.SelectedNodeIDs = union(s.SelectedNodeIDs, siblingRange(sc.tree, s.LastSelectedID, a.ID))
	case a.Multi:
		if slices.Contains(s.SelectedNodeIDs, a.ID) {
			s.SelectedNodeIDs = slices.DeleteFunc(slices.Clone(s.SelectedNodeIDs), func(id string) bool { return id == a.ID })
		} else {
			s.SelectedNodeIDs = union(s.SelectedNodeIDs, []string{a.ID})
		}
		if len(s.SelectedNodeIDs) == 0 {
			s.SelectedNodeIDs = []string{sc.root()}
		}
	default:
		s.SelectedNodeIDs = []string{a.ID}
	}
	s.LastSelectedID = a.ID
	return s, true, nil
}

// siblingRange returns the contiguous run of siblings between anchor and id inclusive, in document order.
// When the two do not share a parent only id is returned.
func siblingRange(nodes []*node, anchor, id string) []string {
	if anchor == "" || anchor == id {
		return []string{id}
	}
	pa, okA := tree.ParentID(nodes, anchor)
	pb, okB := tree.ParentID(nodes, id)
	if !okA || !okB || pa != pb {
		return []string{id}
	}
	siblings := nodes
	if pa != "" {
		siblings = tree.Find(nodes, pa).Children
	}
	i, j := indexOf(siblings, anchor), indexOf(siblings, id)
	if i > j {
		i, j = j, i
	}
	run := make([]string, 0, j-i+1)
	for _, n := range siblings[i : j+1] {
		run = append(run, n.ID)
	}
	return run
}

func indexOf(nodes []*node, id string) int {
	return slices.IndexFunc(nodes, func(n *node) bool { return n != nil && n.ID == id })
}

func union(a, b []string) []string {
	out := slices.Clone(a)
	for _, id := range b {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (p *Processor) setSelection(s State, a SetSelectedNodes) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	var kept []string
	for _, id := range a.IDs {
		if !tree.Contains(sc.tree, id) {
			p.warn(a, "node not found", slog.String("id", id))
			continue
		}
		kept = union(kept, []string{id})
	}
	if len(kept) == 0 {
		kept = []string{sc.root()}
	}
	s.SelectedNodeIDs = kept
	s.LastSelectedID = kept[len(kept)-1]
	return s, true, nil
}
