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

	"wpuilab/internal/domain"
	"wpuilab/internal/tree"
)

func (s State) firstSelected() string {
	if len(s.SelectedNodeIDs) > 0 {
		return s.SelectedNodeIDs[0]
	}
	return ""
}

func (p *Processor) copyComponent(s State, a CopyComponent) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	id := a.ID
	if id == "" {
		id = s.firstSelected()
	}
	n := tree.Find(sc.tree, id)
	switch {
	case n == nil:
		p.warn(a, "node not found", slog.String("id", id))
		return s, false, nil
	case id == domain.RootContainerID:
		p.warn(a, "root container cannot be copied")
		return s, false, nil
	}
	s.Clipboard = n.DeepClone()
	s.CutNodeID = ""
	return s, true, nil
}

func (p *Processor) cutComponent(s State, a CutComponent) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	id := a.ID
	if id == "" {
		id = s.firstSelected()
	}
	n := tree.Find(sc.tree, id)
	switch {
	case n == nil:
		p.warn(a, "node not found", slog.String("id", id))
		return s, false, nil
	case sc.protected(id):
		p.warn(a, "root cannot be cut", slog.String("id", id))
		return s, false, nil
	}
	s.Clipboard = n.DeepClone()
	s.CutNodeID = id
	return p.commitTree(s, sc, tree.Remove(sc.tree, id)).pruneSelection(), true, nil
}

func (p *Processor) pasteComponent(s State, a PasteComponent) (State, bool, error) {
	if s.Clipboard == nil {
		p.warn(a, "clipboard is empty")
		return s, false, nil
	}
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	anchorID := a.TargetID
	if anchorID == "" {
		anchorID = s.firstSelected()
	}
	if anchorID == "" {
		anchorID = sc.root()
	}
	anchor := tree.Find(sc.tree, anchorID)
	if anchor == nil {
		p.warn(a, "paste target not found", slog.String("id", anchorID))
		return s, false, nil
	}

	parent, index := p.pasteTarget(sc, anchor)
	if parent == nil {
		p.warn(a, "no container to paste into", slog.String("id", anchorID))
		return s, false, nil
	}

	clone := tree.CloneWithFreshIDs(s.Clipboard, p.IDs)
	pr := &s.Projects[sc.proj]
	if gid := clone.GlobalComponentID; clone.IsGlobalInstance &&
		(pr.GlobalComponent(gid) < 0 || (sc.isolated() && gid == sc.root())) {
		// the definition is gone, or the paste would nest a definition inside itself
		clone = detach(clone)
	}
	nodes, clone := p.placeInParent(sc.tree, parent, clone, index)
	s = p.commitTree(s, sc, nodes)
	s.CutNodeID = ""
	return s.selectOnly(clone.ID), true, nil
}

// pasteTarget resolves the drop point for a paste anchored at anchor: inside containers, except the types that
// paste as siblings, otherwise right after anchor in its parent.
func (p *Processor) pasteTarget(sc scope, anchor *node) (*node, int) {
	inside := p.Registry.AcceptsChildren(anchor.Type) &&
		(!p.Registry.PastesAsSibling(anchor.Type) || sc.protected(anchor.ID))
	if inside {
		return anchor, -1
	}
	parent := tree.FindParent(sc.tree, anchor.ID)
	if parent == nil {
		return nil, -1
	}
	return parent, tree.IndexInParent(sc.tree, anchor.ID) + 1
}
