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

	"wpuilab/internal/domain"
	"wpuilab/internal/tree"
)

// editInteractions replaces the interaction list of node id in the active tree with fn's result.
// fn reports false to leave the state unchanged.
func (p *Processor) editInteractions(s State, a Action, id string, fn func([]domain.Interaction) ([]domain.Interaction, bool)) (State, bool, error) {
	sc, ok := p.activeScope(s, a)
	if !ok {
		return s, false, nil
	}
	n := tree.Find(sc.tree, id)
	if n == nil {
		p.warn(a, "node not found", slog.String("id", id))
		return s, false, nil
	}
	list, changed := fn(n.Interactions)
	if !changed {
		return s, false, nil
	}
	nodes := tree.Update(sc.tree, id, func(old *node) *node {
		c := old.ShallowCopy()
		c.Interactions = list
		return c
	})
	return p.commitTree(s, sc, nodes), true, nil
}

func (p *Processor) addInteraction(s State, a AddInteraction) (State, bool, error) {
	in := a.Interaction
	if in.Trigger == "" || in.Action == "" {
		p.warn(a, "interaction needs a trigger and an action", slog.String("id", a.NodeID))
		return s, false, nil
	}
	if in.ID == "" {
		in.ID = p.IDs.NewID()
	}
	return p.editInteractions(s, a, a.NodeID, func(list []domain.Interaction) ([]domain.Interaction, bool) {
		if slices.ContainsFunc(list, func(x domain.Interaction) bool { return x.ID == in.ID }) {
			p.warn(a, "interaction id already used", slog.String("interaction", in.ID))
			return nil, false
		}
		return append(slices.Clone(list), in), true
	})
}

func (p *Processor) updateInteraction(s State, a UpdateInteraction) (State, bool, error) {
	if a.Interaction.Trigger == "" || a.Interaction.Action == "" {
		p.warn(a, "interaction needs a trigger and an action", slog.String("id", a.NodeID),
			slog.String("interaction", a.Interaction.ID))
		return s, false, nil
	}
	return p.editInteractions(s, a, a.NodeID, func(list []domain.Interaction) ([]domain.Interaction, bool) {
		i := slices.IndexFunc(list, func(x domain.Interaction) bool { return x.ID == a.Interaction.ID })
		if i < 0 {
			p.warn(a, "interaction not found", slog.String("interaction", a.Interaction.ID))
			return nil, false
		}
		if list[i] == a.Interaction {
			return nil, false
		}
		out := slices.Clone(list)
		out[i] = a.Interaction
		return out, true
	})
}

func (p *Processor) removeInteraction(s State, a RemoveInteraction) (State, bool, error) {
	return p.editInteractions(s, a, a.NodeID, func(list []domain.Interaction) ([]domain.Interaction, bool) {
		i := slices.IndexFunc(list, func(x domain.Interaction) bool { return x.ID == a.InteractionID })
		if i < 0 {
			p.warn(a, "interaction not found", slog.String("interaction", a.InteractionID))
			return nil, false
		}
		return slices.Delete(slices.Clone(list), i, i+1), true
	})
}
