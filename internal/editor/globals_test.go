/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpuilab/internal/domain"
	"wpuilab/internal/tree"
	"wpuilab/internal/validate"
)

func heroCard() *node {
	return &node{ID: "card", Type: "Card", Props: map[string]any{}, Children: []*node{
		{ID: "t", Type: "Text", Props: map[string]any{"content": "old"}},
	}}
}

// promoted returns a state with the hero card promoted on page one and a second instance on page two.
func promoted(t *testing.T) (*Processor, State, *node) {
	t.Helper()
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", heroCard()), MakeGlobalComponent{ID: "card", Name: "Hero"})
	pr, _ := s.CurrentProject()
	require.Len(t, pr.GlobalComponents, 1)
	def := pr.GlobalComponents[0]
	s = reduce(t, p, s, AddPage{Name: "About"}, InsertGlobalComponentInstance{GlobalComponentID: def.ID, Index: -1})
	return p, s, def
}

func instanceNodes(t *testing.T, s State, gid string) []*node {
	t.Helper()
	pr, ok := s.CurrentProject()
	require.True(t, ok)
	var out []*node
	for _, ref := range Instances(pr)[gid] {
		pg := pr.Pages[pr.PageByID(ref.PageID)]
		n := tree.Find(pg.Tree, ref.NodeID)
		require.NotNil(t, n)
		out = append(out, n)
	}
	return out
}

func TestMakeGlobalComponent(t *testing.T) {
	_, s, def := promoted(t)
	assert.Equal(t, "Hero", def.Name)
	assert.False(t, def.IsGlobalInstance)
	assert.NotEqual(t, "card", def.ID)

	insts := instanceNodes(t, s, def.ID)
	require.Len(t, insts, 2)
	for _, inst := range insts {
		assert.True(t, inst.IsGlobalInstance)
		assert.Equal(t, def.ID, inst.GlobalComponentID)
		require.Len(t, inst.Children, 1)
		assert.True(t, inst.Children[0].IsGlobalInstance)
		assert.Equal(t, "old", inst.Children[0].Props["content"])
	}
	assert.NotEqual(t, insts[0].ID, insts[1].ID)

	pr, _ := s.CurrentProject()
	res := validate.Project(pr, newTestProcessor().Registry)
	assert.True(t, res.Valid, "%v", res.Errors)
}

func TestMakeGlobalRefusals(t *testing.T) {
	p, s, def := promoted(t)
	insts := instanceNodes(t, s, def.ID)
	for _, id := range []string{domain.RootContainerID, insts[1].ID, "ghost"} {
		next := reduce(t, p, s, MakeGlobalComponent{ID: id})
		pr, _ := next.CurrentProject()
		assert.Len(t, pr.GlobalComponents, 1, id)
	}
}

func TestEditingDefinitionResyncsEveryInstance(t *testing.T) {
	p, s, def := promoted(t)
	before := instanceNodes(t, s, def.ID)

	s = reduce(t, p, s, SetEditingGlobalComponent{ID: def.ID})
	require.Len(t, s.ActiveTree(), 1)
	assert.Equal(t, def.ID, s.ActiveTree()[0].ID)
	assert.Equal(t, []string{def.ID}, s.SelectedNodeIDs)

	childID := def.Children[0].ID
	s = reduce(t, p, s,
		UpdateComponentProps{ID: childID, Props: map[string]any{"content": "new"}},
		RemoveComponent{ID: def.ID},
		SetEditingGlobalComponent{ID: ""},
	)
	assert.Empty(t, s.EditingGlobalComponentID)

	after := instanceNodes(t, s, def.ID)
	require.Len(t, after, 2)
	for i, inst := range after {
		assert.Equal(t, before[i].ID, inst.ID, "instance root keeps its id")
		assert.Equal(t, "new", inst.Children[0].Props["content"])
	}
	pr, _ := s.CurrentProject()
	assert.True(t, validate.Project(pr, p.Registry).Valid)

	s = reduce(t, p, s, Undo{})
	for _, inst := range instanceNodes(t, s, def.ID) {
		assert.Equal(t, "old", inst.Children[0].Props["content"])
	}
}

func TestUpdateGlobalComponentKeepsPlacement(t *testing.T) {
	p, s, def := promoted(t)
	inst := instanceNodes(t, s, def.ID)[1]
	s = reduce(t, p, s, UpdateComponentProps{ID: inst.ID, Props: map[string]any{"width": "50%"}})

	edited := def.DeepClone()
	edited.Props = map[string]any{"elevation": 3}
	s = reduce(t, p, s, UpdateGlobalComponent{Definition: edited})

	got := instanceNodes(t, s, def.ID)
	assert.Equal(t, "50%", got[1].Width)
	assert.Equal(t, 3, got[1].Props["elevation"])
	assert.Equal(t, 3, got[0].Props["elevation"])
}

func TestInsertInstanceOfItselfIsRefused(t *testing.T) {
	p, s, def := promoted(t)
	s = reduce(t, p, s, SetEditingGlobalComponent{ID: def.ID})
	next := reduce(t, p, s, InsertGlobalComponentInstance{GlobalComponentID: def.ID, Index: -1})
	assert.True(t, tree.Same(s.ActiveTree(), next.ActiveTree()))
}

func TestDetachInstance(t *testing.T) {
	p, s, def := promoted(t)
	inst := instanceNodes(t, s, def.ID)[1]
	s = reduce(t, p, s, DetachGlobalComponentInstance{ID: inst.Children[0].ID})

	n := tree.Find(s.ActiveTree(), inst.ID)
	require.NotNil(t, n)
	assert.False(t, n.IsGlobalInstance)
	assert.Empty(t, n.Children[0].GlobalComponentID)
	assert.Len(t, instanceNodes(t, s, def.ID), 1)
}

func TestDeleteGlobalDetachesInstances(t *testing.T) {
	p, s, def := promoted(t)
	insts := instanceNodes(t, s, def.ID)
	s = reduce(t, p, s, SetEditingGlobalComponent{ID: def.ID}, DeleteGlobalComponent{ID: def.ID})

	assert.Empty(t, s.EditingGlobalComponentID)
	pr, _ := s.CurrentProject()
	assert.Empty(t, pr.GlobalComponents)
	for i := range pr.Pages {
		tree.Walk(pr.Pages[i].Tree, func(n, _ *node, _ int) bool {
			assert.False(t, n.IsGlobalInstance, n.ID)
			return true
		})
	}
	assert.NotNil(t, tree.Find(pr.Pages[1].Tree, insts[1].ID))
	assert.True(t, validate.Project(pr, p.Registry).Valid)
}

func TestPasteInstanceOfDeletedDefinitionIsDetached(t *testing.T) {
	p, s, def := promoted(t)
	inst := instanceNodes(t, s, def.ID)[1]
	s = reduce(t, p, s, CopyComponent{ID: inst.ID}, DeleteGlobalComponent{ID: def.ID}, PasteComponent{TargetID: domain.RootContainerID})
	pasted := tree.Find(s.ActiveTree(), s.SelectedNodeIDs[0])
	require.NotNil(t, pasted)
	assert.False(t, pasted.IsGlobalInstance)
}

// nested returns promoted's state plus a second definition whose instance sits inside the hero definition.
func nested(t *testing.T) (*Processor, State, *node, *node) {
	t.Helper()
	p, s, hero := promoted(t)
	badge := &node{ID: "badge", Type: "Card", Props: map[string]any{}, Children: []*node{text("bt")}}
	s = reduce(t, p, s, appendTo("", badge), MakeGlobalComponent{ID: "badge", Name: "Badge"})
	pr, _ := s.CurrentProject()
	require.Len(t, pr.GlobalComponents, 2)
	inner := pr.GlobalComponents[1]
	s = reduce(t, p, s,
		SetEditingGlobalComponent{ID: hero.ID},
		InsertGlobalComponentInstance{GlobalComponentID: inner.ID, ParentID: hero.ID, Index: -1},
		SetEditingGlobalComponent{ID: ""},
	)
	pr, _ = s.CurrentProject()
	outer := pr.GlobalComponents[0]
	require.Len(t, outer.Children, 2)
	require.True(t, isInstanceOf(inner.ID)(outer.Children[1]))
	return p, s, outer, inner
}

func TestNestedInstanceFollowsDefinitionUpdates(t *testing.T) {
	p, s, outer, inner := nested(t)
	for _, inst := range instanceNodes(t, s, outer.ID) {
		require.Len(t, inst.Children, 2)
		assert.Equal(t, outer.ID, inst.Children[1].GlobalComponentID)
	}

	edited := inner.DeepClone()
	edited.Props = map[string]any{"elevation": 5}
	s = reduce(t, p, s, UpdateGlobalComponent{Definition: edited})

	pr, _ := s.CurrentProject()
	inDef := pr.GlobalComponents[0].Children[1]
	assert.Equal(t, 5, inDef.Props["elevation"])
	assert.Equal(t, inner.ID, inDef.GlobalComponentID)
	assert.Equal(t, outer.Children[1].ID, inDef.ID)
	for _, inst := range instanceNodes(t, s, outer.ID) {
		assert.Equal(t, 5, inst.Children[1].Props["elevation"])
	}
	res := validate.Project(pr, p.Registry)
	assert.True(t, res.Valid, "%v", res.Errors)
}

func TestDeleteDefinitionDetachesInstancesInOtherDefinitions(t *testing.T) {
	p, s, outer, inner := nested(t)
	s = reduce(t, p, s, DeleteGlobalComponent{ID: inner.ID})

	pr, _ := s.CurrentProject()
	require.Len(t, pr.GlobalComponents, 1)
	tree.Walk(pr.GlobalComponents, func(n, _ *node, _ int) bool {
		assert.NotEqual(t, inner.ID, n.GlobalComponentID, n.ID)
		return true
	})
	assert.NotNil(t, tree.Find(pr.GlobalComponents, outer.Children[1].ID))
	res := validate.Project(pr, p.Registry)
	assert.True(t, res.Valid, "%v", res.Errors)
}

func TestNestingCycleIsRefused(t *testing.T) {
	p, s, outer, inner := nested(t)
	s = reduce(t, p, s, SetEditingGlobalComponent{ID: inner.ID})
	next := reduce(t, p, s, InsertGlobalComponentInstance{GlobalComponentID: outer.ID, Index: -1})
	assert.True(t, tree.Same(s.ActiveTree(), next.ActiveTree()))

	edited := inner.DeepClone()
	edited.Children = append(edited.Children, p.instantiate(outer, ""))
	next = reduce(t, p, s, UpdateGlobalComponent{Definition: edited})
	pr, _ := next.CurrentProject()
	assert.Len(t, pr.GlobalComponents[1].Children, 1)
}

func TestUpdateGlobalRejectsIDsUsedElsewhere(t *testing.T) {
	p, s, def := promoted(t)
	s = reduce(t, p, s, appendTo("", text("plain")))

	edited := def.DeepClone()
	edited.Children = append(edited.Children, text("plain"))
	next := reduce(t, p, s, UpdateGlobalComponent{Definition: edited})

	pr, _ := next.CurrentProject()
	assert.Len(t, pr.GlobalComponents[0].Children, 1)
	for _, inst := range instanceNodes(t, next, def.ID) {
		assert.Len(t, inst.Children, 1)
	}
	res := validate.Project(pr, p.Registry)
	assert.True(t, res.Valid, "%v", res.Errors)
}
