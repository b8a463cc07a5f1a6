/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpuilab/internal/domain"
	"wpuilab/internal/ids"
	"wpuilab/internal/registry"
)

func leaf(id, typ string) *domain.ComponentNode {
	return &domain.ComponentNode{ID: id, Type: typ, Props: map[string]any{}}
}

func box(id, typ string, kids ...*domain.ComponentNode) *domain.ComponentNode {
	n := leaf(id, typ)
	n.Children = kids
	return n
}

// sample:
//
//	root-vstack
//	  a (HStack)
//	    a1 (Text)
//	    a2 (Button)
//	  x (Button)
//	  card (Card)
//	    body (CardBody)
//	      inner (Text)
//	  b (Text)
func sample() []*domain.ComponentNode {
	return []*domain.ComponentNode{
		box(domain.RootContainerID, "VStack",
			box("a", "HStack", leaf("a1", "Text"), leaf("a2", "Button")),
			leaf("x", "Button"),
			box("card", "Card", box("body", "CardBody", leaf("inner", "Text"))),
			leaf("b", "Text"),
		),
	}
}

func childIDs(n *domain.ComponentNode) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c.ID)
	}
	return out
}

func TestFindAndFindParent(t *testing.T) {
	nodes := sample()
	require.NotNil(t, Find(nodes, "inner"))
	assert.Nil(t, Find(nodes, "missing"))
	assert.Equal(t, "body", FindParent(nodes, "inner").ID)
	assert.Equal(t, domain.RootContainerID, FindParent(nodes, "a").ID)
	assert.Nil(t, FindParent(nodes, domain.RootContainerID))
	assert.Nil(t, FindParent(nodes, "missing"))
}

func TestUpdateCopiesOnlyThePath(t *testing.T) {
	nodes := sample()
	out := Update(nodes, "a1", func(n *domain.ComponentNode) *domain.ComponentNode {
		return n.WithProps(map[string]any{"content": "hi"})
	})
	require.False(t, Same(nodes, out))
	assert.Equal(t, "hi", Find(out, "a1").Props["content"])
	assert.Nil(t, Find(nodes, "a1").Props["content"], "input is untouched")
	assert.Same(t, Find(nodes, "card"), Find(out, "card"), "unaffected subtree is shared")
	assert.Same(t, Find(nodes, "a2"), Find(out, "a2"))
	assert.NotSame(t, Find(nodes, "a"), Find(out, "a"))
}

func TestUpdateMissingReturnsInput(t *testing.T) {
	nodes := sample()
	out := Update(nodes, "missing", func(n *domain.ComponentNode) *domain.ComponentNode { return n.ShallowCopy() })
	assert.True(t, Same(nodes, out))
	assert.True(t, Same(nodes, UpdateMany(nodes, nil, nil)))
}

func TestUpdateMany(t *testing.T) {
	nodes := sample()
	out := UpdateMany(nodes, []string{"a1", "inner", "missing"}, func(n *domain.ComponentNode) *domain.ComponentNode {
		return n.WithProps(map[string]any{"tag": true})
	})
	assert.Equal(t, true, Find(out, "a1").Props["tag"])
	assert.Equal(t, true, Find(out, "inner").Props["tag"])
	assert.Nil(t, Find(out, "b").Props["tag"])
}

func TestInsert(t *testing.T) {
	nodes := sample()
	out := Insert(nodes, leaf("n", "Text"), "", -1)
	assert.Equal(t, []string{"a", "x", "card", "b", "n"}, childIDs(out[0]))

	out = Insert(nodes, leaf("n", "Text"), "a", 0)
	assert.Equal(t, []string{"n", "a1", "a2"}, childIDs(Find(out, "a")))
	assert.Equal(t, []string{"a1", "a2"}, childIDs(Find(nodes, "a")), "input is untouched")

	out = Insert(nodes, leaf("n", "Text"), "a", 99)
	assert.Equal(t, []string{"a1", "a2", "n"}, childIDs(Find(out, "a")))

	assert.True(t, Same(nodes, Insert(nodes, leaf("n", "Text"), "missing", 0)))
}

func TestInsertWithoutRootAddsTopLevel(t *testing.T) {
	out := Insert(nil, leaf("n", "Text"), "", -1)
	require.Len(t, out, 1)
	assert.Equal(t, "n", out[0].ID)
}

func TestRemove(t *testing.T) {
	nodes := sample()
	out := Remove(nodes, "card")
	assert.Equal(t, []string{"a", "x", "b"}, childIDs(out[0]))
	assert.Nil(t, Find(out, "inner"), "subtree is removed")
	assert.NotNil(t, Find(nodes, "inner"))
	assert.True(t, Same(nodes, Remove(nodes, "missing")))
}

func TestRootProtection(t *testing.T) {
	nodes := sample()
	assert.True(t, Same(nodes, Remove(nodes, domain.RootContainerID)))

	out, id := Duplicate(nodes, domain.RootContainerID, ids.NewSequence("d"))
	assert.True(t, Same(nodes, out))
	assert.Empty(t, id)

	assert.True(t, Same(nodes, Move(nodes, domain.RootContainerID, Down)))

	out, err := Reorder(nodes, domain.RootContainerID, "a", Inside, registry.Default())
	assert.ErrorIs(t, err, ErrRootProtected)
	assert.True(t, Same(nodes, out))
}

func TestDuplicatePlacement(t *testing.T) {
	nodes := []*domain.ComponentNode{box(domain.RootContainerID, "VStack", leaf("A", "Text"), box("X", "HStack", leaf("X1", "Text")), leaf("B", "Text"))}
	out, newID := Duplicate(nodes, "X", ids.NewSequence("n"))
	require.NotEmpty(t, newID)
	assert.Equal(t, []string{"A", "X", newID, "B"}, childIDs(out[0]))

	clone := Find(out, newID)
	require.Len(t, clone.Children, 1)
	assert.NotEqual(t, "X1", clone.Children[0].ID, "descendants get fresh ids")
	assert.Equal(t, clone.Type, "HStack")
}

func TestMove(t *testing.T) {
	nodes := sample()
	out := Move(nodes, "x", Up)
	assert.Equal(t, []string{"x", "a", "card", "b"}, childIDs(out[0]))
	out = Move(nodes, "x", Down)
	assert.Equal(t, []string{"a", "card", "x", "b"}, childIDs(out[0]))

	assert.True(t, Same(nodes, Move(nodes, "a", Up)), "first sibling cannot move up")
	assert.True(t, Same(nodes, Move(nodes, "b", Down)), "last sibling cannot move down")
}

func TestReorder(t *testing.T) {
	reg := registry.Default()
	positions := []Position{Before, After, Inside}

	t.Run("self is a no-op", func(t *testing.T) {
		nodes := sample()
		for _, p := range positions {
			out, err := Reorder(nodes, "x", "x", p, reg)
			require.NoError(t, err)
			assert.True(t, Same(nodes, out))
		}
	})

	t.Run("before and after among siblings", func(t *testing.T) {
		nodes := sample()
		out, err := Reorder(nodes, "b", "a", Before, reg)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "x", "card"}, childIDs(out[0]))

		out, err = Reorder(nodes, "a", "card", After, reg)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "card", "a", "b"}, childIDs(out[0]))
	})

	t.Run("before across parents is rejected", func(t *testing.T) {
		nodes := sample()
		out, err := Reorder(nodes, "a1", "b", Before, reg)
		assert.ErrorIs(t, err, ErrNotSiblings)
		assert.True(t, Same(nodes, out))
	})

	t.Run("inside reparents", func(t *testing.T) {
		nodes := sample()
		out, err := Reorder(nodes, "b", "a", Inside, reg)
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2", "b"}, childIDs(Find(out, "a")))
		assert.Equal(t, []string{"a", "x", "card"}, childIDs(out[0]))
	})

	t.Run("inside a leaf is rejected", func(t *testing.T) {
		nodes := sample()
		out, err := Reorder(nodes, "b", "x", Inside, reg)
		assert.ErrorIs(t, err, ErrNotContainer)
		assert.True(t, Same(nodes, out))
	})

	t.Run("inside own subtree is rejected", func(t *testing.T) {
		nodes := sample()
		out, err := Reorder(nodes, "card", "body", Inside, reg)
		assert.ErrorIs(t, err, ErrCycle)
		assert.True(t, Same(nodes, out))
	})

	t.Run("unknown ids", func(t *testing.T) {
		nodes := sample()
		_, err := Reorder(nodes, "zzz", "a", Before, reg)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFlatten(t *testing.T) {
	var got []string
	for _, n := range Flatten(sample()) {
		got = append(got, n.ID)
	}
	assert.Equal(t, []string{domain.RootContainerID, "a", "a1", "a2", "x", "card", "body", "inner", "b"}, got)
	assert.Equal(t, got, CollectIDs(sample()))
}

func TestFindTopMostContainer(t *testing.T) {
	nodes := sample()
	reg := registry.Default()
	assert.Equal(t, "card", FindTopMostContainer(nodes, "inner", reg).ID)
	assert.Equal(t, "a", FindTopMostContainer(nodes, "a2", reg).ID)
	assert.Equal(t, "x", FindTopMostContainer(nodes, "x", reg).ID)
	assert.Equal(t, domain.RootContainerID, FindTopMostContainer(nodes, domain.RootContainerID, reg).ID)
	assert.Nil(t, FindTopMostContainer(nodes, "missing", reg))
}

func TestFindPath(t *testing.T) {
	nodes := sample()
	var got []string
	for _, n := range FindPath(nodes, "card", "inner") {
		got = append(got, n.ID)
	}
	assert.Equal(t, []string{"card", "body", "inner"}, got)
	assert.Len(t, FindPath(nodes, "card", "card"), 1)
	assert.Empty(t, FindPath(nodes, "a", "inner"))
	assert.NotNil(t, FindPath(nodes, "missing", "inner"))
}

func TestIndexAndParentID(t *testing.T) {
	nodes := sample()
	assert.Equal(t, 2, IndexInParent(nodes, "card"))
	assert.Equal(t, 0, IndexInParent(nodes, domain.RootContainerID))
	assert.Equal(t, -1, IndexInParent(nodes, "missing"))
	p, ok := ParentID(nodes, "a1")
	assert.True(t, ok)
	assert.Equal(t, "a", p)
	p, ok = ParentID(nodes, domain.RootContainerID)
	assert.True(t, ok)
	assert.Empty(t, p)
}

func TestCloneMappedDoesNotAliasProps(t *testing.T) {
	orig := box("p", "VStack", &domain.ComponentNode{ID: "c", Type: "Text", Props: map[string]any{"style": map[string]any{"bold": true}}})
	clone := CloneWithFreshIDs(orig, ids.NewSequence("z"))
	clone.Children[0].Props["style"].(map[string]any)["bold"] = false
	assert.Equal(t, true, orig.Children[0].Props["style"].(map[string]any)["bold"])
	assert.Equal(t, "z2", clone.ID, "ids are assigned after the children")
}
