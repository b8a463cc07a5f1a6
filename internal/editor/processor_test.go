/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpuilab/internal/domain"
	"wpuilab/internal/ids"
	"wpuilab/internal/tree"
	"wpuilab/internal/validate"
)

func newTestProcessor() *Processor {
	p := New(nil, ids.NewSequence("id-"))
	p.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	p.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	return p
}

func fixture(t *testing.T) (*Processor, State) {
	t.Helper()
	p := newTestProcessor()
	return p, NewState(p.NewWorkspace("Demo"))
}

func text(id string) *node {
	return &node{ID: id, Type: "Text", Props: map[string]any{"content": id}}
}

func reduce(t *testing.T, p *Processor, s State, actions ...Action) State {
	t.Helper()
	for _, a := range actions {
		var err error
		s, err = p.Reduce(s, a)
		require.NoError(t, err, "action %s", a.Kind())
	}
	return s
}

func appendTo(parent string, n *node) InsertComponent {
	return InsertComponent{Node: n, ParentID: parent, Index: -1}
}

func root(t *testing.T, s State) *node {
	t.Helper()
	r := tree.Find(s.ActiveTree(), domain.RootContainerID)
	require.NotNil(t, r)
	return r
}

func childIDs(n *node) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c.ID)
	}
	return out
}

func TestNewWorkspaceHasRootContainer(t *testing.T) {
	_, s := fixture(t)
	require.Len(t, s.Projects, 1)
	pr, ok := s.CurrentProject()
	require.True(t, ok)
	require.Len(t, pr.Pages, 1)
	assert.Equal(t, "Home", pr.Pages[0].Name)
	assert.Equal(t, "VStack", root(t, s).Type)
	assert.Equal(t, []string{domain.RootContainerID}, s.SelectedNodeIDs)
	assert.False(t, s.IsDirty)
	assert.False(t, s.CanUndo())
}

func TestInsertUndoRedo(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")))
	assert.Equal(t, []string{"a"}, childIDs(root(t, s)))
	assert.Equal(t, []string{"a"}, s.SelectedNodeIDs)
	assert.True(t, s.IsDirty)
	require.True(t, s.CanUndo())

	s = reduce(t, p, s, Undo{})
	assert.Empty(t, root(t, s).Children)
	assert.True(t, s.CanRedo())
	assert.Equal(t, []string{domain.RootContainerID}, s.SelectedNodeIDs)

	s = reduce(t, p, s, Redo{})
	assert.Equal(t, []string{"a"}, childIDs(root(t, s)))
	assert.False(t, s.CanRedo())
}

func TestUndoOnEmptyHistoryIsNoOp(t *testing.T) {
	p, s := fixture(t)
	next := reduce(t, p, s, Undo{}, Redo{})
	assert.True(t, tree.Same(s.ActiveTree(), next.ActiveTree()))
	assert.False(t, next.IsDirty)
}

func TestNoOpLeavesStateUntouched(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")))
	before := s.History
	next := reduce(t, p, s,
		RemoveComponent{ID: "missing"},
		RemoveComponent{ID: domain.RootContainerID},
		UpdateComponentProps{ID: "a"},
		MoveComponent{ID: "a", Direction: tree.Up},
		InsertComponent{Node: text("b"), ParentID: "a", Index: -1},
	)
	assert.True(t, tree.Same(s.ActiveTree(), next.ActiveTree()))
	assert.Len(t, next.History.Past, len(before.Past))
}

func TestNewCommitClearsRedo(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), appendTo("", text("b")), Undo{})
	require.True(t, s.CanRedo())
	s = reduce(t, p, s, appendTo("", text("c")))
	assert.False(t, s.CanRedo())
	assert.Equal(t, []string{"a", "c"}, childIDs(root(t, s)))
}

func TestOlderStatesStayIntact(t *testing.T) {
	p, s0 := fixture(t)
	s1 := reduce(t, p, s0, appendTo("", text("a")))
	s2 := reduce(t, p, s1, UpdateComponentProps{ID: "a", Props: map[string]any{"content": "changed"}})
	assert.Equal(t, "a", tree.Find(s1.ActiveTree(), "a").Props["content"])
	assert.Equal(t, "changed", tree.Find(s2.ActiveTree(), "a").Props["content"])
	assert.Empty(t, root(t, s0).Children)
}

func TestInsertReassignsCollidingIDs(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), appendTo("", text("a")))
	kids := childIDs(root(t, s))
	require.Len(t, kids, 2)
	assert.Equal(t, "a", kids[0])
	assert.NotEqual(t, "a", kids[1])
	assert.Equal(t, kids[1], s.SelectedNodeIDs[0])
}

func TestInsertDoesNotAliasCallerNode(t *testing.T) {
	p, s := fixture(t)
	n := text("a")
	s = reduce(t, p, s, appendTo("", n))
	n.Props["content"] = "mutated"
	assert.Equal(t, "a", tree.Find(s.ActiveTree(), "a").Props["content"])
}

func TestUpdatePropsLiftsLayoutKeys(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")))
	s = reduce(t, p, s, UpdateComponentProps{ID: "a", Props: map[string]any{
		"width": "50%", "gridColumnSpan": 4.0, "content": nil, "color": "red",
	}})
	a := tree.Find(s.ActiveTree(), "a")
	assert.Equal(t, "50%", a.Width)
	assert.Equal(t, 4, a.GridColumnSpan)
	assert.NotContains(t, a.Props, "content")
	assert.NotContains(t, a.Props, "width")
	assert.Equal(t, "red", a.Props["color"])
}

func TestUpdateMultipleProps(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), appendTo("", text("b")))
	s = reduce(t, p, s, UpdateMultipleComponentProps{IDs: []string{"a", "b", "ghost"}, Props: map[string]any{"size": "lg"}})
	assert.Equal(t, "lg", tree.Find(s.ActiveTree(), "a").Props["size"])
	assert.Equal(t, "lg", tree.Find(s.ActiveTree(), "b").Props["size"])
}

func TestTransientUpdateSkipsHistoryButDirties(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), MarkSaved{})
	past := len(s.History.Past)
	s = reduce(t, p, s, UpdateComponentPropsTransient{ID: "a", Props: map[string]any{"x": 10}})
	assert.Len(t, s.History.Past, past)
	assert.True(t, s.IsDirty)
	assert.Equal(t, 10, tree.Find(s.ActiveTree(), "a").Props["x"])
}

func TestRenameDuplicateMove(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), appendTo("", text("b")))
	s = reduce(t, p, s, UpdateComponentName{ID: "a", Name: "Title"})
	assert.Equal(t, "Title", tree.Find(s.ActiveTree(), "a").Name)

	s = reduce(t, p, s, DuplicateComponent{ID: "a"})
	kids := childIDs(root(t, s))
	require.Len(t, kids, 3)
	assert.Equal(t, "a", kids[0])
	assert.Equal(t, "b", kids[2])
	assert.Equal(t, kids[1], s.SelectedNodeIDs[0])

	s = reduce(t, p, s, MoveComponent{ID: "b", Direction: tree.Up})
	assert.Equal(t, []string{"a", "b", kids[1]}, childIDs(root(t, s)))
}

func TestReorderInside(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s,
		appendTo("", &node{ID: "row", Type: "HStack", Props: map[string]any{}}),
		appendTo("", text("a")),
	)
	s = reduce(t, p, s, ReorderComponent{ActiveID: "a", OverID: "row", Position: tree.Inside})
	assert.Equal(t, []string{"row"}, childIDs(root(t, s)))
	assert.Equal(t, []string{"a"}, childIDs(tree.Find(s.ActiveTree(), "row")))

	// text cannot take children: refused and logged
	next := reduce(t, p, s, ReorderComponent{ActiveID: "row", OverID: "a", Position: tree.Inside})
	assert.True(t, tree.Same(s.ActiveTree(), next.ActiveTree()))
}

func TestGridInsertUsesSmartSpan(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", &node{ID: "g", Type: GridType, Props: map[string]any{"columns": 12}}))
	s = reduce(t, p, s, appendTo("g", text("a")))
	assert.Equal(t, 12, tree.Find(s.ActiveTree(), "a").GridColumnSpan)

	s = reduce(t, p, s, appendTo("g", text("b")))
	assert.Equal(t, 6, tree.Find(s.ActiveTree(), "a").GridColumnSpan)
	assert.Equal(t, 6, tree.Find(s.ActiveTree(), "b").GridColumnSpan)

	withSpan := text("c")
	withSpan.GridColumnSpan = 2
	s = reduce(t, p, s, appendTo("g", withSpan))
	assert.Equal(t, 2, tree.Find(s.ActiveTree(), "c").GridColumnSpan)
	assert.Equal(t, 6, tree.Find(s.ActiveTree(), "a").GridColumnSpan)
}

func TestSelectionModes(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), appendTo("", text("b")), appendTo("", text("c")))

	s = reduce(t, p, s, ToggleNodeSelection{ID: "a"})
	assert.Equal(t, []string{"a"}, s.SelectedNodeIDs)

	s = reduce(t, p, s, ToggleNodeSelection{ID: "c", Range: true})
	assert.Equal(t, []string{"a", "b", "c"}, s.SelectedNodeIDs)

	s = reduce(t, p, s, ToggleNodeSelection{ID: "b", Multi: true})
	assert.Equal(t, []string{"a", "c"}, s.SelectedNodeIDs)

	s = reduce(t, p, s, ToggleNodeSelection{ID: "a", Multi: true}, ToggleNodeSelection{ID: "c", Multi: true})
	assert.Equal(t, []string{domain.RootContainerID}, s.SelectedNodeIDs)

	s = reduce(t, p, s, SetSelectedNodes{IDs: []string{"b", "ghost", "b"}})
	assert.Equal(t, []string{"b"}, s.SelectedNodeIDs)
}

func TestSelectionIsNotTrackedNorDirty(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), MarkSaved{})
	past := len(s.History.Past)
	s = reduce(t, p, s, ToggleNodeSelection{ID: "a"}, ToggleGridLines{})
	assert.Len(t, s.History.Past, past)
	assert.False(t, s.IsDirty)
	assert.True(t, s.GridLinesVisible)
}

func TestRemovePrunesSelection(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), appendTo("", text("b")))
	s = reduce(t, p, s, SetSelectedNodes{IDs: []string{"a", "b"}})
	s = reduce(t, p, s, RemoveComponents{IDs: []string{"a", domain.RootContainerID}})
	assert.Equal(t, []string{"b"}, childIDs(root(t, s)))
	assert.Equal(t, []string{"b"}, s.SelectedNodeIDs)
}

func TestCopyPaste(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s,
		appendTo("", text("a")),
		appendTo("", &node{ID: "card", Type: "Card", Props: map[string]any{}, Children: []*node{}}),
		CopyComponent{ID: "a"},
	)
	require.NotNil(t, s.Clipboard)

	t.Run("card receives a sibling", func(t *testing.T) {
		next := reduce(t, p, s, PasteComponent{TargetID: "card"})
		kids := childIDs(root(t, next))
		require.Len(t, kids, 3)
		assert.Equal(t, []string{"a", "card"}, kids[:2])
		assert.Equal(t, kids[2], next.SelectedNodeIDs[0])
		assert.Empty(t, tree.Find(next.ActiveTree(), "card").Children)
	})
	t.Run("leaf target pastes after it", func(t *testing.T) {
		next := reduce(t, p, s, PasteComponent{TargetID: "a"})
		kids := childIDs(root(t, next))
		require.Len(t, kids, 3)
		assert.Equal(t, "a", kids[0])
		assert.Equal(t, "card", kids[2])
	})
	t.Run("container target pastes inside", func(t *testing.T) {
		next := reduce(t, p, s, PasteComponent{TargetID: domain.RootContainerID})
		kids := childIDs(root(t, next))
		require.Len(t, kids, 3)
		assert.NotEqual(t, "a", kids[2])
	})
	t.Run("clipboard survives repeated pastes", func(t *testing.T) {
		next := reduce(t, p, s, PasteComponent{TargetID: domain.RootContainerID}, PasteComponent{TargetID: domain.RootContainerID})
		kids := childIDs(root(t, next))
		require.Len(t, kids, 4)
		assert.NotEqual(t, kids[2], kids[3])
	})
}

func TestCopyRootIsRefused(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, CopyComponent{ID: domain.RootContainerID})
	assert.Nil(t, s.Clipboard)
}

func TestCutPaste(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), appendTo("", text("b")), CutComponent{ID: "a"})
	assert.Equal(t, []string{"b"}, childIDs(root(t, s)))
	assert.Equal(t, "a", s.CutNodeID)

	s = reduce(t, p, s, PasteComponent{TargetID: "b"})
	kids := childIDs(root(t, s))
	require.Len(t, kids, 2)
	assert.Equal(t, "b", kids[0])
	assert.Empty(t, s.CutNodeID)
	assert.Equal(t, "a", tree.Find(s.ActiveTree(), kids[1]).Props["content"])
}

func TestGroupAndUngroup(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), appendTo("", text("b")), appendTo("", text("c")))
	s = reduce(t, p, s, GroupComponents{IDs: []string{"b", "a"}})

	kids := root(t, s).Children
	require.Len(t, kids, 2)
	wrapper := kids[0]
	assert.Equal(t, "VStack", wrapper.Type)
	assert.Equal(t, []string{"a", "b"}, childIDs(wrapper))
	assert.Equal(t, "c", kids[1].ID)
	assert.Equal(t, []string{wrapper.ID}, s.SelectedNodeIDs)

	s = reduce(t, p, s, UngroupComponents{ID: wrapper.ID})
	assert.Equal(t, []string{"a", "b", "c"}, childIDs(root(t, s)))
	assert.Equal(t, []string{"a", "b"}, s.SelectedNodeIDs)
}

func TestGroupSingleUsesHorizontalStack(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", text("a")), ToggleNodeSelection{ID: "a"}, GroupComponents{})
	assert.Equal(t, "HStack", root(t, s).Children[0].Type)
}

func TestGroupRequiresSharedParent(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s,
		appendTo("", &node{ID: "row", Type: "HStack", Props: map[string]any{}}),
		appendTo("row", text("a")),
		appendTo("", text("b")),
	)
	next := reduce(t, p, s, GroupComponents{IDs: []string{"a", "b"}})
	assert.True(t, tree.Same(s.ActiveTree(), next.ActiveTree()))
}

func TestGroupInsideGridMovesPlacement(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s,
		appendTo("", &node{ID: "g", Type: GridType, Props: map[string]any{"columns": 12}}),
		appendTo("g", text("a")),
		appendTo("g", text("b")),
	)
	s = reduce(t, p, s, GroupComponents{IDs: []string{"a"}})
	g := tree.Find(s.ActiveTree(), "g")
	wrapper := g.Children[0]
	assert.Equal(t, 6, wrapper.GridColumnSpan)
	assert.Equal(t, 0, wrapper.Children[0].GridColumnSpan)

	s = reduce(t, p, s, UngroupComponents{ID: wrapper.ID})
	assert.Equal(t, 6, tree.Find(s.ActiveTree(), "a").GridColumnSpan)
	assert.Equal(t, []string{"a", "b"}, childIDs(tree.Find(s.ActiveTree(), "g")))
}

func TestUngroupRefusesNonStacks(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", &node{ID: "card", Type: "Card", Props: map[string]any{}, Children: []*node{text("a")}}))
	next := reduce(t, p, s, UngroupComponents{ID: "card"})
	assert.True(t, tree.Same(s.ActiveTree(), next.ActiveTree()))
}

func TestSwapLayoutType(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", &node{ID: "row", Type: "HStack",
		Props: map[string]any{"alignment": "top", "justify": "right", "wrap": true, "spacing": 3}}))
	s = reduce(t, p, s, appendTo("", &node{ID: "col", Type: "VStack", Props: map[string]any{"justify": "space-between"}}))
	s = reduce(t, p, s, SwapLayoutType{ID: "row"}, SwapLayoutType{ID: "col"})
	assert.Equal(t, "space-between", tree.Find(s.ActiveTree(), "col").Props["justify"])
	row := tree.Find(s.ActiveTree(), "row")
	assert.Equal(t, "VStack", row.Type)
	assert.Equal(t, "left", row.Props["alignment"])
	assert.Equal(t, "bottom", row.Props["justify"])
	assert.Equal(t, 3, row.Props["spacing"])
	assert.NotContains(t, row.Props, "wrap")

	s = reduce(t, p, s, SwapLayoutType{ID: "row"})
	row = tree.Find(s.ActiveTree(), "row")
	assert.Equal(t, "HStack", row.Type)
	assert.Equal(t, "top", row.Props["alignment"])
	assert.Equal(t, "right", row.Props["justify"])
}

func TestSetTreeValidation(t *testing.T) {
	p, s := fixture(t)

	_, err := p.Reduce(s, SetTree{Tree: []*node{{ID: "", Type: "Text", Props: map[string]any{}}}})
	var verr *validate.Error
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Issues)

	_, err = p.Reduce(s, SetTree{Tree: []*node{text("x")}})
	require.True(t, errors.As(err, &verr))

	_, err = p.Reduce(s, SetTree{Tree: []*node{{ID: "b", Type: "Button", Props: map[string]any{}, Children: []*node{text("t")}}}})
	require.Error(t, err)

	good := domain.NewRootContainer(nil)
	good.Children = []*node{text("z")}
	next, err := p.Reduce(s, SetTree{Tree: []*node{good}})
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, childIDs(root(t, next)))
	assert.True(t, next.CanUndo())
}

func TestHistoryLimit(t *testing.T) {
	p, s := fixture(t)
	p.History.Limit = 3
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		s = reduce(t, p, s, appendTo("", text(id)))
	}
	assert.Len(t, s.History.Past, 3)
	s = reduce(t, p, s, Undo{}, Undo{}, Undo{}, Undo{})
	assert.Equal(t, []string{"a", "b"}, childIDs(root(t, s)))
}

func TestDirtyFlag(t *testing.T) {
	p, s := fixture(t)
	assert.False(t, s.IsDirty)
	s = reduce(t, p, s, ToggleGridLines{})
	assert.False(t, s.IsDirty)
	s = reduce(t, p, s, appendTo("", text("a")))
	assert.True(t, s.IsDirty)
	s = reduce(t, p, s, MarkSaved{})
	assert.False(t, s.IsDirty)
	s = reduce(t, p, s, Undo{})
	assert.True(t, s.IsDirty)
}

func TestInteractions(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s, appendTo("", &node{ID: "btn", Type: "Button", Props: map[string]any{}}))
	past := len(s.History.Past)

	s = reduce(t, p, s, AddInteraction{NodeID: "btn", Interaction: domain.Interaction{Trigger: "onClick", Action: "navigate"}})
	list := tree.Find(s.ActiveTree(), "btn").Interactions
	require.Len(t, list, 1)
	require.NotEmpty(t, list[0].ID)
	assert.Len(t, s.History.Past, past)

	upd := list[0]
	upd.TargetID = "page-2"
	s = reduce(t, p, s, UpdateInteraction{NodeID: "btn", Interaction: upd})
	assert.Equal(t, "page-2", tree.Find(s.ActiveTree(), "btn").Interactions[0].TargetID)

	s = reduce(t, p, s, AddInteraction{NodeID: "btn", Interaction: domain.Interaction{Trigger: "onClick"}})
	assert.Len(t, tree.Find(s.ActiveTree(), "btn").Interactions, 1)

	s = reduce(t, p, s, RemoveInteraction{NodeID: "btn", InteractionID: upd.ID})
	assert.Empty(t, tree.Find(s.ActiveTree(), "btn").Interactions)
}

func TestReduceNilAction(t *testing.T) {
	p, s := fixture(t)
	_, err := p.Reduce(s, nil)
	assert.Error(t, err)
}

func TestUpdateInteractionNeedsTriggerAndAction(t *testing.T) {
	p, s := fixture(t)
	s = reduce(t, p, s,
		appendTo("", &node{ID: "btn", Type: "Button", Props: map[string]any{}}),
		AddInteraction{NodeID: "btn", Interaction: domain.Interaction{ID: "i1", Trigger: "onClick", Action: "navigate"}},
	)
	for _, in := range []domain.Interaction{{ID: "i1"}, {ID: "i1", Trigger: "onClick"}, {ID: "i1", Action: "navigate"}} {
		next := reduce(t, p, s, UpdateInteraction{NodeID: "btn", Interaction: in})
		assert.Equal(t, "navigate", tree.Find(next.ActiveTree(), "btn").Interactions[0].Action)
		assert.Equal(t, "onClick", tree.Find(next.ActiveTree(), "btn").Interactions[0].Trigger)
	}
	_, err := p.Reduce(s, SetProjects{Projects: s.Projects, CurrentProjectID: s.CurrentProjectID})
	assert.NoError(t, err)
}

// step builds the next action from the state reached so far.
type step func(State) Action

func fixed(a Action) step { return func(State) Action { return a } }

func currentPageID(s State) string {
	pr, _ := s.CurrentProject()
	return pr.CurrentPageID
}

func definitionID(s State) string {
	pr, _ := s.CurrentProject()
	return pr.GlobalComponents[0].ID
}

func parentOf(id string) step {
	return func(s State) Action {
		return UngroupComponents{ID: tree.FindParent(s.ActiveTree(), id).ID}
	}
}

var editSequences = []struct {
	name  string
	steps []step
}{
	{"tree edits", []step{
		fixed(appendTo("", text("a"))),
		fixed(appendTo("", text("b"))),
		fixed(UpdateComponentProps{ID: "a", Props: map[string]any{"content": "A"}}),
		fixed(DuplicateComponent{ID: "a"}),
		fixed(MoveComponent{ID: "b", Direction: tree.Up}),
		fixed(UpdateComponentName{ID: "b", Name: "Bee"}),
		fixed(RemoveComponent{ID: "a"}),
	}},
	{"grouping and clipboard", []step{
		fixed(appendTo("", text("a"))),
		fixed(appendTo("", text("b"))),
		fixed(GroupComponents{IDs: []string{"a", "b"}}),
		fixed(CutComponent{ID: "b"}),
		fixed(PasteComponent{TargetID: domain.RootContainerID}),
		fixed(PasteComponent{TargetID: domain.RootContainerID}),
		parentOf("a"),
	}},
	{"pages", []step{
		fixed(appendTo("", text("a"))),
		fixed(AddPage{Name: "About"}),
		func(s State) Action { return RenamePage{ID: currentPageID(s), Name: "About us"} },
		func(s State) Action { return DuplicatePage{ID: currentPageID(s)} },
		fixed(appendTo("", text("c"))),
		func(s State) Action { return DeletePage{ID: currentPageID(s)} },
	}},
	{"global components", []step{
		fixed(appendTo("", heroCard())),
		fixed(MakeGlobalComponent{ID: "card", Name: "Hero"}),
		fixed(AddPage{Name: "About"}),
		func(s State) Action { return InsertGlobalComponentInstance{GlobalComponentID: definitionID(s), Index: -1} },
		func(s State) Action {
			pr, _ := s.CurrentProject()
			def := pr.GlobalComponents[0].DeepClone()
			def.Props = map[string]any{"elevation": 2}
			return UpdateGlobalComponent{Definition: def}
		},
		func(s State) Action {
			pr, _ := s.CurrentProject()
			for _, ref := range Instances(pr)[definitionID(s)] {
				if ref.PageID == pr.CurrentPageID {
					return DetachGlobalComponentInstance{ID: ref.NodeID}
				}
			}
			return nil
		},
		func(s State) Action { return DeleteGlobalComponent{ID: definitionID(s)} },
	}},
}

func TestUndoRedoRoundTrip(t *testing.T) {
	for _, tc := range editSequences {
		t.Run(tc.name, func(t *testing.T) {
			p, s := fixture(t)
			initial := s.Workspace()
			for _, st := range tc.steps {
				s = reduce(t, p, s, st(s))
			}
			require.Len(t, s.History.Past, len(tc.steps), "every step is one checkpoint")
			final := s.Workspace()

			for range tc.steps {
				s = reduce(t, p, s, Undo{})
			}
			assert.Equal(t, initial, s.Workspace())
			assert.False(t, s.CanUndo())

			for range tc.steps {
				s = reduce(t, p, s, Redo{})
			}
			assert.Equal(t, final, s.Workspace())
			assert.False(t, s.CanRedo())
		})
	}
}

func TestIDsStayUniqueAfterCompositeEdits(t *testing.T) {
	for _, tc := range editSequences {
		t.Run(tc.name, func(t *testing.T) {
			p, s := fixture(t)
			for _, st := range tc.steps {
				s = reduce(t, p, s, st(s))
				assertUniqueIDs(t, p, s)
			}
			s = reduce(t, p, s, DuplicatePage{ID: currentPageID(s)})
			assertUniqueIDs(t, p, s)
		})
	}
}

func assertUniqueIDs(t *testing.T, p *Processor, s State) {
	t.Helper()
	for i := range s.Projects {
		pr := &s.Projects[i]
		seen := map[string]bool{}
		check := func(n, _ *node, _ int) bool {
			if n.ID != domain.RootContainerID {
				assert.False(t, seen[n.ID], "duplicate id %q", n.ID)
				seen[n.ID] = true
			}
			return true
		}
		for j := range pr.Pages {
			tree.Walk(pr.Pages[j].Tree, check)
		}
		tree.Walk(pr.GlobalComponents, check)
		res := validate.Project(pr, p.Registry)
		assert.True(t, res.Valid, "%v", res.Errors)
	}
}
