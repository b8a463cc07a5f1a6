/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"wpuilab/internal/domain"
	"wpuilab/internal/tree"
)

// Kind is the wire name of an action.
type Kind string

// Action is one variant of the editor's command set.
type Action interface {
	Kind() Kind
}

const (
	KindInsertComponent               Kind = "INSERT_COMPONENT"
	KindRemoveComponent               Kind = "REMOVE_COMPONENT"
	KindRemoveComponents              Kind = "REMOVE_COMPONENTS"
	KindUpdateComponentProps          Kind = "UPDATE_COMPONENT_PROPS"
	KindUpdateMultipleComponentProps  Kind = "UPDATE_MULTIPLE_COMPONENT_PROPS"
	KindUpdateComponentPropsTransient Kind = "UPDATE_COMPONENT_PROPS_TRANSIENT"
	KindUpdateComponentName           Kind = "UPDATE_COMPONENT_NAME"
	KindDuplicateComponent            Kind = "DUPLICATE_COMPONENT"
	KindMoveComponent                 Kind = "MOVE_COMPONENT"
	KindReorderComponent              Kind = "REORDER_COMPONENT"
	KindSetTree                       Kind = "SET_TREE"
	KindSwapLayoutType                Kind = "SWAP_LAYOUT_TYPE"
	KindGroupComponents               Kind = "GROUP_COMPONENTS"
	KindUngroupComponents             Kind = "UNGROUP_COMPONENTS"

	KindToggleNodeSelection Kind = "TOGGLE_NODE_SELECTION"
	KindSetSelectedNodes    Kind = "SET_SELECTED_NODES"

	KindCopyComponent  Kind = "COPY_COMPONENT"
	KindCutComponent   Kind = "CUT_COMPONENT"
	KindPasteComponent Kind = "PASTE_COMPONENT"

	KindAddPage               Kind = "ADD_PAGE"
	KindDeletePage            Kind = "DELETE_PAGE"
	KindRenamePage            Kind = "RENAME_PAGE"
	KindDuplicatePage         Kind = "DUPLICATE_PAGE"
	KindSetCurrentPage        Kind = "SET_CURRENT_PAGE"
	KindUpdatePageTheme       Kind = "UPDATE_PAGE_THEME"
	KindSetPageCanvasPosition Kind = "SET_PAGE_CANVAS_POSITION"
	KindSetPages              Kind = "SET_PAGES"

	KindCreateProject       Kind = "CREATE_PROJECT"
	KindDeleteProject       Kind = "DELETE_PROJECT"
	KindRenameProject       Kind = "RENAME_PROJECT"
	KindDuplicateProject    Kind = "DUPLICATE_PROJECT"
	KindSetCurrentProject   Kind = "SET_CURRENT_PROJECT"
	KindUpdateProjectTheme  Kind = "UPDATE_PROJECT_THEME"
	KindUpdateProjectLayout Kind = "UPDATE_PROJECT_LAYOUT"
	KindSetProjects         Kind = "SET_PROJECTS"

	KindAddInteraction    Kind = "ADD_INTERACTION"
	KindUpdateInteraction Kind = "UPDATE_INTERACTION"
	KindRemoveInteraction Kind = "REMOVE_INTERACTION"

	KindMakeGlobalComponent           Kind = "MAKE_GLOBAL_COMPONENT"
	KindInsertGlobalComponentInstance Kind = "INSERT_GLOBAL_COMPONENT_INSTANCE"
	KindUpdateGlobalComponent         Kind = "UPDATE_GLOBAL_COMPONENT"
	KindSetEditingGlobalComponent     Kind = "SET_EDITING_GLOBAL_COMPONENT"
	KindDetachGlobalComponentInstance Kind = "DETACH_GLOBAL_COMPONENT_INSTANCE"
	KindDeleteGlobalComponent         Kind = "DELETE_GLOBAL_COMPONENT"

	KindToggleGridLines Kind = "TOGGLE_GRID_LINES"
	KindUndo            Kind = "UNDO"
	KindRedo            Kind = "REDO"
	KindMarkSaved       Kind = "MARK_SAVED"
)

// tracked is the history allow-list: committing one of these pushes a checkpoint.
var tracked = map[Kind]bool{
	KindInsertComponent:               true,
	KindRemoveComponent:               true,
	KindRemoveComponents:              true,
	KindUpdateComponentProps:          true,
	KindUpdateMultipleComponentProps:  true,
	KindUpdateComponentName:           true,
	KindDuplicateComponent:            true,
	KindMoveComponent:                 true,
	KindReorderComponent:              true,
	KindSetTree:                       true,
	KindSwapLayoutType:                true,
	KindGroupComponents:               true,
	KindUngroupComponents:             true,
	KindCutComponent:                  true,
	KindPasteComponent:                true,
	KindAddPage:                       true,
	KindDeletePage:                    true,
	KindRenamePage:                    true,
	KindDuplicatePage:                 true,
	KindUpdatePageTheme:               true,
	KindSetPages:                      true,
	KindCreateProject:                 true,
	KindDeleteProject:                 true,
	KindRenameProject:                 true,
	KindDuplicateProject:              true,
	KindUpdateProjectTheme:            true,
	KindUpdateProjectLayout:           true,
	KindMakeGlobalComponent:           true,
	KindInsertGlobalComponentInstance: true,
	KindUpdateGlobalComponent:         true,
	KindDetachGlobalComponentInstance: true,
	KindDeleteGlobalComponent:         true,
}

// clean lists actions that never mark the document dirty.
var clean = map[Kind]bool{
	KindSetCurrentPage:            true,
	KindSetCurrentProject:         true,
	KindToggleNodeSelection:       true,
	KindSetSelectedNodes:          true,
	KindCopyComponent:             true,
	KindSetEditingGlobalComponent: true,
	KindToggleGridLines:           true,
	KindMarkSaved:                 true,
	KindSetProjects:               true,
}

// Tracked reports whether k is on the history allow-list.
func Tracked(k Kind) bool { return tracked[k] }

// Dirties reports whether a successful k marks the document as having unsaved changes.
func Dirties(k Kind) bool { return !clean[k] }

// Tree actions.

type InsertComponent struct {
	Node     *domain.ComponentNode `json:"node"`
	ParentID string                `json:"parentId,omitempty"`
	Index    int                   `json:"index"` // negative appends
}

type RemoveComponent struct {
	ID string `json:"id"`
}

type RemoveComponents struct {
	IDs []string `json:"ids"`
}

// UpdateComponentProps overlays Props onto the node's props. A nil value deletes the key;
// the layout keys width, gridColumnStart, gridColumnSpan, gridRowSpan and responsiveColumns are
// written to the node's layout fields instead.
type UpdateComponentProps struct {
	ID    string         `json:"id"`
	Props map[string]any `json:"props"`
}

type UpdateMultipleComponentProps struct {
	IDs   []string       `json:"ids"`
	Props map[string]any `json:"props"`
}

// UpdateComponentPropsTransient is UpdateComponentProps without a history checkpoint (pointer drags).
type UpdateComponentPropsTransient struct {
	ID    string         `json:"id"`
	Props map[string]any `json:"props"`
}

type UpdateComponentName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DuplicateComponent struct {
	ID string `json:"id"`
}

type MoveComponent struct {
	ID        string         `json:"id"`
	Direction tree.Direction `json:"direction"`
}

type ReorderComponent struct {
	ActiveID string        `json:"activeId"`
	OverID   string        `json:"overId"`
	Position tree.Position `json:"position"`
}

// SetTree replaces the active tree wholesale after validation.
type SetTree struct {
	Tree []*domain.ComponentNode `json:"tree"`
}

type SwapLayoutType struct {
	ID string `json:"id"`
}

// GroupComponents wraps IDs (the selection when empty) into a new stack.
type GroupComponents struct {
	IDs []string `json:"ids,omitempty"`
}

type UngroupComponents struct {
	ID string `json:"id"`
}

// Selection.

// ToggleNodeSelection is a click on a node. Multi toggles membership, Range extends from the last selected node.
type ToggleNodeSelection struct {
	ID    string `json:"id"`
	Multi bool   `json:"multi,omitempty"`
	Range bool   `json:"range,omitempty"`
}

type SetSelectedNodes struct {
	IDs []string `json:"ids"`
}

// Clipboard. An empty ID means the first selected node.

type CopyComponent struct {
	ID string `json:"id,omitempty"`
}

type CutComponent struct {
	ID string `json:"id,omitempty"`
}

// PasteComponent pastes the clipboard relative to TargetID, or to the selection when TargetID is empty.
type PasteComponent struct {
	TargetID string `json:"targetId,omitempty"`
}

// Pages. An empty project-scoped ID means the current project.

type AddPage struct {
	Name string `json:"name"`
}

type DeletePage struct {
	ID string `json:"id"`
}

type RenamePage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DuplicatePage struct {
	ID string `json:"id"`
}

type SetCurrentPage struct {
	ID string `json:"id"`
}

type UpdatePageTheme struct {
	ID    string        `json:"id"`
	Theme *domain.Theme `json:"theme"`
}

type SetPageCanvasPosition struct {
	ID       string                `json:"id"`
	Position domain.CanvasPosition `json:"position"`
}

// SetPages replaces the current project's pages after validation.
type SetPages struct {
	Pages []domain.Page `json:"pages"`
}

// Projects.

type CreateProject struct {
	Name string `json:"name"`
}

type DeleteProject struct {
	ID string `json:"id"`
}

type RenameProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DuplicateProject struct {
	ID string `json:"id"`
}

type SetCurrentProject struct {
	ID string `json:"id"`
}

type UpdateProjectTheme struct {
	ID    string        `json:"id,omitempty"`
	Theme *domain.Theme `json:"theme"`
}

type UpdateProjectLayout struct {
	ID     string         `json:"id,omitempty"`
	Layout *domain.Layout `json:"layout"`
}

// SetProjects loads a workspace: it validates, resets history and leaves the document clean.
type SetProjects struct {
	Projects         []domain.Project `json:"projects"`
	CurrentProjectID string           `json:"currentProjectId"`
}

// Interactions.

type AddInteraction struct {
	NodeID      string             `json:"nodeId"`
	Interaction domain.Interaction `json:"interaction"`
}

// UpdateInteraction replaces the interaction with Interaction.ID.
type UpdateInteraction struct {
	NodeID      string             `json:"nodeId"`
	Interaction domain.Interaction `json:"interaction"`
}

type RemoveInteraction struct {
	NodeID        string `json:"nodeId"`
	InteractionID string `json:"interactionId"`
}

// Global components.

type MakeGlobalComponent struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type InsertGlobalComponentInstance struct {
	GlobalComponentID string `json:"globalComponentId"`
	ParentID          string `json:"parentId,omitempty"`
	Index             int    `json:"index"`
}

// UpdateGlobalComponent replaces the definition with Definition.ID and re-syncs every instance.
type UpdateGlobalComponent struct {
	Definition *domain.ComponentNode `json:"definition"`
}

// SetEditingGlobalComponent enters isolation mode for ID, or leaves it when ID is empty.
type SetEditingGlobalComponent struct {
	ID string `json:"id"`
}

type DetachGlobalComponentInstance struct {
	ID string `json:"id"`
}

type DeleteGlobalComponent struct {
	ID string `json:"id"`
}

// Misc.

type ToggleGridLines struct{}
type Undo struct{}
type Redo struct{}

// MarkSaved clears the dirty flag after a successful save.
type MarkSaved struct{}

func (InsertComponent) Kind() Kind               { return KindInsertComponent }
func (RemoveComponent) Kind() Kind               { return KindRemoveComponent }
func (RemoveComponents) Kind() Kind              { return KindRemoveComponents }
func (UpdateComponentProps) Kind() Kind          { return KindUpdateComponentProps }
func (UpdateMultipleComponentProps) Kind() Kind  { return KindUpdateMultipleComponentProps }
func (UpdateComponentPropsTransient) Kind() Kind { return KindUpdateComponentPropsTransient }
func (UpdateComponentName) Kind() Kind           { return KindUpdateComponentName }
func (DuplicateComponent) Kind() Kind            { return KindDuplicateComponent }
func (MoveComponent) Kind() Kind                 { return KindMoveComponent }
func (ReorderComponent) Kind() Kind              { return KindReorderComponent }
func (SetTree) Kind() Kind                       { return KindSetTree }
func (SwapLayoutType) Kind() Kind                { return KindSwapLayoutType }
func (GroupComponents) Kind() Kind               { return KindGroupComponents }
func (UngroupComponents) Kind() Kind             { return KindUngroupComponents }
func (ToggleNodeSelection) Kind() Kind           { return KindToggleNodeSelection }
func (SetSelectedNodes) Kind() Kind              { return KindSetSelectedNodes }
func (CopyComponent) Kind() Kind                 { return KindCopyComponent }
func (CutComponent) Kind() Kind                  { return KindCutComponent }
func (PasteComponent) Kind() Kind                { return KindPasteComponent }
func (AddPage) Kind() Kind                       { return KindAddPage }
func (DeletePage) Kind() Kind                    { return KindDeletePage }
func (RenamePage) Kind() Kind                    { return KindRenamePage }
func (DuplicatePage) Kind() Kind                 { return KindDuplicatePage }
func (SetCurrentPage) Kind() Kind                { return KindSetCurrentPage }
func (UpdatePageTheme) Kind() Kind               { return KindUpdatePageTheme }
func (SetPageCanvasPosition) Kind() Kind         { return KindSetPageCanvasPosition }
func (SetPages) Kind() Kind                      { return KindSetPages }
func (CreateProject) Kind() Kind                 { return KindCreateProject }
func (DeleteProject) Kind() Kind                 { return KindDeleteProject }
func (RenameProject) Kind() Kind                 { return KindRenameProject }
func (DuplicateProject) Kind() Kind              { return KindDuplicateProject }
func (SetCurrentProject) Kind() Kind             { return KindSetCurrentProject }
func (UpdateProjectTheme) Kind() Kind            { return KindUpdateProjectTheme }
func (UpdateProjectLayout) Kind() Kind           { return KindUpdateProjectLayout }
func (SetProjects) Kind() Kind                   { return KindSetProjects }
func (AddInteraction) Kind() Kind                { return KindAddInteraction }
func (UpdateInteraction) Kind() Kind             { return KindUpdateInteraction }
func (RemoveInteraction) Kind() Kind             { return KindRemoveInteraction }
func (MakeGlobalComponent) Kind() Kind           { return KindMakeGlobalComponent }
func (InsertGlobalComponentInstance) Kind() Kind { return KindInsertGlobalComponentInstance }
func (UpdateGlobalComponent) Kind() Kind         { return KindUpdateGlobalComponent }
func (SetEditingGlobalComponent) Kind() Kind     { return KindSetEditingGlobalComponent }
func (DetachGlobalComponentInstance) Kind() Kind { return KindDetachGlobalComponentInstance }
func (DeleteGlobalComponent) Kind() Kind         { return KindDeleteGlobalComponent }
func (ToggleGridLines) Kind() Kind               { return KindToggleGridLines }
func (Undo) Kind() Kind                          { return KindUndo }
func (Redo) Kind() Kind                          { return KindRedo }
func (MarkSaved) Kind() Kind                     { return KindMarkSaved }
