/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownAction is returned by DecodeAction for an unrecognised type tag.
var ErrUnknownAction = errors.New("unknown action type")

// envelope is the wire form of an action: {"type": "...", "payload": {...}}.
type envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type decoder func(payload []byte) (Action, error)

// decodeAs unmarshals the payload over a copy of init, so init carries the defaults of omitted fields.
func decodeAs[T Action](init T) decoder {
	return func(payload []byte) (Action, error) {
		v := init
		if len(bytes.TrimSpace(payload)) > 0 && !bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
			if err := json.Unmarshal(payload, &v); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
}

var decoders = map[Kind]decoder{
	KindInsertComponent:               decodeAs(InsertComponent{Index: -1}),
	KindRemoveComponent:               decodeAs(RemoveComponent{}),
	KindRemoveComponents:              decodeAs(RemoveComponents{}),
	KindUpdateComponentProps:          decodeAs(UpdateComponentProps{}),
	KindUpdateMultipleComponentProps:  decodeAs(UpdateMultipleComponentProps{}),
	KindUpdateComponentPropsTransient: decodeAs(UpdateComponentPropsTransient{}),
	KindUpdateComponentName:           decodeAs(UpdateComponentName{}),
	KindDuplicateComponent:            decodeAs(DuplicateComponent{}),
	KindMoveComponent:                 decodeAs(MoveComponent{}),
	KindReorderComponent:              decodeAs(ReorderComponent{}),
	KindSetTree:                       decodeAs(SetTree{}),
	KindSwapLayoutType:                decodeAs(SwapLayoutType{}),
	KindGroupComponents:               decodeAs(GroupComponents{}),
	KindUngroupComponents:             decodeAs(UngroupComponents{}),
	KindToggleNodeSelection:           decodeAs(ToggleNodeSelection{}),
	KindSetSelectedNodes:              decodeAs(SetSelectedNodes{}),
	KindCopyComponent:                 decodeAs(CopyComponent{}),
	KindCutComponent:                  decodeAs(CutComponent{}),
	KindPasteComponent:                decodeAs(PasteComponent{}),
	KindAddPage:                       decodeAs(AddPage{}),
	KindDeletePage:                    decodeAs(DeletePage{}),
	KindRenamePage:                    decodeAs(RenamePage{}),
	KindDuplicatePage:                 decodeAs(DuplicatePage{}),
	KindSetCurrentPage:                decodeAs(SetCurrentPage{}),
	KindUpdatePageTheme:               decodeAs(UpdatePageTheme{}),
	KindSetPageCanvasPosition:         decodeAs(SetPageCanvasPosition{}),
	KindSetPages:                      decodeAs(SetPages{}),
	KindCreateProject:                 decodeAs(CreateProject{}),
	KindDeleteProject:                 decodeAs(DeleteProject{}),
	KindRenameProject:                 decodeAs(RenameProject{}),
	KindDuplicateProject:              decodeAs(DuplicateProject{}),
	KindSetCurrentProject:             decodeAs(SetCurrentProject{}),
	KindUpdateProjectTheme:            decodeAs(UpdateProjectTheme{}),
	KindUpdateProjectLayout:           decodeAs(UpdateProjectLayout{}),
	KindSetProjects:                   decodeAs(SetProjects{}),
	KindAddInteraction:                decodeAs(AddInteraction{}),
	KindUpdateInteraction:             decodeAs(UpdateInteraction{}),
	KindRemoveInteraction:             decodeAs(RemoveInteraction{}),
	KindMakeGlobalComponent:           decodeAs(MakeGlobalComponent{}),
	KindInsertGlobalComponentInstance: decodeAs(InsertGlobalComponentInstance{Index: -1}),
	KindUpdateGlobalComponent:         decodeAs(UpdateGlobalComponent{}),
	KindSetEditingGlobalComponent:     decodeAs(SetEditingGlobalComponent{}),
	KindDetachGlobalComponentInstance: decodeAs(DetachGlobalComponentInstance{}),
	KindDeleteGlobalComponent:         decodeAs(DeleteGlobalComponent{}),
	KindToggleGridLines:               decodeAs(ToggleGridLines{}),
	KindUndo:                          decodeAs(Undo{}),
	KindRedo:                          decodeAs(Redo{}),
	KindMarkSaved:                     decodeAs(MarkSaved{}),
}

// DecodeAction parses one action envelope.
func DecodeAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	dec, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, env.Type)
	}
	a, err := dec(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return a, nil
}

// DecodeActions parses a JSON array of action envelopes.
func DecodeActions(data []byte) ([]Action, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	out := make([]Action, 0, len(raw))
	for i, r := range raw {
		a, err := DecodeAction(r)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// EncodeAction renders a as an envelope.
func EncodeAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, errors.New("encode action: nil")
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Kind(), err)
	}
	return json.Marshal(envelope{Type: a.Kind(), Payload: payload})
}
