/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the document model of a WPUI Lab workspace: projects own pages, pages own a forest of
// component nodes rooted at the root container, and projects own the global component definitions whose
// synchronized clones (instances) live inside page trees.
// Everything serializes to the JSON manifest consumed by the persistence layer.

// RootContainerID is the well-known id of the undeletable container at the top of every page tree.
// It is shared by all pages; every other id is unique within its project.
const RootContainerID = "root-vstack"

// RootContainerType is the component type of the root container.
const RootContainerType = "VStack"

// Workspace is the persisted unit: every project plus the one currently open.
type Workspace struct {
	Projects         []Project `json:"projects"`
	CurrentProjectID string    `json:"currentProjectId"`
}

// Project groups pages and the global component definitions shared by them.
type Project struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Pages            []Page           `json:"pages"`
	CurrentPageID    string           `json:"currentPageId"`
	GlobalComponents []*ComponentNode `json:"globalComponents"`
	Theme            *Theme           `json:"theme,omitempty"`
	Layout           *Layout          `json:"layout,omitempty"`
	LastModified     int64            `json:"lastModified"` // unix millis
	IsExampleProject bool             `json:"isExampleProject,omitempty"`
}

// Page owns exactly one component forest, conventionally a single root container.
type Page struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Tree           []*ComponentNode `json:"tree"`
	Theme          *Theme           `json:"theme,omitempty"`
	CanvasPosition *CanvasPosition  `json:"canvasPosition,omitempty"`
}

// ComponentNode is one element of a page tree.
// Nodes are treated as immutable once they are part of a committed tree: edits build new nodes along the
// path to the changed node and reuse every untouched subtree.
type ComponentNode struct {
	ID           string           `json:"id"`
	Type         string           `json:"type"`
	Name         string           `json:"name,omitempty"`
	Props        map[string]any   `json:"props"`
	Children     []*ComponentNode `json:"children,omitzero"`
	Interactions []Interaction    `json:"interactions,omitempty"`

	IsGlobalInstance  bool   `json:"isGlobalInstance,omitempty"`
	GlobalComponentID string `json:"globalComponentId,omitempty"`

	// Layout placement is kept on the node, not in Props.
	Width             string         `json:"width,omitempty"`
	GridColumnStart   int            `json:"gridColumnStart,omitempty"`
	GridColumnSpan    int            `json:"gridColumnSpan,omitempty"`
	GridRowSpan       int            `json:"gridRowSpan,omitempty"`
	ResponsiveColumns map[string]int `json:"responsiveColumns,omitempty"`
}

// Interaction is a trigger/action pair such as onClick → navigate.
type Interaction struct {
	ID       string `json:"id"`
	Trigger  string `json:"trigger"`
	Action   string `json:"action"`
	TargetID string `json:"targetId,omitempty"`
}

// Theme carries the color and density settings applied by the renderer.
type Theme struct {
	PrimaryColor    string `json:"primaryColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	Density         string `json:"density,omitempty"` // compact, default, comfortable
}

// Layout describes the page frame used by the renderer.
type Layout struct {
	MaxWidth int `json:"maxWidth,omitempty"`
	Padding  int `json:"padding,omitempty"`
	Spacing  int `json:"spacing,omitempty"`
}

// CanvasPosition is where a page sits on the zoomable canvas.
type CanvasPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewRootContainer returns an empty root container with the given props (nil means none).
func NewRootContainer(props map[string]any) *ComponentNode {
	if props == nil {
		props = map[string]any{}
	}
	return &ComponentNode{ID: RootContainerID, Type: RootContainerType, Name: "Root", Props: props, Children: []*ComponentNode{}}
}
