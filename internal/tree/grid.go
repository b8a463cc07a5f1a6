/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tree

import "wpuilab/internal/domain"

const (
	// DefaultGridColumns applies when a grid has no usable "columns" prop.
	DefaultGridColumns = 12
	// DefaultGridSpan is the fallback span for a full grid with unequal children.
	DefaultGridSpan = 3
)

// SpanUpdate asks the caller to rewrite an existing child's column span.
type SpanUpdate struct {
	ID   string
	Span int
}

// SpanResult is the placement decision for a node about to be added to a grid.
type SpanResult struct {
	Span             int
	ChildrenToUpdate []SpanUpdate
}

// Columns returns the grid's column count.
func Columns(grid *domain.ComponentNode) int {
	if grid == nil {
		return DefaultGridColumns
	}
	if c, ok := domain.IntValue(grid.Props["columns"]); ok && c > 0 {
		return c
	}
	return DefaultGridColumns
}

// ChildSpan is the number of columns a grid child occupies; unset spans count as one column.
func ChildSpan(n *domain.ComponentNode) int {
	if n == nil || n.GridColumnSpan <= 0 {
		return 1
	}
	return n.GridColumnSpan
}

// SmartGridSpan decides the span of a new child of grid.
// Rules in order: empty grid takes the full width; a single full-width child is halved along with the
// newcomer; spare capacity goes to the newcomer; a full grid of equal spans is rebalanced evenly;
// anything else gets DefaultGridSpan and existing children stay as they are.
func SmartGridSpan(grid *domain.ComponentNode) SpanResult {
	cols := Columns(grid)
	var kids []*domain.ComponentNode
	if grid != nil {
		for _, c := range grid.Children {
			if c != nil {
				kids = append(kids, c)
			}
		}
	}
	if len(kids) == 0 {
		return SpanResult{Span: cols, ChildrenToUpdate: []SpanUpdate{}}
	}
	if len(kids) == 1 && ChildSpan(kids[0]) >= cols {
		half := max(cols/2, 1)
		return SpanResult{Span: half, ChildrenToUpdate: []SpanUpdate{{ID: kids[0].ID, Span: half}}}
	}
	used := 0
	for _, c := range kids {
		used += ChildSpan(c)
	}
	if used < cols {
		return SpanResult{Span: cols - used, ChildrenToUpdate: []SpanUpdate{}}
	}
	first := ChildSpan(kids[0])
	equal := true
	for _, c := range kids[1:] {
		if ChildSpan(c) != first {
			equal = false
			break
		}
	}
	if equal {
		each := max(cols/(len(kids)+1), 1)
		updates := make([]SpanUpdate, 0, len(kids))
		for _, c := range kids {
			updates = append(updates, SpanUpdate{ID: c.ID, Span: each})
		}
		return SpanResult{Span: each, ChildrenToUpdate: updates}
	}
	return SpanResult{Span: DefaultGridSpan, ChildrenToUpdate: []SpanUpdate{}}
}

// ApplySpanUpdates rewrites the spans of grid's children listed in updates.
func ApplySpanUpdates(nodes []*domain.ComponentNode, updates []SpanUpdate) []*domain.ComponentNode {
	for _, u := range updates {
		span := u.Span
		nodes = Update(nodes, u.ID, func(n *domain.ComponentNode) *domain.ComponentNode {
			c := n.ShallowCopy()
			c.GridColumnSpan = span
			return c
		})
	}
	return nodes
}
