/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history keeps bounded undo/redo stacks of workspace snapshots.
//
// History is a value: every operation returns a new History and never writes into the backing arrays of
// its receiver, so a History embedded in an older editor state stays valid after newer states are derived.
// Snapshots share unchanged subtrees with each other and with live state; callers must treat the
// snapshotted projects as immutable.
package history

import (
	"time"

	"wpuilab/internal/domain"
)

// DefaultLimit is the number of undo steps kept.
const DefaultLimit = 50

// Snapshot is one checkpoint of the document.
type Snapshot struct {
	Projects         []domain.Project
	CurrentProjectID string
	TS               time.Time // capture time
}

// History holds the checkpoints before (Past, oldest first) and after (Future, most recent undo last) the current state.
type History struct {
	Past   []Snapshot
	Future []Snapshot
}

func (h History) CanUndo() bool { return len(h.Past) > 0 }
func (h History) CanRedo() bool { return len(h.Future) > 0 }

// Policy controls depth and coalescing.
type Policy struct {
	// Limit caps Past; the oldest entries are evicted first. Zero means DefaultLimit.
	Limit int
	// Coalesce keeps only the first of several commits captured within the interval, so a burst of edits
	// undoes in one step. Zero disables coalescing.
	Coalesce time.Duration
}

func (p Policy) limit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}

// Commit records pre, the state before a committed change. Any commit invalidates redo.
func (p Policy) Commit(h History, pre Snapshot) History {
	if n := len(h.Past); n > 0 && p.Coalesce > 0 && !pre.TS.IsZero() {
		last := h.Past[n-1]
		if pre.TS.Sub(last.TS) < p.Coalesce {
			// Coalesce: the older checkpoint already restores the state before the burst
			return History{Past: h.Past, Future: nil}
		}
	}
	return History{Past: p.push(h.Past, pre), Future: nil}
}

// Undo steps back: it returns the snapshot to restore and moves current onto Future.
func (p Policy) Undo(h History, current Snapshot) (History, Snapshot, bool) {
	n := len(h.Past)
	if n == 0 {
		return h, Snapshot{}, false
	}
	s := h.Past[n-1]
	return History{Past: h.Past[: n-1 : n-1], Future: appendCopy(h.Future, current)}, s, true
}

// Redo re-applies the most recently undone snapshot and moves current back onto Past.
func (p Policy) Redo(h History, current Snapshot) (History, Snapshot, bool) {
	n := len(h.Future)
	if n == 0 {
		return h, Snapshot{}, false
	}
	s := h.Future[n-1]
	return History{Past: p.push(h.Past, current), Future: h.Future[: n-1 : n-1]}, s, true
}

// Stats returns the stack depths for diagnostics.
func (h History) Stats() (past, future int) { return len(h.Past), len(h.Future) }

func (p Policy) push(stack []Snapshot, s Snapshot) []Snapshot {
	out := appendCopy(stack, s)
	if extra := len(out) - p.limit(); extra > 0 {
		// drop the oldest extras
		out = out[extra:]
	}
	return out
}

// appendCopy appends into a fresh backing array so older History values are never overwritten.
func appendCopy(stack []Snapshot, s Snapshot) []Snapshot {
	out := make([]Snapshot, len(stack), len(stack)+1)
	copy(out, stack)
	return append(out, s)
}
