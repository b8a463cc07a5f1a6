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
	"log/slog"
	"slices"
	"sync"

	"wpuilab/internal/domain"
	"wpuilab/internal/tree"
)

// ErrNoGesture is returned when a gesture is ended or cancelled without having been started.
var ErrNoGesture = errors.New("no gesture in progress")

// Listener is notified after every dispatch that changed the state.
type Listener func(s State, a Action)

// Session owns the live state of one open workspace and serialises dispatches.
type Session struct {
	proc *Processor

	mu        sync.Mutex
	state     State
	gesture   *State // state at BeginGesture
	listeners map[int]Listener
	nextID    int
}

// NewSession opens ws with proc (New(nil, nil) when proc is nil).
func NewSession(proc *Processor, ws domain.Workspace) *Session {
	if proc == nil {
		proc = New(nil, nil)
	}
	return &Session{proc: proc, state: NewState(ws), listeners: map[int]Listener{}}
}

func (s *Session) Processor() *Processor { return s.proc }

// State returns the current state. The value is immutable and may be kept by the caller.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Workspace() domain.Workspace { return s.State().Workspace() }
func (s *Session) CanUndo() bool               { return s.State().CanUndo() }
func (s *Session) CanRedo() bool               { return s.State().CanRedo() }
func (s *Session) IsDirty() bool               { return s.State().IsDirty }

// Dispatch reduces a into the session state.
func (s *Session) Dispatch(a Action) (State, error) {
	prev, next, ls, err := s.reduce(a)
	if err != nil {
		return prev, err
	}
	if changed(prev, next) {
		for _, l := range ls {
			l(next, a)
		}
	}
	return next, nil
}

// reduce runs the reducer under the lock.
func (s *Session) reduce(a Action) (prev, next State, ls []Listener, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.state
	next, err = s.proc.Reduce(prev, a)
	if err == nil {
		s.state = next
	}
	return prev, next, s.snapshotListeners(), err
}

// DispatchAll applies actions in order and stops at the first error.
func (s *Session) DispatchAll(actions ...Action) (State, error) {
	var st State
	for _, a := range actions {
		var err error
		if st, err = s.Dispatch(a); err != nil {
			return st, err
		}
	}
	return s.State(), nil
}

// BeginGesture marks the start of a continuous edit such as a drag. Transient updates dispatched until
// EndGesture leave no history entries.
func (s *Session) BeginGesture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture != nil {
		return
	}
	base := s.state
	s.gesture = &base
}

// EndGesture closes the gesture as a single undo step. With a final action, final is applied to the state
// at BeginGesture; without one, the live state is committed against it.
func (s *Session) EndGesture(final Action) (State, error) {
	s.mu.Lock()
	base := s.gesture
	if base == nil {
		s.mu.Unlock()
		return s.State(), ErrNoGesture
	}
	s.gesture = nil

	var next State
	var err error
	if final != nil {
		next, err = s.proc.Reduce(*base, final)
		if err != nil {
			// keep whatever the gesture produced
			st := s.state
			s.mu.Unlock()
			return st, err
		}
		next.IsDirty = next.IsDirty || s.state.IsDirty
	} else {
		next = s.state
		if !sameDocument(*base, next) {
			pre := base.snapshot()
			pre.TS = s.proc.now()
			next.History = s.proc.History.Commit(base.History, pre)
		}
	}
	prev := s.state
	s.state = next
	ls := s.snapshotListeners()
	s.mu.Unlock()

	if changed(prev, next) {
		for _, l := range ls {
			l(next, final)
		}
	}
	return next, nil
}

// CancelGesture restores the state at BeginGesture.
func (s *Session) CancelGesture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture == nil {
		return ErrNoGesture
	}
	s.state = *s.gesture
	s.gesture = nil
	return nil
}

func (s *Session) InGesture() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gesture != nil
}

// Subscribe registers l and returns a function removing it. Listeners run on the dispatching goroutine
// after the session lock is released.
func (s *Session) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// snapshotListeners must be called with mu held.
func (s *Session) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

// sameDocument reports whether a and b share every page tree and definition.
func sameDocument(a, b State) bool {
	if len(a.Projects) != len(b.Projects) || a.CurrentProjectID != b.CurrentProjectID {
		return false
	}
	for i := range a.Projects {
		pa, pb := &a.Projects[i], &b.Projects[i]
		if pa.ID != pb.ID || pa.Name != pb.Name || len(pa.Pages) != len(pb.Pages) ||
			!tree.Same(pa.GlobalComponents, pb.GlobalComponents) || pa.LastModified != pb.LastModified {
			return false
		}
		for j := range pa.Pages {
			if !tree.Same(pa.Pages[j].Tree, pb.Pages[j].Tree) {
				return false
			}
		}
	}
	return true
}

func changed(a, b State) bool {
	return !sameDocument(a, b) || a.IsDirty != b.IsDirty || a.EditingGlobalComponentID != b.EditingGlobalComponentID ||
		a.GridLinesVisible != b.GridLinesVisible || !slices.Equal(a.SelectedNodeIDs, b.SelectedNodeIDs) ||
		a.Clipboard != b.Clipboard || len(a.History.Past) != len(b.History.Past) || len(a.History.Future) != len(b.History.Future)
}

// LogValue renders the session for structured logs.
func (s *Session) LogValue() slog.Value {
	st := s.State()
	return slog.GroupValue(
		slog.Int("projects", len(st.Projects)),
		slog.String("current", st.CurrentProjectID),
		slog.Bool("dirty", st.IsDirty),
		slog.Int("undo", len(st.History.Past)),
	)
}
