/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package validate checks the structural rules of component trees before they replace editor state.
package validate

import (
	"fmt"
	"strings"

	"wpuilab/internal/domain"
)

// MaxDepth bounds nesting; deeper trees are rejected rather than walked.
const MaxDepth = 256

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding. Path uses the JSON shape of the tree, e.g. "[0].children[2].props".
type Issue struct {
	Path     string   `json:"path"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Result collects every finding; Valid is false as soon as one error-severity issue exists.
type Result struct {
	Valid  bool    `json:"valid"`
	Errors []Issue `json:"errors"`
}

func (r *Result) add(path string, sev Severity, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Path: path, Message: fmt.Sprintf(format, args...), Severity: sev})
	if sev == SeverityError {
		r.Valid = false
	}
}

func (r *Result) merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	if !o.Valid {
		r.Valid = false
	}
}

// Warnings returns only the warning-severity findings.
func (r Result) Warnings() []Issue {
	var out []Issue
	for _, i := range r.Errors {
		if i.Severity == SeverityWarning {
			out = append(out, i)
		}
	}
	return out
}

// Err returns nil for a valid result and an *Error otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	var errs []Issue
	for _, i := range r.Errors {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return &Error{Issues: errs}
}

// Error rejects a bulk replacement; it lists every error-severity issue.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	if len(e.Issues) == 0 {
		return "invalid tree"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		parts = append(parts, i.String())
	}
	return "invalid tree: " + strings.Join(parts, "; ")
}

// Registry is the capability lookup the validator needs.
type Registry interface {
	Has(typ string) bool
	AcceptsChildren(typ string) bool
	IsTextLike(typ string) bool
}

type walker struct {
	reg     Registry
	res     *Result
	visited map[*domain.ComponentNode]struct{}
	seen    map[string]string
}

// Tree validates one page forest.
func Tree(nodes []*domain.ComponentNode, reg Registry) Result {
	res := Result{Valid: true}
	w := &walker{reg: reg, res: &res, visited: map[*domain.ComponentNode]struct{}{}, seen: map[string]string{}}
	w.forest(nodes, "", 0)
	return res
}

func (w *walker) forest(nodes []*domain.ComponentNode, path string, depth int) {
	for i, n := range nodes {
		w.node(n, fmt.Sprintf("%s[%d]", path, i), depth)
	}
}

func (w *walker) node(n *domain.ComponentNode, path string, depth int) {
	full := path
	if n == nil {
		w.res.add(full, SeverityError, "node must be an object")
		return
	}
	if depth >= MaxDepth {
		w.res.add(full, SeverityError, "tree is nested deeper than %d levels", MaxDepth)
		return
	}
	if _, ok := w.visited[n]; ok {
		w.res.add(full, SeverityError, "node %q is reachable more than once (cycle or shared subtree)", n.ID)
		return
	}
	w.visited[n] = struct{}{}

	if n.ID == "" {
		w.res.add(full+".id", SeverityError, "id must be a non-empty string")
	} else if prev, dup := w.seen[n.ID]; dup {
		w.res.add(full+".id", SeverityError, "duplicate id %q (first seen at %s)", n.ID, prev)
	} else {
		w.seen[n.ID] = full
	}
	if n.Type == "" {
		w.res.add(full+".type", SeverityError, "type must be a non-empty string")
	} else if w.reg != nil && !w.reg.Has(n.Type) {
		w.res.add(full+".type", SeverityError, "unknown component type %q", n.Type)
	}
	if n.Props == nil {
		w.res.add(full+".props", SeverityError, "props must be an object")
	}

	if w.reg != nil && n.Type != "" {
		switch {
		case w.reg.IsTextLike(n.Type) && len(n.Children) > 0:
			w.res.add(full+".children", SeverityError, "text component %s cannot have children", n.Type)
		case !w.reg.AcceptsChildren(n.Type) && len(n.Children) > 0:
			w.res.add(full+".children", SeverityError, "component %s does not accept children", n.Type)
		case w.reg.AcceptsChildren(n.Type) && n.Children == nil:
			w.res.add(full+".children", SeverityWarning, "container %s has no children array", n.Type)
		}
	}

	for i, it := range n.Interactions {
		ip := fmt.Sprintf("%s.interactions[%d]", full, i)
		if it.ID == "" {
			w.res.add(ip+".id", SeverityError, "interaction id must be a non-empty string")
		}
		if it.Trigger == "" {
			w.res.add(ip+".trigger", SeverityError, "interaction trigger must be a non-empty string")
		}
		if it.Action == "" {
			w.res.add(ip+".action", SeverityError, "interaction action must be a non-empty string")
		}
	}

	w.forest(n.Children, path+".children", depth+1)
}

// Project validates every page and global definition of p and the project-wide rules:
// ids are unique across pages and definitions (the shared root container id excepted) and every
// instance references an existing definition.
func Project(p *domain.Project, reg Registry) Result {
	res := Result{Valid: true}
	owner := map[string]string{}
	claim := func(id, where string) {
		if id == "" || id == domain.RootContainerID {
			return
		}
		if prev, ok := owner[id]; ok {
			if prev == where {
				// already reported by the per-tree pass
				return
			}
			res.add(where, SeverityError, "duplicate id %q (also in %s)", id, prev)
			return
		}
		owner[id] = where
	}

	for i := range p.Pages {
		pg := &p.Pages[i]
		where := fmt.Sprintf("pages[%d]", i)
		if pg.ID == "" {
			res.add(where+".id", SeverityError, "page id must be a non-empty string")
		}
		r := Tree(pg.Tree, reg)
		prefix(&r, where+".tree")
		res.merge(r)
		for _, id := range collect(pg.Tree) {
			claim(id, where)
		}
	}
	for i, g := range p.GlobalComponents {
		where := fmt.Sprintf("globalComponents[%d]", i)
		r := Tree([]*domain.ComponentNode{g}, reg)
		for j := range r.Errors {
			r.Errors[j].Path = strings.TrimPrefix(r.Errors[j].Path, "[0]")
		}
		prefix(&r, where)
		res.merge(r)
		for _, id := range collect([]*domain.ComponentNode{g}) {
			claim(id, where)
		}
	}

	defs := map[string]struct{}{}
	for _, g := range p.GlobalComponents {
		if g != nil {
			defs[g.ID] = struct{}{}
		}
	}
	for i := range p.Pages {
		checkInstances(&res, p.Pages[i].Tree, defs, fmt.Sprintf("pages[%d].tree", i), "", 0)
	}
	for i, g := range p.GlobalComponents {
		if g == nil {
			continue
		}
		where := fmt.Sprintf("globalComponents[%d]", i)
		if g.IsGlobalInstance {
			res.add(where, SeverityError, "definition %q is tagged as an instance", g.ID)
		}
		checkInstances(&res, g.Children, defs, where+".children", "", 1)
		if refersTo(g.Children, g.ID, 1) {
			res.add(where, SeverityError, "definition %q contains an instance of itself", g.ID)
		}
	}
	return res
}

// refersTo reports whether nodes hold an instance of gid.
func refersTo(nodes []*domain.ComponentNode, gid string, depth int) bool {
	if depth >= MaxDepth {
		return false
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.IsGlobalInstance && n.GlobalComponentID == gid {
			return true
		}
		if refersTo(n.Children, gid, depth+1) {
			return true
		}
	}
	return false
}

// Workspace validates every project and the uniqueness of project ids.
func Workspace(ws *domain.Workspace, reg Registry) Result {
	res := Result{Valid: true}
	seen := map[string]bool{}
	for i := range ws.Projects {
		p := &ws.Projects[i]
		where := fmt.Sprintf("projects[%d]", i)
		if p.ID == "" {
			res.add(where+".id", SeverityError, "project id must be a non-empty string")
		} else if seen[p.ID] {
			res.add(where+".id", SeverityError, "duplicate project id %q", p.ID)
		}
		seen[p.ID] = true
		r := Project(p, reg)
		prefix(&r, where)
		res.merge(r)
	}
	return res
}

func checkInstances(res *Result, nodes []*domain.ComponentNode, defs map[string]struct{}, path, inherited string, depth int) {
	if depth >= MaxDepth {
		return
	}
	for i, n := range nodes {
		if n == nil {
			continue
		}
		p := fmt.Sprintf("%s[%d]", path, i)
		gid := inherited
		if n.IsGlobalInstance {
			if n.GlobalComponentID == "" {
				res.add(p, SeverityError, "global instance without globalComponentId")
			} else if _, ok := defs[n.GlobalComponentID]; !ok {
				res.add(p, SeverityError, "global instance references unknown definition %q", n.GlobalComponentID)
			}
			if inherited != "" && n.GlobalComponentID != inherited {
				res.add(p, SeverityError, "instance subtree mixes global components %q and %q", inherited, n.GlobalComponentID)
			}
			if inherited == "" {
				gid = n.GlobalComponentID
			}
		} else if inherited != "" {
			res.add(p, SeverityWarning, "node inside instance of %q is not tagged as an instance", inherited)
		}
		checkInstances(res, n.Children, defs, p+".children", gid, depth+1)
	}
}

func prefix(r *Result, p string) {
	for i := range r.Errors {
		if strings.HasPrefix(r.Errors[i].Path, "[") || strings.HasPrefix(r.Errors[i].Path, ".") {
			r.Errors[i].Path = p + r.Errors[i].Path
		} else if r.Errors[i].Path == "" {
			r.Errors[i].Path = p
		} else {
			r.Errors[i].Path = p + "." + r.Errors[i].Path
		}
	}
}

func collect(nodes []*domain.ComponentNode) []string {
	var out []string
	visited := map[*domain.ComponentNode]struct{}{}
	var walk func([]*domain.ComponentNode, int)
	walk = func(ns []*domain.ComponentNode, depth int) {
		if depth >= MaxDepth {
			return
		}
		for _, n := range ns {
			if n == nil {
				continue
			}
			if _, ok := visited[n]; ok {
				continue
			}
			visited[n] = struct{}{}
			out = append(out, n.ID)
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	return out
}
