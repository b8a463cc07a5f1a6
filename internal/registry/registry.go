/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package registry describes the capabilities of every component type: whether it accepts children,
// its default props and the few policy flags the editing engine consults.
// The built-in catalogue is embedded as YAML; a user catalogue can replace or extend it.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"wpuilab/internal/domain"
)

//go:embed components.yaml
var builtinYAML []byte

// Stack directions.
const (
	StackVertical   = "vertical"
	StackHorizontal = "horizontal"
)

// Definition is the registry entry of one component type.
type Definition struct {
	Type            string         `yaml:"type"`
	AcceptsChildren bool           `yaml:"accepts_children"`
	TextLike        bool           `yaml:"text_like"`
	Structural      bool           `yaml:"structural"`
	Stack           string         `yaml:"stack"`
	PasteAsSibling  bool           `yaml:"paste_as_sibling"`
	DefaultProps    map[string]any `yaml:"default_props"`
}

type catalogue struct {
	Version    int          `yaml:"version"`
	Components []Definition `yaml:"components"`
}

// Registry is an immutable lookup table; it is safe for concurrent use.
type Registry struct {
	defs map[string]Definition
}

// Parse builds a registry from a YAML catalogue.
func Parse(data []byte) (*Registry, error) {
	var c catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if len(c.Components) == 0 {
		return nil, errors.New("registry has no components")
	}
	r := &Registry{defs: make(map[string]Definition, len(c.Components))}
	for _, d := range c.Components {
		d.Type = strings.TrimSpace(d.Type)
		if d.Type == "" {
			return nil, errors.New("registry entry without type")
		}
		if d.TextLike && d.AcceptsChildren {
			return nil, fmt.Errorf("registry entry %s: text-like types cannot accept children", d.Type)
		}
		if d.Stack != "" && d.Stack != StackVertical && d.Stack != StackHorizontal {
			return nil, fmt.Errorf("registry entry %s: unknown stack direction %q", d.Type, d.Stack)
		}
		r.defs[d.Type] = d
	}
	if _, ok := r.defs[domain.RootContainerType]; !ok {
		return nil, fmt.Errorf("registry must define the root container type %s", domain.RootContainerType)
	}
	return r, nil
}

// Default returns the built-in catalogue.
func Default() *Registry {
	r, err := Parse(builtinYAML)
	if err != nil {
		// the embedded catalogue is covered by tests
		panic(err)
	}
	return r
}

// Load reads a catalogue file and layers it over the built-in one.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	user, err := parseLoose(data)
	if err != nil {
		return nil, err
	}
	base := Default()
	for k, d := range user {
		base.defs[k] = d
	}
	return base, nil
}

func parseLoose(data []byte) (map[string]Definition, error) {
	var c catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	out := make(map[string]Definition, len(c.Components))
	for _, d := range c.Components {
		if strings.TrimSpace(d.Type) == "" {
			return nil, errors.New("registry entry without type")
		}
		out[d.Type] = d
	}
	return out, nil
}

// WithPasteAsSibling returns a copy of r where the given types paste as siblings.
func (r *Registry) WithPasteAsSibling(types ...string) *Registry {
	c := &Registry{defs: make(map[string]Definition, len(r.defs))}
	for k, d := range r.defs {
		c.defs[k] = d
	}
	for _, t := range types {
		if d, ok := c.defs[t]; ok {
			d.PasteAsSibling = true
			c.defs[t] = d
		}
	}
	return c
}

// Lookup returns the definition of a type.
func (r *Registry) Lookup(typ string) (Definition, bool) {
	d, ok := r.defs[typ]
	return d, ok
}

// Has reports whether typ is a known type.
func (r *Registry) Has(typ string) bool {
	_, ok := r.defs[typ]
	return ok
}

func (r *Registry) AcceptsChildren(typ string) bool { return r.defs[typ].AcceptsChildren }
func (r *Registry) IsTextLike(typ string) bool      { return r.defs[typ].TextLike }
func (r *Registry) IsStructural(typ string) bool    { return r.defs[typ].Structural }
func (r *Registry) PastesAsSibling(typ string) bool { return r.defs[typ].PasteAsSibling }

// StackDirection returns vertical, horizontal or "" for non-stack types.
func (r *Registry) StackDirection(typ string) string { return r.defs[typ].Stack }

// StackType returns the registered stack type for a direction, preferring VStack/HStack.
func (r *Registry) StackType(direction string) string {
	switch direction {
	case StackVertical:
		if r.defs["VStack"].Stack == StackVertical {
			return "VStack"
		}
	case StackHorizontal:
		if r.defs["HStack"].Stack == StackHorizontal {
			return "HStack"
		}
	}
	for _, t := range r.Types() {
		if r.defs[t].Stack == direction {
			return t
		}
	}
	return ""
}

// DefaultsFor returns a fresh copy of the default props of typ (never nil).
func (r *Registry) DefaultsFor(typ string) map[string]any {
	return domain.CloneProps(r.defs[typ].DefaultProps)
}

// Types lists the registered types in alphabetical order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.defs))
	for k := range r.defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
