// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rbac

import (
	"fmt"
	"os"
	"slices"

	"sigs.k8s.io/yaml"
)

// AliasTable holds the static implication data the evaluators consult.
//
//	codes:        superset code -> codes it implies
//	modules:      module key -> module key to fall back to when absent
//	hierarchies:  module -> parent item -> child items
type AliasTable struct {
	Codes       map[string][]string            `json:"codes"`
	Modules     map[string]string              `json:"modules"`
	Hierarchies map[string]map[string][]string `json:"hierarchies"`
}

// DefaultAliasTable is used when no alias file is configured.
func DefaultAliasTable() *AliasTable {
	return &AliasTable{
		Codes: map[string][]string{
			"manage_users": {"users.view", "users.edit"},
			"roles.manage": {"roles.view"},
		},
		Modules: map[string]string{
			"web_user_attendance":    "user_attendance",
			"mobile_user_attendance": "user_attendance",
		},
		Hierarchies: map[string]map[string][]string{
			"main_dashboard": {
				"Dashboard": {
					"Overview Widget",
					"Production Metrics",
					"Recent Activity",
					"Machine Status Table",
					"Alerts Panel",
				},
			},
		},
	}
}

// LoadAliasFile reads a YAML (or JSON) alias table. Sections missing from
// the file keep their defaults.
func LoadAliasFile(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	return ParseAliasTable(data)
}

// ParseAliasTable decodes YAML or JSON.
func ParseAliasTable(data []byte) (*AliasTable, error) {
	var t AliasTable
	if err := yaml.UnmarshalStrict(data, &t); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}
	def := DefaultAliasTable()
	if t.Codes == nil {
		t.Codes = def.Codes
	}
	if t.Modules == nil {
		t.Modules = def.Modules
	}
	if t.Hierarchies == nil {
		t.Hierarchies = def.Hierarchies
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate rejects empty keys and modules aliased onto themselves.
func (t *AliasTable) Validate() error {
	for code, implied := range t.Codes {
		if code == "" {
			return fmt.Errorf("alias table: empty code")
		}
		if slices.Contains(implied, "") {
			return fmt.Errorf("alias table: %s implies an empty code", code)
		}
	}
	for from, to := range t.Modules {
		if from == "" || to == "" || from == to {
			return fmt.Errorf("alias table: invalid module alias %q -> %q", from, to)
		}
	}
	return nil
}

// Expand returns held plus every code implied by it, transitively. The
// input is not modified.
func (t *AliasTable) Expand(held []string) map[string]struct{} {
	set := make(map[string]struct{}, len(held)*2)
	queue := make([]string, 0, len(held))
	for _, c := range held {
		if _, ok := set[c]; !ok {
			set[c] = struct{}{}
			queue = append(queue, c)
		}
	}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, implied := range t.Codes[c] {
			if _, ok := set[implied]; !ok {
				set[implied] = struct{}{}
				queue = append(queue, implied)
			}
		}
	}
	return set
}

// ResolveModule returns the tree module for key, following the module
// alias only when key itself is absent.
func (t *AliasTable) ResolveModule(tree Tree, key string) (Module, bool) {
	if m, ok := tree[key]; ok {
		return m, true
	}
	if fallback, ok := t.Modules[key]; ok {
		m, ok := tree[fallback]
		return m, ok
	}
	return Module{}, false
}
