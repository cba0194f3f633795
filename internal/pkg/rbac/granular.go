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
	"sort"
	"strings"
	"unicode"

	"github.com/bytedance/sonic"
)

type Action string

const (
	ActionFull    Action = "full"
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionExport  Action = "export"
)

// actionOrder is the fixed order EnabledActions reports in.
var actionOrder = []Action{ActionFull, ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApprove, ActionExport}

// ParseAction returns the action for s, or false when s is not an action.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range actionOrder {
		if a == known {
			return a, true
		}
	}
	return "", false
}

// ItemPermissions are the flags of one item inside a module.
type ItemPermissions struct {
	Full          bool   `json:"full"`
	View          bool   `json:"view"`
	Create        bool   `json:"create"`
	Edit          bool   `json:"edit"`
	Delete        bool   `json:"delete"`
	Approve       bool   `json:"approve"`
	Export        bool   `json:"export"`
	Parent        string `json:"parent,omitempty"`
	IsSubItem     bool   `json:"isSubItem,omitempty"`
	IsCollapsible bool   `json:"isCollapsible,omitempty"`
}

// Flag returns the raw flag for a, without the full shortcut.
func (p ItemPermissions) Flag(a Action) bool {
	switch a {
	case ActionFull:
		return p.Full
	case ActionView:
		return p.View
	case ActionCreate:
		return p.Create
	case ActionEdit:
		return p.Edit
	case ActionDelete:
		return p.Delete
	case ActionApprove:
		return p.Approve
	case ActionExport:
		return p.Export
	}
	return false
}

// Has is Flag with full granting everything.
func (p ItemPermissions) Has(a Action) bool {
	return p.Full || p.Flag(a)
}

type Module struct {
	Name  string                     `json:"name"`
	Items map[string]ItemPermissions `json:"items"`
}

// Tree is the permissions_json document of a role, keyed by module.
type Tree map[string]Module

// ParseTree decodes permissions_json. An empty document is an empty tree.
func ParseTree(data []byte) (Tree, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Tree{}, nil
	}
	var raw map[string]struct {
		Name  string                    `json:"name"`
		Items map[string]map[string]any `json:"items"`
	}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode permission tree: %w", err)
	}
	tree := make(Tree, len(raw))
	for key, m := range raw {
		mod := Module{Name: m.Name, Items: make(map[string]ItemPermissions, len(m.Items))}
		for item, fields := range m.Items {
			p, err := decodeItem(fields)
			if err != nil {
				return nil, fmt.Errorf("module %s item %s: %w", key, item, err)
			}
			mod.Items[item] = p
		}
		tree[key] = mod
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	return tree, nil
}

// decodeItem maps the loose JSON item onto ItemPermissions. Action flags
// must be booleans; keys that are neither actions nor item metadata are
// ignored.
func decodeItem(fields map[string]any) (ItemPermissions, error) {
	var p ItemPermissions
	for k, v := range fields {
		switch k {
		case "parent":
			s, _ := v.(string)
			p.Parent = s
			continue
		case "isSubItem":
			b, _ := v.(bool)
			p.IsSubItem = b
			continue
		case "isCollapsible":
			b, _ := v.(bool)
			p.IsCollapsible = b
			continue
		}
		a, ok := ParseAction(k)
		if !ok {
			continue
		}
		if v == nil {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return p, fmt.Errorf("action %s is not a boolean", k)
		}
		p.set(a, b)
	}
	return p, nil
}

func (p *ItemPermissions) set(a Action, v bool) {
	switch a {
	case ActionFull:
		p.Full = v
	case ActionView:
		p.View = v
	case ActionCreate:
		p.Create = v
	case ActionEdit:
		p.Edit = v
	case ActionDelete:
		p.Delete = v
	case ActionApprove:
		p.Approve = v
	case ActionExport:
		p.Export = v
	}
}

// UnmarshalJSON applies the ParseTree rules to request bodies.
func (t *Tree) UnmarshalJSON(data []byte) error {
	parsed, err := ParseTree(data)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Marshal encodes the tree for storage.
func (t Tree) Marshal() ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return sonic.Marshal(t)
}

// Validate rejects empty module and item keys.
func (t Tree) Validate() error {
	for key, m := range t {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("permission tree: empty module key")
		}
		for item := range m.Items {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("permission tree: empty item key in module %s", key)
			}
		}
	}
	return nil
}

// Granular answers questions about a Tree. It carries the alias table so
// module fallbacks and hierarchies stay data-driven.
type Granular struct {
	aliases *AliasTable
}

func NewGranular(aliases *AliasTable) *Granular {
	if aliases == nil {
		aliases = DefaultAliasTable()
	}
	return &Granular{aliases: aliases}
}

func (g *Granular) item(tree Tree, module, item string) (ItemPermissions, bool) {
	m, ok := g.aliases.ResolveModule(tree, module)
	if !ok {
		return ItemPermissions{}, false
	}
	p, ok := m.Items[item]
	return p, ok
}

// Check reports whether action is granted on module/item. Hierarchical
// modules also consult parent and child items.
func (g *Granular) Check(tree Tree, module, item string, action Action) bool {
	if _, ok := g.aliases.Hierarchies[module]; ok {
		return g.checkHierarchy(tree, module, item, action)
	}
	p, ok := g.item(tree, module, item)
	if !ok {
		return false
	}
	return p.Has(action)
}

func (g *Granular) checkHierarchy(tree Tree, module, item string, action Action) bool {
	m, ok := g.aliases.ResolveModule(tree, module)
	if !ok || len(m.Items) == 0 {
		return false
	}
	if p, ok := m.Items[item]; ok && p.Has(action) {
		return true
	}
	parents := g.aliases.Hierarchies[module]
	if children, isParent := parents[item]; isParent {
		for _, child := range children {
			if p, ok := m.Items[child]; ok && p.Has(action) {
				return true
			}
		}
		return false
	}
	for parent, children := range parents {
		for _, child := range children {
			if child != item {
				continue
			}
			if p, ok := m.Items[parent]; ok && p.Has(action) {
				return true
			}
		}
	}
	return false
}

// CheckMainDashboard is Check against the main dashboard module. An empty
// item means the dashboard itself.
func (g *Granular) CheckMainDashboard(tree Tree, item string, action Action) bool {
	if item == "" {
		item = MainDashboardParent
	}
	return g.Check(tree, MainDashboardModule, item, action)
}

// HasAnyMainDashboard reports whether any dashboard item grants action.
func (g *Granular) HasAnyMainDashboard(tree Tree, action Action) bool {
	if g.CheckMainDashboard(tree, MainDashboardParent, action) {
		return true
	}
	for _, child := range g.aliases.Hierarchies[MainDashboardModule][MainDashboardParent] {
		if g.CheckMainDashboard(tree, child, action) {
			return true
		}
	}
	return false
}

const (
	MainDashboardModule = "main_dashboard"
	MainDashboardParent = "Dashboard"
)

func (g *Granular) can(tree Tree, module, item string, action Action) bool {
	return g.Check(tree, module, item, action) || g.Check(tree, module, item, ActionFull)
}

func (g *Granular) CanView(tree Tree, module, item string) bool {
	return g.can(tree, module, item, ActionView)
}

func (g *Granular) CanCreate(tree Tree, module, item string) bool {
	return g.can(tree, module, item, ActionCreate)
}

func (g *Granular) CanEdit(tree Tree, module, item string) bool {
	return g.can(tree, module, item, ActionEdit)
}

func (g *Granular) CanDelete(tree Tree, module, item string) bool {
	return g.can(tree, module, item, ActionDelete)
}

func (g *Granular) CanApprove(tree Tree, module, item string) bool {
	return g.can(tree, module, item, ActionApprove)
}

func (g *Granular) CanExport(tree Tree, module, item string) bool {
	return g.can(tree, module, item, ActionExport)
}

// HasAnyAccess reports whether any flag is set on module/item.
func (g *Granular) HasAnyAccess(tree Tree, module, item string) bool {
	p, ok := g.item(tree, module, item)
	if !ok {
		return false
	}
	for _, a := range actionOrder {
		if p.Flag(a) {
			return true
		}
	}
	return false
}

// EnabledActions lists granted actions in fixed order. Full expands to
// every action.
func (g *Granular) EnabledActions(tree Tree, module, item string) []Action {
	p, ok := g.item(tree, module, item)
	if !ok {
		return []Action{}
	}
	if p.Full {
		return Actions()
	}
	out := make([]Action, 0, len(actionOrder))
	for _, a := range actionOrder {
		if p.Flag(a) {
			out = append(out, a)
		}
	}
	return out
}

// Actions returns every action in report order.
func Actions() []Action {
	out := make([]Action, len(actionOrder))
	copy(out, actionOrder)
	return out
}

// Summary maps module -> item -> enabled actions for every item that
// grants anything.
func (g *Granular) Summary(tree Tree) map[string]map[string][]Action {
	out := make(map[string]map[string][]Action, len(tree))
	for key, m := range tree {
		items := make(map[string][]Action)
		for item := range m.Items {
			if g.HasAnyAccess(tree, key, item) {
				items[item] = g.EnabledActions(tree, key, item)
			}
		}
		if len(items) > 0 {
			out[key] = items
		}
	}
	return out
}

// DashboardItems returns the main dashboard items tree grants view on,
// parent first.
func (g *Granular) DashboardItems(tree Tree) []string {
	items := append([]string{MainDashboardParent}, g.aliases.Hierarchies[MainDashboardModule][MainDashboardParent]...)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if g.CheckMainDashboard(tree, item, ActionView) {
			out = append(out, item)
		}
	}
	return out
}

// GranularCheck is one entry of a CheckMultiple batch.
type GranularCheck struct {
	Module string `json:"module" validate:"required"`
	Item   string `json:"item" validate:"required"`
	Action string `json:"action" validate:"required"`
}

func (c GranularCheck) Key() string {
	return c.Module + "." + c.Item + "." + c.Action
}

// CheckMultiple evaluates every check. Unknown actions are denied.
func (g *Granular) CheckMultiple(tree Tree, checks []GranularCheck) map[string]bool {
	out := make(map[string]bool, len(checks))
	for _, c := range checks {
		a, ok := ParseAction(c.Action)
		out[c.Key()] = ok && g.Check(tree, c.Module, c.Item, a)
	}
	return out
}

// Codes derives flat "module.item.action" codes for every granted action.
// Items are slugged; full expands to every action. The result is sorted.
func (t Tree) Codes() []string {
	seen := make(map[string]struct{})
	for key, m := range t {
		for item, p := range m.Items {
			slug := Slug(item)
			for _, a := range actionOrder {
				if a == ActionFull {
					continue
				}
				if p.Has(a) {
					seen[key+"."+slug+"."+string(a)] = struct{}{}
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Slug lowercases s and collapses every run of non-alphanumerics to "_".
func Slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
