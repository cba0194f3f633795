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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() Tree {
	return Tree{
		"production": {Name: "Production", Items: map[string]ItemPermissions{
			"Schedule":  {Full: true},
			"Machines":  {View: true, Export: true},
			"Breakdown": {},
		}},
		"user_attendance": {Name: "User Attendance", Items: map[string]ItemPermissions{
			"Overview": {View: true},
		}},
		"web_user_attendance": {Name: "Web Attendance", Items: map[string]ItemPermissions{
			"Calendar": {Edit: true},
		}},
	}
}

func TestCheck(t *testing.T) {
	g := NewGranular(nil)
	tree := sampleTree()

	assert.True(t, g.Check(tree, "production", "Schedule", ActionDelete), "full grants everything")
	assert.True(t, g.Check(tree, "production", "Machines", ActionView))
	assert.False(t, g.Check(tree, "production", "Machines", ActionEdit))
	assert.False(t, g.Check(tree, "production", "Breakdown", ActionView))
	assert.False(t, g.Check(tree, "production", "Missing", ActionView))
	assert.False(t, g.Check(tree, "inventory", "Stock", ActionView))
	assert.False(t, g.Check(nil, "production", "Schedule", ActionView))
}

func TestModuleAliasOnlyWhenAbsent(t *testing.T) {
	g := NewGranular(nil)
	tree := sampleTree()

	assert.True(t, g.Check(tree, "mobile_user_attendance", "Overview", ActionView), "falls back to user_attendance")
	assert.True(t, g.Check(tree, "web_user_attendance", "Calendar", ActionEdit))
	assert.False(t, g.Check(tree, "web_user_attendance", "Overview", ActionView), "own key present, no fallback")
}

func TestCanHelpers(t *testing.T) {
	g := NewGranular(nil)
	tree := sampleTree()

	assert.True(t, g.CanView(tree, "production", "Machines"))
	assert.True(t, g.CanExport(tree, "production", "Machines"))
	assert.False(t, g.CanEdit(tree, "production", "Machines"))
	assert.False(t, g.CanView(tree, "production", "Breakdown"))
	for _, can := range []func(Tree, string, string) bool{g.CanView, g.CanCreate, g.CanEdit, g.CanDelete, g.CanApprove, g.CanExport} {
		assert.True(t, can(tree, "production", "Schedule"))
		assert.False(t, can(tree, "production", "Missing"))
	}
}

func TestHasAnyAccess(t *testing.T) {
	g := NewGranular(nil)
	tree := sampleTree()
	assert.True(t, g.HasAnyAccess(tree, "production", "Machines"))
	assert.True(t, g.HasAnyAccess(tree, "production", "Schedule"))
	assert.False(t, g.HasAnyAccess(tree, "production", "Breakdown"))
	assert.False(t, g.HasAnyAccess(tree, "nope", "Breakdown"))
}

func TestEnabledActions(t *testing.T) {
	g := NewGranular(nil)
	tree := sampleTree()

	assert.Equal(t, []Action{ActionFull, ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApprove, ActionExport},
		g.EnabledActions(tree, "production", "Schedule"))
	assert.Equal(t, []Action{ActionView, ActionExport}, g.EnabledActions(tree, "production", "Machines"))
	assert.Empty(t, g.EnabledActions(tree, "production", "Breakdown"))
	assert.Empty(t, g.EnabledActions(tree, "production", "Missing"))
}

func TestCheckMultiple(t *testing.T) {
	g := NewGranular(nil)
	out := g.CheckMultiple(sampleTree(), []GranularCheck{
		{Module: "production", Item: "Machines", Action: "view"},
		{Module: "production", Item: "Machines", Action: "edit"},
		{Module: "production", Item: "Schedule", Action: "bogus"},
	})
	assert.Equal(t, map[string]bool{
		"production.Machines.view":  true,
		"production.Machines.edit":  false,
		"production.Schedule.bogus": false,
	}, out)
}

func TestMainDashboardHierarchy(t *testing.T) {
	g := NewGranular(nil)

	parentOnly := Tree{MainDashboardModule: {Items: map[string]ItemPermissions{
		"Dashboard": {View: true},
	}}}
	assert.True(t, g.CheckMainDashboard(parentOnly, "", ActionView))
	assert.True(t, g.CheckMainDashboard(parentOnly, "Alerts Panel", ActionView), "parent grants child")
	assert.False(t, g.CheckMainDashboard(parentOnly, "Alerts Panel", ActionEdit))

	childOnly := Tree{MainDashboardModule: {Items: map[string]ItemPermissions{
		"Recent Activity": {Full: true},
	}}}
	assert.True(t, g.CheckMainDashboard(childOnly, "Dashboard", ActionExport), "child grants parent")
	assert.True(t, g.CheckMainDashboard(childOnly, "Recent Activity", ActionView))
	assert.False(t, g.CheckMainDashboard(childOnly, "Overview Widget", ActionView), "siblings do not grant each other")
	assert.True(t, g.HasAnyMainDashboard(childOnly, ActionView))

	assert.False(t, g.CheckMainDashboard(Tree{}, "Dashboard", ActionView))
	assert.False(t, g.HasAnyMainDashboard(Tree{}, ActionView))
}

func TestSummary(t *testing.T) {
	g := NewGranular(nil)
	assert.Equal(t, map[string]map[string][]Action{
		"production": {
			"Schedule": Actions(),
			"Machines": {ActionView, ActionExport},
		},
		"user_attendance":     {"Overview": {ActionView}},
		"web_user_attendance": {"Calendar": {ActionEdit}},
	}, g.Summary(sampleTree()))
	assert.Empty(t, g.Summary(Tree{}))
}

func TestDashboardItems(t *testing.T) {
	g := NewGranular(nil)

	parentOnly := Tree{MainDashboardModule: {Items: map[string]ItemPermissions{
		"Dashboard": {View: true},
	}}}
	assert.Equal(t, []string{"Dashboard", "Overview Widget", "Production Metrics", "Recent Activity", "Machine Status Table", "Alerts Panel"},
		g.DashboardItems(parentOnly))

	childOnly := Tree{MainDashboardModule: {Items: map[string]ItemPermissions{
		"Recent Activity": {Edit: true, View: true},
	}}}
	assert.Equal(t, []string{"Dashboard", "Recent Activity"}, g.DashboardItems(childOnly))
	assert.Empty(t, g.DashboardItems(Tree{}))
}

func TestParseTree(t *testing.T) {
	tree, err := ParseTree([]byte(`{
		"production": {"name": "Production", "items": {
			"Schedule": {"full": true, "view": false, "color": "red"},
			"Machines": {"view": true, "parent": "Schedule", "isSubItem": true}
		}}
	}`))
	require.NoError(t, err)
	assert.True(t, tree["production"].Items["Schedule"].Full)
	assert.Equal(t, "Schedule", tree["production"].Items["Machines"].Parent)
	assert.True(t, tree["production"].Items["Machines"].IsSubItem)

	_, err = ParseTree([]byte(`{"production": {"items": {"Schedule": {"view": "yes"}}}}`))
	assert.Error(t, err)

	empty, err := ParseTree(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseTree([]byte(`{"": {"items": {}}}`))
	assert.Error(t, err)
}

func TestTreeMarshalRoundTrip(t *testing.T) {
	data, err := sampleTree().Marshal()
	require.NoError(t, err)
	back, err := ParseTree(data)
	require.NoError(t, err)
	assert.Equal(t, sampleTree(), back)
}

func TestTreeCodes(t *testing.T) {
	tree := Tree{
		"production": {Items: map[string]ItemPermissions{
			"Machine Status": {View: true, Export: true},
			"Schedule":       {Full: true},
		}},
	}
	codes := tree.Codes()
	assert.Contains(t, codes, "production.machine_status.view")
	assert.Contains(t, codes, "production.machine_status.export")
	assert.NotContains(t, codes, "production.machine_status.edit")
	assert.Contains(t, codes, "production.schedule.approve")
	assert.Len(t, codes, 8)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "call_logs_gps", Slug("Call Logs GPS"))
	assert.Equal(t, "fir_dashboard", Slug("FIR - Dashboard"))
	assert.Equal(t, "a1", Slug("  a1  "))
}

func TestAliasExpandTransitive(t *testing.T) {
	a := &AliasTable{Codes: map[string][]string{
		"admin.all":    {"manage_users", "roles.manage"},
		"manage_users": {"users.view", "users.edit"},
		"roles.manage": {"roles.view"},
		"loop.a":       {"loop.b"},
		"loop.b":       {"loop.a"},
	}}
	set := a.Expand([]string{"admin.all"})
	for _, c := range []string{"admin.all", "manage_users", "roles.manage", "users.view", "users.edit", "roles.view"} {
		assert.Contains(t, set, c)
	}
	assert.Len(t, set, 6)
	assert.Len(t, a.Expand([]string{"loop.a"}), 2, "cycles terminate")
	assert.Empty(t, a.Expand(nil))
}

func TestLoadAliasFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
codes:
  manage_users: [users.view, users.edit, users.delete]
`), 0o600))

	a, err := LoadAliasFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"users.view", "users.edit", "users.delete"}, a.Codes["manage_users"])
	assert.Equal(t, "user_attendance", a.Modules["web_user_attendance"], "missing sections keep defaults")
	assert.Contains(t, a.Hierarchies, MainDashboardModule)

	require.NoError(t, os.WriteFile(path, []byte("modules:\n  a: a\n"), 0o600))
	_, err = LoadAliasFile(path)
	assert.Error(t, err)

	_, err = LoadAliasFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
