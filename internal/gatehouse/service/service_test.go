package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memDB backs the fake repositories.
type memDB struct {
	roles     map[string]*model.Role
	rolePerms map[string][]string // role id -> permission ids
	perms     []model.Permission
	profiles  map[string]*model.Profile
	userRoles map[string][]string // user id -> role ids

	replaced int
}

func newMemDB() *memDB {
	db := &memDB{
		roles:     map[string]*model.Role{},
		rolePerms: map[string][]string{},
		profiles:  map[string]*model.Profile{},
		userRoles: map[string][]string{},
	}
	for i, code := range []string{"users.view", "users.edit", "manage_users", "roles.view", "roles.manage", "reports.daily.view"} {
		db.perms = append(db.perms, model.Permission{Id: string(rune('a' + i)), Code: code})
	}
	return db
}

func (db *memDB) code(id string) string {
	for _, p := range db.perms {
		if p.Id == id {
			return p.Code
		}
	}
	return ""
}

type fakeRoles struct{ db *memDB }

func (f fakeRoles) List(context.Context) ([]model.Role, error) {
	var out []model.Role
	for _, r := range f.db.roles {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b model.Role) int {
		if a.Name < b.Name {
			return -1
		}
		return 1
	})
	return out, nil
}

func (f fakeRoles) Get(_ context.Context, id string) (*model.Role, error) {
	r, ok := f.db.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f fakeRoles) GetByName(_ context.Context, name string) (*model.Role, error) {
	for _, r := range f.db.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeRoles) NameTaken(_ context.Context, name, excludeId string) (bool, error) {
	for _, r := range f.db.roles {
		if r.Name == name && r.Id != excludeId {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeRoles) Create(_ context.Context, role *model.Role, ids []string) error {
	cp := *role
	f.db.roles[role.Id] = &cp
	f.db.rolePerms[role.Id] = slices.Clone(ids)
	return nil
}

func (f fakeRoles) Update(_ context.Context, id string, updates map[string]any, ids []string, replace bool) error {
	r, ok := f.db.roles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["name"].(string); ok {
		r.Name = v
	}
	if v, ok := updates["description"].(string); ok {
		r.Description = v
	}
	if v, ok := updates["permissions_json"].(string); ok {
		r.PermissionsJSON = v
	}
	if replace {
		f.db.replaced++
		f.db.rolePerms[id] = slices.Clone(ids)
	}
	return nil
}

func (f fakeRoles) Delete(_ context.Context, id string) error {
	if _, ok := f.db.roles[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.db.roles, id)
	delete(f.db.rolePerms, id)
	return nil
}

func (f fakeRoles) PermissionCodes(_ context.Context, ids []string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, id := range ids {
		for _, pid := range f.db.rolePerms[id] {
			out[id] = append(out[id], f.db.code(pid))
		}
		slices.Sort(out[id])
	}
	return out, nil
}

func (f fakeRoles) CountUsers(_ context.Context, role *model.Role) (int64, error) {
	var n int64
	for uid, p := range f.db.profiles {
		if p.Role == role.Name || slices.Contains(f.db.userRoles[uid], role.Id) {
			n++
		}
	}
	return n, nil
}

func (f fakeRoles) UserIds(_ context.Context, roleId string) ([]string, error) {
	var out []string
	for uid, ids := range f.db.userRoles {
		if slices.Contains(ids, roleId) {
			out = append(out, uid)
		}
	}
	return out, nil
}

type fakePerms struct{ db *memDB }

func (f fakePerms) List(context.Context) ([]model.Permission, error) {
	return slices.Clone(f.db.perms), nil
}

func (f fakePerms) ByCodes(_ context.Context, codes []string) ([]model.Permission, error) {
	var out []model.Permission
	for _, p := range f.db.perms {
		if slices.Contains(codes, p.Code) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakePerms) IdsOf(_ context.Context, roleId string) ([]string, error) {
	return slices.Clone(f.db.rolePerms[roleId]), nil
}

func (f fakePerms) Seed(context.Context, []model.Permission) error { return nil }

type fakeUsers struct{ db *memDB }

func (f fakeUsers) Get(_ context.Context, id string) (*model.Profile, error) {
	p, ok := f.db.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakeUsers) List(_ context.Context, page model.Page) ([]model.Profile, int64, error) {
	var out []model.Profile
	for _, p := range f.db.profiles {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f fakeUsers) Create(_ context.Context, p *model.Profile, roleIds []string) error {
	cp := *p
	f.db.profiles[p.Id] = &cp
	f.db.userRoles[p.Id] = slices.Clone(roleIds)
	return nil
}

func (f fakeUsers) Update(_ context.Context, id string, updates map[string]any, roleIds []string, replace bool) error {
	p, ok := f.db.profiles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["role"].(string); ok {
		p.Role = v
	}
	if v, ok := updates["role_badge"].(string); ok {
		p.RoleBadge = v
	}
	if v, ok := updates["full_name"].(string); ok {
		p.FullName = v
	}
	if replace {
		f.db.userRoles[id] = slices.Clone(roleIds)
	}
	return nil
}

func (f fakeUsers) Delete(_ context.Context, id string) error {
	if _, ok := f.db.profiles[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.db.profiles, id)
	delete(f.db.userRoles, id)
	return nil
}

func (f fakeUsers) Roles(_ context.Context, ids []string) (map[string][]model.RoleRef, error) {
	out := map[string][]model.RoleRef{}
	for _, uid := range ids {
		for _, rid := range f.db.userRoles[uid] {
			if r, ok := f.db.roles[rid]; ok {
				out[uid] = append(out[uid], model.RoleRef{Id: r.Id, Name: r.Name})
			}
		}
	}
	return out, nil
}

// spySessions records invalidations.
type spySessions struct {
	session.Cache
	mu    sync.Mutex
	users []string
	roles []string
}

func (s *spySessions) InvalidateUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, id)
	return nil
}

func (s *spySessions) InvalidateRole(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append(s.roles, name)
	return nil
}

type spyRecorder struct {
	entries []audit.Entry
}

func (r *spyRecorder) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

func (r *spyRecorder) actions() []audit.Action {
	var out []audit.Action
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type env struct {
	db       *memDB
	roles    *RoleService
	users    *UserService
	sessions *spySessions
	audit    *spyRecorder
}

var admin = &rbac.User{Id: "admin", Role: rbac.RoleAdmin}

func newEnv() *env {
	db := newMemDB()
	sessions := &spySessions{}
	rec := &spyRecorder{}
	return &env{
		db:       db,
		roles:    NewRoleService(fakeRoles{db}, fakePerms{db}, sessions, rec),
		users:    NewUserService(fakeUsers{db}, fakeRoles{db}, sessions, rec),
		sessions: sessions,
		audit:    rec,
	}
}

func dailyTree() rbac.Tree {
	return rbac.Tree{"reports": {Items: map[string]rbac.ItemPermissions{"Daily": {View: true}}}}
}

func TestCreateRole(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	v, err := e.roles.Create(ctx, admin, &model.CreateRoleReq{
		Name:              "  Ops ",
		Permissions:       []string{"users.view", "nope.unknown", "users.view"},
		PermissionModules: dailyTree(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ops", v.Name)
	assert.Equal(t, []string{"reports.daily.view", "users.view"}, v.Permissions)
	assert.True(t, v.PermissionModules["reports"].Items["Daily"].View)
	assert.Equal(t, []audit.Action{audit.ActionRoleCreated}, e.audit.actions())
	assert.Equal(t, "admin", e.audit.entries[0].ActorId)

	got, err := e.roles.Get(ctx, v.Id)
	require.NoError(t, err)
	assert.Equal(t, v.Permissions, got.Permissions)

	_, err = e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "Ops"})
	assert.ErrorIs(t, err, ErrRoleNameTaken)

	_, err = e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateRoleSkipsUnchangedSet(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	v, err := e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "Ops", Permissions: []string{"users.view", "roles.view"}})
	require.NoError(t, err)

	same := []string{"roles.view", "users.view"}
	_, err = e.roles.Update(ctx, admin, &model.UpdateRoleReq{Id: v.Id, Permissions: &same})
	require.NoError(t, err)
	assert.Zero(t, e.db.replaced)
	assert.Len(t, e.audit.entries, 1, "no-op update is not audited")

	changed := []string{"users.view"}
	got, err := e.roles.Update(ctx, admin, &model.UpdateRoleReq{Id: v.Id, Permissions: &changed})
	require.NoError(t, err)
	assert.Equal(t, 1, e.db.replaced)
	assert.Equal(t, []string{"users.view"}, got.Permissions)
	assert.Equal(t, audit.ActionRoleUpdated, e.audit.entries[1].Action)
}

func TestUpdateRoleInvalidatesSessions(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	v, err := e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "Ops"})
	require.NoError(t, err)
	e.db.profiles["u1"] = &model.Profile{Id: "u1", Role: rbac.RoleEmployee}
	e.db.userRoles["u1"] = []string{v.Id}

	name := "Operations"
	got, err := e.roles.Update(ctx, admin, &model.UpdateRoleReq{Id: v.Id, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Operations", got.Name)
	assert.EqualValues(t, 1, got.UserCount)
	assert.ElementsMatch(t, []string{"Ops", "Operations"}, e.sessions.roles)
	assert.Equal(t, []string{"u1"}, e.sessions.users)
}

func TestUpdateRoleTreeResyncsCodes(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	v, err := e.roles.Create(ctx, admin, &model.CreateRoleReq{
		Name:              "Ops",
		Permissions:       []string{"users.view"},
		PermissionModules: dailyTree(),
	})
	require.NoError(t, err)

	empty := rbac.Tree{}
	got, err := e.roles.Update(ctx, admin, &model.UpdateRoleReq{Id: v.Id, PermissionModules: &empty})
	require.NoError(t, err)
	assert.Equal(t, []string{"users.view"}, got.Permissions, "tree codes follow the tree, flat codes stay")
}

func TestUpdateRoleErrors(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	_, err := e.roles.Update(ctx, admin, &model.UpdateRoleReq{Id: "missing"})
	assert.ErrorIs(t, err, ErrRoleNotFound)

	a, _ := e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "A"})
	_, _ = e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "B"})
	name := "B"
	_, err = e.roles.Update(ctx, admin, &model.UpdateRoleReq{Id: a.Id, Name: &name})
	assert.ErrorIs(t, err, ErrRoleNameTaken)
}

func TestDeleteRole(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	v, err := e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "Ops"})
	require.NoError(t, err)

	e.db.profiles["u1"] = &model.Profile{Id: "u1", Role: "Ops"}
	assert.ErrorIs(t, e.roles.Delete(ctx, admin, v.Id), ErrRoleInUse)

	delete(e.db.profiles, "u1")
	require.NoError(t, e.roles.Delete(ctx, admin, v.Id))
	assert.Contains(t, e.sessions.roles, "Ops")
	assert.Equal(t, audit.ActionRoleDeleted, e.audit.entries[len(e.audit.entries)-1].Action)

	assert.ErrorIs(t, e.roles.Delete(ctx, admin, v.Id), ErrRoleNotFound)
}

func TestCloneRole(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	src, err := e.roles.Create(ctx, admin, &model.CreateRoleReq{
		Name:              "Ops",
		Description:       "operators",
		Permissions:       []string{"users.view"},
		PermissionModules: dailyTree(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reports.daily.view", "users.view"}, src.Permissions)

	c1, err := e.roles.Clone(ctx, admin, src.Id, &model.CloneRoleReq{})
	require.NoError(t, err)
	assert.Equal(t, "Ops (Copy)", c1.Name)
	assert.Equal(t, "operators", c1.Description)
	assert.Equal(t, src.Permissions, c1.Permissions)
	assert.Equal(t, src.PermissionModules, c1.PermissionModules)

	c2, err := e.roles.Clone(ctx, admin, src.Id, &model.CloneRoleReq{})
	require.NoError(t, err)
	assert.Equal(t, "Ops (Copy 2)", c2.Name)

	named, err := e.roles.Clone(ctx, admin, src.Id, &model.CloneRoleReq{Name: "Night Ops"})
	require.NoError(t, err)
	assert.Equal(t, "Night Ops", named.Name)

	_, err = e.roles.Clone(ctx, admin, src.Id, &model.CloneRoleReq{Name: "Ops"})
	assert.ErrorIs(t, err, ErrRoleNameTaken)
	assert.Equal(t, audit.ActionRoleCloned, e.audit.entries[len(e.audit.entries)-1].Action)
}

func TestListRoles(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	_, _ = e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "B", Permissions: []string{"roles.view"}})
	_, _ = e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "A"})

	views, err := e.roles.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "A", views[0].Name)
	assert.Equal(t, []string{}, views[0].Permissions)
	assert.Equal(t, []string{"roles.view"}, views[1].Permissions)

	perms, err := e.roles.Permissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, 6)
}

func TestCreateUser(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	ops, _ := e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "Ops"})

	v, err := e.users.Create(ctx, admin, &model.CreateUserReq{Email: "a@example.com", Roles: []string{"Ops"}})
	require.NoError(t, err)
	assert.NotEmpty(t, v.Id)
	assert.Equal(t, rbac.RoleEmployee, v.Role)
	assert.Equal(t, rbac.RoleEmployee, v.RoleBadge)
	assert.Equal(t, rbac.RoleEmployee, v.EffectiveRole)
	assert.Equal(t, []model.RoleRef{{Id: ops.Id, Name: "Ops"}}, v.Roles)

	v, err = e.users.Create(ctx, admin, &model.CreateUserReq{Id: "u2", Email: "b@example.com", Role: "manager", Roles: []string{ops.Id}})
	require.NoError(t, err)
	assert.Equal(t, "Manager", v.RoleBadge)
	assert.Equal(t, "Ops", v.Roles[0].Name)

	_, err = e.users.Create(ctx, admin, &model.CreateUserReq{Id: "u2", Email: "b@example.com"})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = e.users.Create(ctx, admin, &model.CreateUserReq{Email: "c@example.com", Roles: []string{"Ghost"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, []audit.Action{audit.ActionRoleCreated, audit.ActionUserCreated, audit.ActionUserCreated}, e.audit.actions())
}

func TestUpdateUser(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	ops, _ := e.roles.Create(ctx, admin, &model.CreateRoleReq{Name: "Ops"})
	_, err := e.users.Create(ctx, admin, &model.CreateUserReq{Id: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	badge := "Super Admin"
	roles := []string{"Ops"}
	v, err := e.users.Update(ctx, admin, &model.UpdateUserReq{Id: "u1", RoleBadge: &badge, Roles: &roles})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleSuperAdmin, v.EffectiveRole)
	assert.Equal(t, ops.Id, v.Roles[0].Id)
	assert.Equal(t, []string{"u1"}, e.sessions.users)

	_, err = e.users.Update(ctx, admin, &model.UpdateUserReq{Id: "ghost", RoleBadge: &badge})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	_, err := e.users.Create(ctx, admin, &model.CreateUserReq{Id: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	err = e.users.Delete(ctx, &rbac.User{Id: "u1"}, "u1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, e.users.Delete(ctx, admin, "u1"))
	assert.Equal(t, []string{"u1"}, e.sessions.users)
	assert.ErrorIs(t, e.users.Delete(ctx, admin, "u1"), ErrUserNotFound)

	list, err := e.users.List(ctx, model.Page{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
	assert.Empty(t, list.Users)
}

type stubStore struct {
	codes   map[string][]string
	trees   map[string]rbac.Tree
	treeErr error
}

func (s stubStore) UserRoleIds(context.Context, string) ([]string, error) { return nil, nil }

func (s stubStore) RoleIdByName(_ context.Context, name string) (string, error) {
	if _, ok := s.codes[name]; !ok {
		return "", rbac.ErrNoRole
	}
	return name, nil
}

func (s stubStore) PermissionCodes(_ context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		out = append(out, s.codes[id]...)
	}
	return out, nil
}

func (s stubStore) RoleTree(_ context.Context, name string) (rbac.Tree, error) {
	if s.treeErr != nil {
		return nil, s.treeErr
	}
	t, ok := s.trees[name]
	if !ok {
		return nil, rbac.ErrNoRole
	}
	return t, nil
}

func newAuth(store rbac.RoleStore) *AuthService {
	flat := rbac.NewEvaluator(store, nil, 0)
	return NewAuthService(flat, rbac.NewPolicy(flat, store, nil))
}

func TestAuthMe(t *testing.T) {
	store := stubStore{
		codes: map[string][]string{"Manager": {"manage_users"}},
		trees: map[string]rbac.Tree{"Manager": dailyTree()},
	}
	as := newAuth(store)
	ctx := context.Background()

	me, err := as.Me(ctx, &rbac.User{Id: "m", Role: "Manager"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Manager", me.EffectiveRole)
	assert.Contains(t, me.Permissions, "users.view")
	assert.Contains(t, me.PermissionModules, "reports")
	assert.False(t, me.IsSuperAdmin)

	me, err = as.Me(ctx, &rbac.User{Id: "r", RoleBadge: "super admin"}, nil)
	require.NoError(t, err)
	assert.True(t, me.IsSuperAdmin)
	assert.Equal(t, []string{rbac.Wildcard}, me.Permissions)
}

func TestAuthCheck(t *testing.T) {
	store := stubStore{
		codes: map[string][]string{"Manager": {"manage_users"}},
		trees: map[string]rbac.Tree{"Manager": dailyTree()},
	}
	as := newAuth(store)
	ctx := context.Background()
	mgr := &rbac.User{Id: "m", Role: "Manager"}

	res, err := as.Check(ctx, mgr, nil, &model.CheckReq{Code: "users.edit"})
	require.NoError(t, err)
	assert.True(t, *res.Allowed)

	res, err = as.Check(ctx, mgr, []string{"roles.view"}, &model.CheckReq{Code: "users.edit"})
	require.NoError(t, err)
	assert.False(t, *res.Allowed, "held set wins over the store")

	res, err = as.Check(ctx, mgr, nil, &model.CheckReq{Module: "reports", Item: "Daily", Action: "view"})
	require.NoError(t, err)
	assert.True(t, *res.Allowed)

	checks := []rbac.GranularCheck{
		{Module: "reports", Item: "Daily", Action: "view"},
		{Module: "reports", Item: "Daily", Action: "delete"},
	}
	res, err = as.Check(ctx, mgr, nil, &model.CheckReq{Checks: checks})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"reports.Daily.view": true, "reports.Daily.delete": false}, res.Results)

	res, err = as.Check(ctx, &rbac.User{Id: "r", Role: "super_admin"}, nil, &model.CheckReq{Checks: checks})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"reports.Daily.view": true, "reports.Daily.delete": true}, res.Results)

	_, err = as.Check(ctx, mgr, nil, &model.CheckReq{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	failing := newAuth(stubStore{codes: store.codes, treeErr: errors.New("db down")})
	_, err = failing.Check(ctx, mgr, nil, &model.CheckReq{Module: "reports", Item: "Daily", Action: "view"})
	assert.Error(t, err)
}

func TestAuthMeEnabledActions(t *testing.T) {
	as := newAuth(stubStore{trees: map[string]rbac.Tree{"Manager": dailyTree()}})
	me, err := as.Me(context.Background(), &rbac.User{Id: "m", Role: "Manager"}, []string{})
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string][]rbac.Action{
		"reports": {"Daily": {rbac.ActionView}},
	}, me.EnabledActions)
}

func TestAuthAccess(t *testing.T) {
	tree := rbac.Tree{"reports": {Items: map[string]rbac.ItemPermissions{
		"Daily":  {View: true, Approve: true},
		"Weekly": {},
	}}}
	as := newAuth(stubStore{trees: map[string]rbac.Tree{"Manager": tree}})
	ctx := context.Background()
	mgr := &rbac.User{Id: "m", Role: "Manager"}

	v, err := as.Access(ctx, mgr, &model.AccessQuery{Module: "reports", Item: "Daily"})
	require.NoError(t, err)
	assert.True(t, v.HasAnyAccess)
	assert.Equal(t, []rbac.Action{rbac.ActionView, rbac.ActionApprove}, v.Actions)
	assert.True(t, v.CanView)
	assert.True(t, v.CanApprove)
	assert.False(t, v.CanEdit)

	v, err = as.Access(ctx, mgr, &model.AccessQuery{Module: "reports", Item: "Weekly"})
	require.NoError(t, err)
	assert.False(t, v.HasAnyAccess)
	assert.Empty(t, v.Actions)

	v, err = as.Access(ctx, &rbac.User{Id: "r", Role: "super_admin"}, &model.AccessQuery{Module: "x", Item: "y"})
	require.NoError(t, err)
	assert.Equal(t, rbac.Actions(), v.Actions)
	assert.True(t, v.CanExport)

	failing := newAuth(stubStore{treeErr: errors.New("db down")})
	_, err = failing.Access(ctx, mgr, &model.AccessQuery{Module: "reports", Item: "Daily"})
	assert.Error(t, err)
}

func TestAuthDashboard(t *testing.T) {
	tree := rbac.Tree{rbac.MainDashboardModule: {Items: map[string]rbac.ItemPermissions{
		"Alerts Panel": {View: true},
	}}}
	as := newAuth(stubStore{trees: map[string]rbac.Tree{"Manager": tree}})
	ctx := context.Background()

	v, err := as.Dashboard(ctx, &rbac.User{Id: "m", Role: "Manager"})
	require.NoError(t, err)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "Dashboard", v.Items[0].Item)
	assert.Equal(t, "Alerts Panel", v.Items[1].Item)
	assert.Equal(t, []rbac.Action{rbac.ActionView}, v.Items[1].Actions)

	v, err = as.Dashboard(ctx, &rbac.User{Id: "r", RoleBadge: "Super Admin"})
	require.NoError(t, err)
	assert.Len(t, v.Items, 6)
}

func TestSessionService(t *testing.T) {
	cache := session.NewLocal(time.Minute, 0)
	ss := NewSessionService(cache)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "t1", &session.Entry{User: &rbac.User{Id: "u1", Role: "Viewer"}}))
	require.NoError(t, cache.Set(ctx, "t2", &session.Entry{User: &rbac.User{Id: "u2", Role: "Viewer"}}))

	require.NoError(t, ss.InvalidateUser(ctx, admin, "u1"))
	_, ok := cache.Get(ctx, "t1")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "t2")
	assert.True(t, ok)

	assert.ErrorIs(t, ss.InvalidateUser(ctx, admin, " "), ErrInvalidInput)

	require.NoError(t, ss.Clear(ctx, admin))
	_, ok = cache.Get(ctx, "t2")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), ss.Stats(ctx).Hits)
}

type memReader struct {
	got audit.Filter
}

func (m *memReader) List(_ context.Context, f audit.Filter) ([]audit.Record, int64, error) {
	m.got = f
	return nil, 0, nil
}

func TestAuditList(t *testing.T) {
	r := &memReader{}
	as := NewAuditService(r)
	out, err := as.List(context.Background(), model.AuditQuery{Action: "role_created", Since: "2025-01-02T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, []audit.Record{}, out.Logs)
	assert.Equal(t, audit.ActionRoleCreated, r.got.Action)
	assert.Equal(t, 2025, r.got.Since.Year())

	_, err = as.List(context.Background(), model.AuditQuery{Since: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
