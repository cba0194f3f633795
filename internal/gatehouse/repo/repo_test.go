package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (database.IDatabase, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return database.Wrap(db), mock
}

func TestRoleStoreUserRoleIds(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT `role_id` FROM `user_roles` WHERE user_id = ?").
		WillReturnRows(sqlmock.NewRows([]string{"role_id"}).AddRow("r1").AddRow("r2"))

	ids, err := NewRoleStore(db).UserRoleIds(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleStoreRoleIdByName(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT `id` FROM `roles` WHERE name = ?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r1"))
	mock.ExpectQuery("SELECT `id` FROM `roles` WHERE name = ?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT `id` FROM `roles` WHERE name = ?").
		WillReturnError(errors.New("connection reset"))

	s := NewRoleStore(db)
	id, err := s.RoleIdByName(context.Background(), "Admin")
	require.NoError(t, err)
	assert.Equal(t, "r1", id)

	_, err = s.RoleIdByName(context.Background(), "Ghost")
	assert.ErrorIs(t, err, rbac.ErrNoRole)

	_, err = s.RoleIdByName(context.Background(), "Admin")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, rbac.ErrNoRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleStorePermissionCodes(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT DISTINCT .*permissions.*code.* FROM `role_permissions` JOIN permissions").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("users.view").AddRow("manage_users"))

	s := NewRoleStore(db)
	codes, err := s.PermissionCodes(context.Background(), []string{"r1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"users.view", "manage_users"}, codes)

	codes, err = s.PermissionCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, codes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleStoreRoleTree(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT `id`,`permissions_json` FROM `roles` WHERE name = ?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "permissions_json"}).
			AddRow("r1", `{"reports":{"name":"Reports","items":{"Daily":{"view":true}}}}`))
	mock.ExpectQuery("SELECT `id`,`permissions_json` FROM `roles` WHERE name = ?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "permissions_json"}))

	s := NewRoleStore(db)
	tree, err := s.RoleTree(context.Background(), "Manager")
	require.NoError(t, err)
	assert.True(t, tree["reports"].Items["Daily"].View)

	_, err = s.RoleTree(context.Background(), "Ghost")
	assert.ErrorIs(t, err, rbac.ErrNoRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleStoreProfile(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `profiles` WHERE id = ?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "role_badge"}).
			AddRow("u1", "a@example.com", "Operator", "super_admin"))
	mock.ExpectQuery("SELECT \\* FROM `profiles` WHERE id = ?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	s := NewRoleStore(db)
	u, err := s.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, rbac.IsSuperAdmin(u))

	u, err = s.Profile(context.Background(), "u2")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleUpdateReplacesInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `roles` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `role_permissions` WHERE role_id = ?").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO `role_permissions`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := NewRoleRepo(db).Update(context.Background(), "r1", map[string]any{"description": "ops"}, []string{"p1", "p2"}, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleUpdateRollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `role_permissions` WHERE role_id = ?").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO `role_permissions`").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := NewRoleRepo(db).Update(context.Background(), "r1", nil, []string{"p1"}, true)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleUpdateWithoutReplace(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `roles` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewRoleRepo(db).Update(context.Background(), "r1", map[string]any{"name": "Ops"}, nil, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleCreate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `roles`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `role_permissions`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewRoleRepo(db).Create(context.Background(), &model.Role{Id: "r1", Name: "Ops", PermissionsJSON: "{}"}, []string{"p1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleDeleteNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `role_permissions`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `roles`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewRoleRepo(db).Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleCountUsers(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `profiles` WHERE role = ?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `user_roles` WHERE role_id = ?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := NewRoleRepo(db).CountUsers(context.Background(), &model.Role{Id: "r1", Name: "Ops"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRolePermissionCodes(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT role_permissions.role_id AS role_id, permissions.code AS code FROM `role_permissions` JOIN permissions").
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "code"}).
			AddRow("r1", "roles.view").AddRow("r1", "users.view").AddRow("r2", "manage_users"))

	out, err := NewRoleRepo(db).PermissionCodes(context.Background(), []string{"r1", "r2"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"r1": {"roles.view", "users.view"}, "r2": {"manage_users"}}, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteRemovesAssignments(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `user_roles` WHERE user_id = ?").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `profiles` WHERE id = ?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewUserRepo(db).Delete(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRoles(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT user_roles.user_id AS user_id, roles.id AS role_id, roles.name AS name FROM `user_roles` JOIN roles").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role_id", "name"}).AddRow("u1", "r1", "Admin"))

	out, err := NewUserRepo(db).Roles(context.Background(), []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, []model.RoleRef{{Id: "r1", Name: "Admin"}}, out["u1"])
	assert.Empty(t, out["u2"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionByCodes(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `permissions` WHERE code IN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}).AddRow("p1", "users.view"))

	perms, err := NewPermissionRepo(db).ByCodes(context.Background(), []string{"users.view", "bogus"})
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "p1", perms[0].Id)

	perms, err = NewPermissionRepo(db).ByCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, perms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionSeed(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO `permissions`").WillReturnResult(sqlmock.NewResult(0, 2))

	err := NewPermissionRepo(db).Seed(context.Background(), model.DefaultPermissions[:2])
	require.NoError(t, err)
	assert.Empty(t, model.DefaultPermissions[0].Id, "seed does not mutate the catalogue")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	mock.ExpectExec("INSERT INTO `audit_logs`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `audit_logs` WHERE action = ?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT \\* FROM `audit_logs` WHERE action = \\? ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "action", "target_id", "meta_json", "created_at"}).
			AddRow("01J", "admin", "role_created", "r1", "{}", now))
	mock.ExpectExec("DELETE FROM `audit_logs` WHERE created_at < ?").WillReturnResult(sqlmock.NewResult(0, 4))

	r := NewAuditRepo(db)
	target := "r1"
	require.NoError(t, r.Insert(context.Background(), &audit.Record{Id: "01J", ActorId: "admin", Action: audit.ActionRoleCreated, TargetId: &target, MetaJSON: "{}", CreatedAt: now}))

	recs, total, err := r.List(context.Background(), audit.Filter{Action: audit.ActionRoleCreated, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, recs, 1)
	assert.Equal(t, "r1", *recs[0].TargetId)
	assert.Equal(t, "{}", recs[0].MetaJSON)

	n, err := r.DeleteBefore(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
