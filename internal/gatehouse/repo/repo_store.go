package repo

import (
	"context"
	"errors"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/pkg/database"
	"gorm.io/gorm"
)

// RoleStore is the read path the evaluators and the guard use.
type RoleStore struct {
	database.IDatabase
}

var _ rbac.RoleStore = (*RoleStore)(nil)

func NewRoleStore(db database.IDatabase) *RoleStore {
	return &RoleStore{
		IDatabase: db,
	}
}

func (s *RoleStore) UserRoleIds(ctx context.Context, userId string) ([]string, error) {
	var ids []string
	err := s.Database().WithContext(ctx).Model(&model.UserRole{}).
		Where("user_id = ?", userId).Pluck("role_id", &ids).Error
	return ids, err
}

func (s *RoleStore) RoleIdByName(ctx context.Context, name string) (string, error) {
	var role model.Role
	err := s.Database().WithContext(ctx).Select("id").Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", rbac.ErrNoRole
	}
	if err != nil {
		return "", err
	}
	return role.Id, nil
}

func (s *RoleStore) PermissionCodes(ctx context.Context, roleIds []string) ([]string, error) {
	if len(roleIds) == 0 {
		return []string{}, nil
	}
	var codes []string
	err := s.Database().WithContext(ctx).
		Table("role_permissions").
		Distinct("permissions.code").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id IN ?", roleIds).
		Pluck("permissions.code", &codes).Error
	return codes, err
}

func (s *RoleStore) RoleTree(ctx context.Context, roleName string) (rbac.Tree, error) {
	var role model.Role
	err := s.Database().WithContext(ctx).Select("id", "permissions_json").Where("name = ?", roleName).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, rbac.ErrNoRole
	}
	if err != nil {
		return nil, err
	}
	return rbac.ParseTree([]byte(role.PermissionsJSON))
}

// Profile returns nil, nil when the user has no profile row.
func (s *RoleStore) Profile(ctx context.Context, userId string) (*rbac.User, error) {
	var p model.Profile
	err := s.Database().WithContext(ctx).Where("id = ?", userId).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.ToUser(), nil
}
