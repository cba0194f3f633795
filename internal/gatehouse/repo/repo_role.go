package repo

import (
	"context"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/pkg/database"
	"gorm.io/gorm"
)

type IRoleRepository interface {
	List(ctx context.Context) ([]model.Role, error)
	Get(ctx context.Context, id string) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	NameTaken(ctx context.Context, name, excludeId string) (bool, error)
	Create(ctx context.Context, role *model.Role, permissionIds []string) error
	Update(ctx context.Context, id string, updates map[string]any, permissionIds []string, replace bool) error
	Delete(ctx context.Context, id string) error
	PermissionCodes(ctx context.Context, roleIds []string) (map[string][]string, error)
	CountUsers(ctx context.Context, role *model.Role) (int64, error)
	UserIds(ctx context.Context, roleId string) ([]string, error)
}

type RoleRepo struct {
	database.IDatabase
}

func NewRoleRepo(db database.IDatabase) IRoleRepository {
	return &RoleRepo{
		IDatabase: db,
	}
}

func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.Database().WithContext(ctx).Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *RoleRepo) Get(ctx context.Context, id string) (*model.Role, error) {
	var role model.Role
	if err := r.Database().WithContext(ctx).Where("id = ?", id).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.Database().WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// NameTaken reports whether another role already uses name.
func (r *RoleRepo) NameTaken(ctx context.Context, name, excludeId string) (bool, error) {
	var count int64
	q := r.Database().WithContext(ctx).Model(&model.Role{}).Where("name = ?", name)
	if excludeId != "" {
		q = q.Where("id <> ?", excludeId)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func insertRolePermissions(tx *gorm.DB, roleId string, permissionIds []string) error {
	if len(permissionIds) == 0 {
		return nil
	}
	rows := make([]model.RolePermission, 0, len(permissionIds))
	for _, pid := range permissionIds {
		rows = append(rows, model.RolePermission{RoleId: roleId, PermissionId: pid})
	}
	return tx.Create(&rows).Error
}

// Create inserts the role and its permission rows in one transaction.
func (r *RoleRepo) Create(ctx context.Context, role *model.Role, permissionIds []string) error {
	return r.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		return insertRolePermissions(tx, role.Id, permissionIds)
	})
}

// Update applies column updates and, when replace is set, swaps the whole
// permission set. Readers never observe the intermediate empty set.
func (r *RoleRepo) Update(ctx context.Context, id string, updates map[string]any, permissionIds []string, replace bool) error {
	return r.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&model.Role{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if !replace {
			return nil
		}
		if err := tx.Where("role_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		return insertRolePermissions(tx, id, permissionIds)
	})
}

func (r *RoleRepo) Delete(ctx context.Context, id string) error {
	return r.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Role{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

type roleCode struct {
	RoleId string
	Code   string
}

// PermissionCodes returns the raw codes of each role, keyed by role id.
func (r *RoleRepo) PermissionCodes(ctx context.Context, roleIds []string) (map[string][]string, error) {
	out := make(map[string][]string, len(roleIds))
	if len(roleIds) == 0 {
		return out, nil
	}
	var rows []roleCode
	err := r.Database().WithContext(ctx).
		Table("role_permissions").
		Select("role_permissions.role_id AS role_id, permissions.code AS code").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id IN ?", roleIds).
		Order("permissions.code ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.RoleId] = append(out[row.RoleId], row.Code)
	}
	return out, nil
}

// CountUsers counts profiles naming the role plus explicit assignments.
func (r *RoleRepo) CountUsers(ctx context.Context, role *model.Role) (int64, error) {
	var byProfile, byAssignment int64
	db := r.Database().WithContext(ctx)
	if err := db.Model(&model.Profile{}).Where("role = ?", role.Name).Count(&byProfile).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&model.UserRole{}).Where("role_id = ?", role.Id).Count(&byAssignment).Error; err != nil {
		return 0, err
	}
	return byProfile + byAssignment, nil
}

func (r *RoleRepo) UserIds(ctx context.Context, roleId string) ([]string, error) {
	var ids []string
	err := r.Database().WithContext(ctx).Model(&model.UserRole{}).Where("role_id = ?", roleId).Pluck("user_id", &ids).Error
	return ids, err
}
