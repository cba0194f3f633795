package repo

import (
	"context"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/pkg/database"
	"github.com/go-arcade/gatehouse/pkg/id"
	"gorm.io/gorm/clause"
)

type IPermissionRepository interface {
	List(ctx context.Context) ([]model.Permission, error)
	ByCodes(ctx context.Context, codes []string) ([]model.Permission, error)
	IdsOf(ctx context.Context, roleId string) ([]string, error)
	Seed(ctx context.Context, perms []model.Permission) error
}

type PermissionRepo struct {
	database.IDatabase
}

func NewPermissionRepo(db database.IDatabase) IPermissionRepository {
	return &PermissionRepo{
		IDatabase: db,
	}
}

func (r *PermissionRepo) List(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	err := r.Database().WithContext(ctx).Order("code ASC").Find(&perms).Error
	return perms, err
}

func (r *PermissionRepo) ByCodes(ctx context.Context, codes []string) ([]model.Permission, error) {
	if len(codes) == 0 {
		return []model.Permission{}, nil
	}
	var perms []model.Permission
	err := r.Database().WithContext(ctx).Where("code IN ?", codes).Find(&perms).Error
	return perms, err
}

// IdsOf returns the permission ids currently granted to a role.
func (r *PermissionRepo) IdsOf(ctx context.Context, roleId string) ([]string, error) {
	var ids []string
	err := r.Database().WithContext(ctx).Model(&model.RolePermission{}).
		Where("role_id = ?", roleId).Pluck("permission_id", &ids).Error
	return ids, err
}

// Seed inserts missing catalogue entries and leaves existing codes alone.
func (r *PermissionRepo) Seed(ctx context.Context, perms []model.Permission) error {
	if len(perms) == 0 {
		return nil
	}
	rows := make([]model.Permission, len(perms))
	copy(rows, perms)
	for i := range rows {
		if rows[i].Id == "" {
			rows[i].Id = id.GetUUID()
		}
	}
	return r.Database().WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&rows).Error
}
