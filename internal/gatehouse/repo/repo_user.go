package repo

import (
	"context"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/pkg/database"
	"gorm.io/gorm"
)

type IUserRepository interface {
	Get(ctx context.Context, id string) (*model.Profile, error)
	List(ctx context.Context, page model.Page) ([]model.Profile, int64, error)
	Create(ctx context.Context, p *model.Profile, roleIds []string) error
	Update(ctx context.Context, id string, updates map[string]any, roleIds []string, replace bool) error
	Delete(ctx context.Context, id string) error
	Roles(ctx context.Context, userIds []string) (map[string][]model.RoleRef, error)
}

type UserRepo struct {
	database.IDatabase
}

func NewUserRepo(db database.IDatabase) IUserRepository {
	return &UserRepo{
		IDatabase: db,
	}
}

func (r *UserRepo) Get(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := r.Database().WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *UserRepo) List(ctx context.Context, page model.Page) ([]model.Profile, int64, error) {
	page.Normalize()
	var (
		profiles []model.Profile
		count    int64
	)
	db := r.Database().WithContext(ctx)
	if err := db.Model(&model.Profile{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(page.Offset()).Limit(page.PageSize).Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}
	return profiles, count, nil
}

func insertUserRoles(tx *gorm.DB, userId string, roleIds []string) error {
	if len(roleIds) == 0 {
		return nil
	}
	rows := make([]model.UserRole, 0, len(roleIds))
	for _, rid := range roleIds {
		rows = append(rows, model.UserRole{UserId: userId, RoleId: rid})
	}
	return tx.Create(&rows).Error
}

func (r *UserRepo) Create(ctx context.Context, p *model.Profile, roleIds []string) error {
	return r.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return insertUserRoles(tx, p.Id, roleIds)
	})
}

// Update applies column updates and, when replace is set, swaps the role
// assignments in the same transaction.
func (r *UserRepo) Update(ctx context.Context, id string, updates map[string]any, roleIds []string, replace bool) error {
	return r.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&model.Profile{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if !replace {
			return nil
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		return insertUserRoles(tx, id, roleIds)
	})
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Profile{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

type userRoleRef struct {
	UserId string
	RoleId string
	Name   string
}

// Roles returns the assigned roles of each user, keyed by user id.
func (r *UserRepo) Roles(ctx context.Context, userIds []string) (map[string][]model.RoleRef, error) {
	out := make(map[string][]model.RoleRef, len(userIds))
	if len(userIds) == 0 {
		return out, nil
	}
	var rows []userRoleRef
	err := r.Database().WithContext(ctx).
		Table("user_roles").
		Select("user_roles.user_id AS user_id, roles.id AS role_id, roles.name AS name").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id IN ?", userIds).
		Order("roles.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserId] = append(out[row.UserId], model.RoleRef{Id: row.RoleId, Name: row.Name})
	}
	return out, nil
}
