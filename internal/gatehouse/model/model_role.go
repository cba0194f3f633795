package model

import "github.com/go-arcade/gatehouse/internal/pkg/rbac"

// Role groups permission codes and carries the granular tree.
type Role struct {
	Id              string `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name            string `gorm:"column:name;not null;uniqueIndex;size:100" json:"name"`
	Description     string `gorm:"column:description" json:"description"`
	PermissionsJSON string `gorm:"column:permissions_json;type:text" json:"-"`
	Timestamps
}

func (r *Role) TableName() string {
	return "roles"
}

// RoleView is a role as the admin API returns it.
type RoleView struct {
	Id                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Permissions       []string  `json:"permissions"`
	PermissionModules rbac.Tree `json:"permission_modules"`
	UserCount         int64     `json:"user_count"`
	Timestamps
}

// CreateRoleReq creates a role. Codes not in the catalogue are skipped.
type CreateRoleReq struct {
	Name              string    `json:"name" validate:"required,max=100"`
	Description       string    `json:"description" validate:"max=500"`
	Permissions       []string  `json:"permissions" validate:"dive,required"`
	PermissionModules rbac.Tree `json:"permission_modules"`
}

// UpdateRoleReq changes only the fields that are set. Permissions nil
// leaves the code set untouched; an empty slice clears it.
type UpdateRoleReq struct {
	Id                string     `json:"id" validate:"required"`
	Name              *string    `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description       *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Permissions       *[]string  `json:"permissions,omitempty"`
	PermissionModules *rbac.Tree `json:"permission_modules,omitempty"`
}

// CloneRoleReq optionally names the copy.
type CloneRoleReq struct {
	Name string `json:"name" validate:"omitempty,max=100"`
}
