package model

import "github.com/go-arcade/gatehouse/internal/pkg/rbac"

// Profile is the application side of an auth user.
type Profile struct {
	Id        string `gorm:"column:id;primaryKey;size:36" json:"id"`
	Email     string `gorm:"column:email;index" json:"email"`
	FullName  string `gorm:"column:full_name" json:"full_name"`
	Role      string `gorm:"column:role;index" json:"role"`
	RoleBadge string `gorm:"column:role_badge" json:"role_badge"`
	Timestamps
}

func (p *Profile) TableName() string {
	return "profiles"
}

func (p *Profile) ToUser() *rbac.User {
	return &rbac.User{
		Id:        p.Id,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      p.Role,
		RoleBadge: p.RoleBadge,
	}
}

type UserRole struct {
	UserId string `gorm:"column:user_id;primaryKey;size:36" json:"user_id"`
	RoleId string `gorm:"column:role_id;primaryKey;size:36;index" json:"role_id"`
}

func (ur *UserRole) TableName() string {
	return "user_roles"
}

// RoleRef is a role as listed on a user.
type RoleRef struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// UserView is a user as the admin API returns it.
type UserView struct {
	Profile
	EffectiveRole string    `json:"effective_role"`
	Roles         []RoleRef `json:"roles"`
}

type UserList struct {
	Users      []UserView `json:"users"`
	TotalCount int64      `json:"totalCount"`
}

// CreateUserReq creates a profile for an existing auth user, or for a new
// id when Id is empty. Roles are role names to assign.
type CreateUserReq struct {
	Id        string   `json:"id" validate:"omitempty,uuid"`
	Email     string   `json:"email" validate:"required,email"`
	FullName  string   `json:"full_name" validate:"max=200"`
	Role      string   `json:"role" validate:"max=100"`
	RoleBadge string   `json:"role_badge" validate:"max=100"`
	Roles     []string `json:"roles" validate:"dive,required"`
}

// UpdateUserReq changes only the fields that are set. Roles nil leaves the
// assignments untouched.
type UpdateUserReq struct {
	Id        string    `json:"id" validate:"required"`
	FullName  *string   `json:"full_name,omitempty" validate:"omitempty,max=200"`
	Role      *string   `json:"role,omitempty" validate:"omitempty,max=100"`
	RoleBadge *string   `json:"role_badge,omitempty" validate:"omitempty,max=100"`
	Roles     *[]string `json:"roles,omitempty"`
}
