package model

// Permission is one entry of the code catalogue.
type Permission struct {
	Id          string `gorm:"column:id;primaryKey;size:36" json:"id"`
	Code        string `gorm:"column:code;not null;uniqueIndex;size:150" json:"code"`
	Description string `gorm:"column:description" json:"description"`
}

func (p *Permission) TableName() string {
	return "permissions"
}

type RolePermission struct {
	RoleId       string `gorm:"column:role_id;primaryKey;size:36" json:"role_id"`
	PermissionId string `gorm:"column:permission_id;primaryKey;size:36" json:"permission_id"`
}

func (rp *RolePermission) TableName() string {
	return "role_permissions"
}

// DefaultPermissions seeds the catalogue on migrate.
var DefaultPermissions = []Permission{
	{Code: "users.view", Description: "View users"},
	{Code: "users.edit", Description: "Edit users"},
	{Code: "users.delete", Description: "Delete users"},
	{Code: "manage_users", Description: "Create, edit and delete users"},
	{Code: "roles.view", Description: "View roles"},
	{Code: "roles.manage", Description: "Create, edit and delete roles"},
	{Code: "audit.view", Description: "View audit logs"},
}
