package model

import "time"

// Timestamps are maintained by gorm.
type Timestamps struct {
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&Role{},
		&Permission{},
		&RolePermission{},
		&UserRole{},
		&Profile{},
		&AuditLog{},
	}
}

// Page is a paginated query.
type Page struct {
	Page     int `query:"page"`
	PageSize int `query:"pageSize"`
}

func (p *Page) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 || p.PageSize > 500 {
		p.PageSize = 100
	}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}
