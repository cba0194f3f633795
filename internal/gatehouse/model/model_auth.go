package model

import "github.com/go-arcade/gatehouse/internal/pkg/rbac"

type MeView struct {
	User              *rbac.User `json:"user"`
	EffectiveRole     string     `json:"effective_role"`
	IsSuperAdmin      bool       `json:"is_super_admin"`
	Permissions       []string   `json:"permissions"`
	PermissionModules rbac.Tree  `json:"permission_modules"`

	// EnabledActions is module -> item -> actions, for items granting anything.
	EnabledActions map[string]map[string][]rbac.Action `json:"enabled_actions"`
}

type AccessQuery struct {
	Module string `query:"module" json:"module" validate:"required"`
	Item   string `query:"item" json:"item" validate:"required"`
}

// AccessView is what the caller may do with one module item.
type AccessView struct {
	Module       string        `json:"module"`
	Item         string        `json:"item"`
	HasAnyAccess bool          `json:"has_any_access"`
	Actions      []rbac.Action `json:"enabled_actions"`
	CanView      bool          `json:"can_view"`
	CanCreate    bool          `json:"can_create"`
	CanEdit      bool          `json:"can_edit"`
	CanDelete    bool          `json:"can_delete"`
	CanApprove   bool          `json:"can_approve"`
	CanExport    bool          `json:"can_export"`
}

type DashboardItem struct {
	Item    string        `json:"item"`
	Actions []rbac.Action `json:"enabled_actions"`
}

type DashboardView struct {
	Items []DashboardItem `json:"items"`
}

// CheckReq carries one flat code, one granular triple, or a batch of
// granular checks.
type CheckReq struct {
	Code   string               `json:"code" validate:"max=200"`
	Module string               `json:"module" validate:"required_with=Item Action"`
	Item   string               `json:"item" validate:"required_with=Module Action"`
	Action string               `json:"action" validate:"required_with=Module Item"`
	Checks []rbac.GranularCheck `json:"checks" validate:"dive"`
}

type CheckResult struct {
	Allowed *bool           `json:"allowed,omitempty"`
	Results map[string]bool `json:"results,omitempty"`
}

type AuditQuery struct {
	ActorId  string `query:"actorId"`
	Action   string `query:"action"`
	TargetId string `query:"targetId"`
	Since    string `query:"since"`
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
}
