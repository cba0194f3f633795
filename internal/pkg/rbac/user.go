// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rbac

import "strings"

const (
	RoleSuperAdmin = "Super Admin"
	RoleAdmin      = "Admin"
	RoleManager    = "Manager"
	RoleEmployee   = "Employee"
	RoleViewer     = "Viewer"

	superAdminKey = "super_admin"

	// Wildcard is returned as the permission list of a super admin.
	Wildcard = "*"
)

// roleLevels orders the built-in roles for minimum-role checks.
var roleLevels = map[string]int{
	RoleSuperAdmin: 5,
	RoleAdmin:      4,
	RoleManager:    3,
	RoleEmployee:   2,
	RoleViewer:     1,
}

// User is the identity an authorization decision is made for.
type User struct {
	Id        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	Role      string `json:"role,omitempty"`
	RoleBadge string `json:"role_badge,omitempty"`
}

// DefaultUser is used when an authenticated identity has no profile row.
func DefaultUser(id, email string) *User {
	return &User{Id: id, Email: email, Role: RoleEmployee}
}

// normalize folds case and spacing so "Super Admin", "super admin" and
// "SUPER_ADMIN" compare equal.
func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// IsSuperAdmin reports whether the role or badge names the super admin.
func IsSuperAdmin(u *User) bool {
	if u == nil {
		return false
	}
	return normalize(u.Role) == superAdminKey || normalize(u.RoleBadge) == superAdminKey
}

// IsSuperAdminRole checks a bare role name.
func IsSuperAdminRole(role string) bool {
	return normalize(role) == superAdminKey
}

// EffectiveRole applies the badge > role > badge > Employee precedence.
func EffectiveRole(u *User) string {
	if u == nil {
		return RoleEmployee
	}
	if normalize(u.RoleBadge) == superAdminKey {
		return RoleSuperAdmin
	}
	if r := strings.TrimSpace(u.Role); r != "" {
		return r
	}
	if b := strings.TrimSpace(u.RoleBadge); b != "" {
		return b
	}
	return RoleEmployee
}

// RoleLevel returns the hierarchy level of role, 0 when unknown.
func RoleLevel(role string) int {
	if IsSuperAdminRole(role) {
		return roleLevels[RoleSuperAdmin]
	}
	return roleLevels[role]
}

// HasRole reports whether the effective role is one of allowed. A super
// admin always passes.
func HasRole(u *User, allowed ...string) bool {
	if IsSuperAdmin(u) {
		return true
	}
	role := EffectiveRole(u)
	for _, a := range allowed {
		if strings.EqualFold(a, role) {
			return true
		}
	}
	return false
}

// HasMinRole compares hierarchy levels. An unknown required role can never
// be satisfied except by the super admin.
func HasMinRole(u *User, min string) bool {
	if IsSuperAdmin(u) {
		return true
	}
	required := RoleLevel(min)
	if required == 0 {
		return false
	}
	return RoleLevel(EffectiveRole(u)) >= required
}
