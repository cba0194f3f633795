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

package guard

import (
	"strings"

	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// RequireAuth only needs a valid identity.
func (g *Guard) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := g.authenticate(c); !ok {
			return unauthorized(c)
		}
		return c.Next()
	}
}

// RequireRole passes when the effective role is one of roles.
func (g *Guard) RequireRole(roles ...string) fiber.Handler {
	msg := "Access denied. Required role: " + strings.Join(roles, " or ")
	return func(c *fiber.Ctx) error {
		e, ok := g.authenticate(c)
		if !ok {
			return unauthorized(c)
		}
		if !rbac.HasRole(e.User, roles...) {
			return forbidden(c, msg)
		}
		return c.Next()
	}
}

// RequireMinRole passes when the effective role ranks at least min.
func (g *Guard) RequireMinRole(min string) fiber.Handler {
	msg := "Access denied. Minimum role required: " + min
	return func(c *fiber.Ctx) error {
		e, ok := g.authenticate(c)
		if !ok {
			return unauthorized(c)
		}
		if !rbac.HasMinRole(e.User, min) {
			return forbidden(c, msg)
		}
		return c.Next()
	}
}

// held returns the memoized permission set, or nil when it could not be
// computed; a nil set makes the policy ask the store directly.
func (g *Guard) held(c *fiber.Ctx, user *rbac.User) []string {
	if rbac.IsSuperAdmin(user) {
		return nil
	}
	perms, err := g.Permissions(c)
	if err != nil {
		log.WithContext(c.UserContext()).Warnw("failed to load permissions", "user", user.Id, "error", err)
		return nil
	}
	return perms
}

// RequirePermission passes when the user holds code, aliases included.
func (g *Guard) RequirePermission(code string) fiber.Handler {
	msg := "Access denied. Required permission: " + code
	return func(c *fiber.Ctx) error {
		e, ok := g.authenticate(c)
		if !ok {
			return unauthorized(c)
		}
		req := rbac.Request{Code: code, Held: g.held(c, e.User)}
		if !g.policy.Allowed(c.UserContext(), e.User, req) {
			return forbidden(c, msg)
		}
		return c.Next()
	}
}

// RequireAnyPermission passes when the user holds at least one of codes.
func (g *Guard) RequireAnyPermission(codes ...string) fiber.Handler {
	msg := "Access denied. Required one of: " + strings.Join(codes, ", ")
	return func(c *fiber.Ctx) error {
		e, ok := g.authenticate(c)
		if !ok {
			return unauthorized(c)
		}
		held := g.held(c, e.User)
		for _, code := range codes {
			if g.policy.Allowed(c.UserContext(), e.User, rbac.Request{Code: code, Held: held}) {
				return c.Next()
			}
		}
		return forbidden(c, msg)
	}
}

// RequireGranularPermission checks module/item/action against the tree of
// the user's effective role.
func (g *Guard) RequireGranularPermission(module, item, action string) fiber.Handler {
	msg := "Access denied. Required: " + module + "." + item + "." + action
	return func(c *fiber.Ctx) error {
		e, ok := g.authenticate(c)
		if !ok {
			return unauthorized(c)
		}
		allowed, err := g.policy.Check(c.UserContext(), e.User, rbac.Request{Module: module, Item: item, Action: action})
		if err != nil {
			return http.WithRepErrDefault(c, http.PermissionUnverifiable)
		}
		if !allowed {
			return forbidden(c, msg)
		}
		return c.Next()
	}
}
