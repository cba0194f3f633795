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

// Package guard authenticates requests and enforces role and permission
// requirements on fiber routes.
package guard

import (
	"context"
	"strings"

	"github.com/go-arcade/gatehouse/internal/pkg/identity"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/internal/pkg/session"
	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/wire"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	userKey  = "gatehouse.user"
	entryKey = "gatehouse.entry"
	tokenKey = "gatehouse.token"

	bearerPrefix = "bearer "
)

// ProviderSet provides the guard.
var ProviderSet = wire.NewSet(NewGuard)

// Profiles loads the profile of an authenticated user.
type Profiles interface {
	// Profile returns nil, nil when the user has no profile row.
	Profile(ctx context.Context, userId string) (*rbac.User, error)
}

type Guard struct {
	identity identity.Provider
	profiles Profiles
	sessions session.Cache
	policy   *rbac.Policy
	flat     *rbac.Evaluator
	tracer   trace.Tracer
	group    singleflight.Group
}

func NewGuard(ip identity.Provider, profiles Profiles, sessions session.Cache, policy *rbac.Policy, flat *rbac.Evaluator) *Guard {
	return &Guard{
		identity: ip,
		profiles: profiles,
		sessions: sessions,
		policy:   policy,
		flat:     flat,
		tracer:   otel.Tracer("github.com/go-arcade/gatehouse/internal/pkg/guard"),
	}
}

// CurrentUser returns the user resolved by a guard earlier in the chain.
func CurrentUser(c *fiber.Ctx) *rbac.User {
	u, _ := c.Locals(userKey).(*rbac.User)
	return u
}

func bearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(bearerPrefix):])
}

func unauthorized(c *fiber.Ctx) error {
	return http.WithRepErrDefault(c, http.Unauthorized)
}

func forbidden(c *fiber.Ctx, msg string) error {
	return http.WithRepErr(c, http.Forbidden, msg)
}

// authenticate resolves the session once per request. A false return means
// the 401 has already been written.
func (g *Guard) authenticate(c *fiber.Ctx) (*session.Entry, bool) {
	if e, ok := c.Locals(entryKey).(*session.Entry); ok {
		return e, true
	}
	token := bearerToken(c)
	if token == "" {
		return nil, false
	}
	e, err := g.Resolve(c.UserContext(), token)
	if err != nil {
		log.WithContext(c.UserContext()).Infow("authentication failed", "path", c.Path(), "error", err)
		return nil, false
	}
	c.Locals(entryKey, e)
	c.Locals(userKey, e.User)
	c.Locals(tokenKey, token)
	return e, true
}

// Resolve maps a bearer token to its session entry, consulting the cache
// first. Concurrent lookups of one token share a single resolution.
func (g *Guard) Resolve(ctx context.Context, token string) (*session.Entry, error) {
	if e, ok := g.sessions.Get(ctx, token); ok {
		return e, nil
	}
	v, err, _ := g.group.Do(session.Key(token), func() (any, error) {
		ctx, span := g.tracer.Start(ctx, "guard.Resolve")
		defer span.End()

		ident, err := g.identity.ValidateToken(ctx, token)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		pctx, cancel := g.flat.WithTimeout(ctx)
		user, err := g.profiles.Profile(pctx, ident.Id)
		cancel()
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if user == nil {
			user = rbac.DefaultUser(ident.Id, ident.Email)
		}
		if user.Email == "" {
			user.Email = ident.Email
		}
		span.SetAttributes(attribute.String("user.id", user.Id))

		e := &session.Entry{User: user}
		if err := g.sessions.Set(ctx, token, e); err != nil {
			log.WithContext(ctx).Warnw("failed to cache session", "user", user.Id, "error", err)
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*session.Entry), nil
}

// Permissions returns the expanded codes for the request's session,
// computing and caching them on first use.
func (g *Guard) Permissions(c *fiber.Ctx) ([]string, error) {
	e, ok := c.Locals(entryKey).(*session.Entry)
	if !ok {
		return nil, nil
	}
	if e.Permissions != nil {
		return e.Permissions, nil
	}
	ctx := c.UserContext()
	perms, err := g.flat.Permissions(ctx, e.User)
	if err != nil {
		return nil, err
	}
	memo := &session.Entry{User: e.User, Permissions: perms}
	if token, ok := c.Locals(tokenKey).(string); ok {
		if err := g.sessions.Set(ctx, token, memo); err != nil {
			log.WithContext(ctx).Warnw("failed to cache permissions", "user", e.User.Id, "error", err)
		}
	}
	c.Locals(entryKey, memo)
	return perms, nil
}

// Policy exposes the evaluator the guard enforces with.
func (g *Guard) Policy() *rbac.Policy {
	return g.policy
}
