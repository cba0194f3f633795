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

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/go-arcade/gatehouse/pkg/log"
)

// ErrNoRole is returned by RoleStore lookups that match nothing.
var ErrNoRole = errors.New("role not found")

// RoleStore is the read side of role persistence the evaluators need.
type RoleStore interface {
	// UserRoleIds returns the role ids assigned to the user.
	UserRoleIds(ctx context.Context, userId string) ([]string, error)
	// RoleIdByName returns ErrNoRole when no role carries the name.
	RoleIdByName(ctx context.Context, name string) (string, error)
	// PermissionCodes returns the union of codes granted to the roles.
	PermissionCodes(ctx context.Context, roleIds []string) ([]string, error)
	// RoleTree returns ErrNoRole when no role carries the name.
	RoleTree(ctx context.Context, roleName string) (Tree, error)
}

// Evaluator answers flat permission-code questions.
type Evaluator struct {
	store   RoleStore
	aliases atomic.Pointer[AliasTable]
	timeout time.Duration
}

// NewEvaluator builds an evaluator. A zero timeout leaves the caller's
// context untouched.
func NewEvaluator(store RoleStore, aliases *AliasTable, timeout time.Duration) *Evaluator {
	e := &Evaluator{store: store, timeout: timeout}
	e.SetAliases(aliases)
	return e
}

// SetAliases swaps the alias table; safe while evaluations are running.
func (e *Evaluator) SetAliases(t *AliasTable) {
	if t == nil {
		t = DefaultAliasTable()
	}
	e.aliases.Store(t)
}

func (e *Evaluator) Aliases() *AliasTable {
	return e.aliases.Load()
}

// WithTimeout bounds ctx by the store query timeout.
func (e *Evaluator) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}

// Evaluate reports whether user holds code. Any failure denies.
func (e *Evaluator) Evaluate(ctx context.Context, user *User, code string) (allowed bool) {
	if IsSuperAdmin(user) {
		return true
	}
	if user == nil || code == "" {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithContext(ctx).Errorw("permission evaluation panicked", "user", user.Id, "code", code, "panic", r)
			allowed = false
		}
	}()

	held, err := e.heldCodes(ctx, user)
	if err != nil {
		if !errors.Is(err, ErrNoRole) {
			log.WithContext(ctx).Errorw("permission evaluation failed", "user", user.Id, "code", code, "error", err)
		}
		return false
	}
	_, ok := e.Aliases().Expand(held)[code]
	return ok
}

// Permissions returns the expanded codes of user, sorted. A super admin
// gets the wildcard. A user with no resolvable role gets an empty list.
func (e *Evaluator) Permissions(ctx context.Context, user *User) ([]string, error) {
	if IsSuperAdmin(user) {
		return []string{Wildcard}, nil
	}
	if user == nil {
		return []string{}, nil
	}
	held, err := e.heldCodes(ctx, user)
	if errors.Is(err, ErrNoRole) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	set := e.Aliases().Expand(held)
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// heldCodes resolves role ids through user_roles, falling back to the role
// named by the profile, and returns the raw codes.
func (e *Evaluator) heldCodes(ctx context.Context, user *User) ([]string, error) {
	ctx, cancel := e.WithTimeout(ctx)
	defer cancel()

	roleIds, err := e.store.UserRoleIds(ctx, user.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user roles: %w", err)
	}
	if len(roleIds) == 0 {
		if user.Role == "" {
			return nil, ErrNoRole
		}
		id, err := e.store.RoleIdByName(ctx, user.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve role %s: %w", user.Role, err)
		}
		roleIds = []string{id}
	}

	codes, err := e.store.PermissionCodes(ctx, roleIds)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission codes: %w", err)
	}
	return codes, nil
}

// Has checks code against an already expanded permission list, as memoized
// in a session entry.
func Has(perms []string, code string) bool {
	for _, p := range perms {
		if p == Wildcard || p == code {
			return true
		}
	}
	return false
}
