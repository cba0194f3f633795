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

	"github.com/go-arcade/gatehouse/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is either a flat Code or a granular Module/Item/Action triple.
type Request struct {
	Code   string
	Module string
	Item   string
	Action string

	// Held, when non-nil, is the user's already expanded code set and
	// short-circuits the flat store lookup.
	Held []string
}

func (r Request) String() string {
	if r.Code != "" {
		return r.Code
	}
	return r.Module + "." + r.Item + "." + r.Action
}

type PolicyEvaluator interface {
	Allowed(ctx context.Context, user *User, req Request) bool
}

// Policy applies the super admin bypass once and dispatches to the flat or
// granular backend.
type Policy struct {
	flat    *Evaluator
	store   RoleStore
	metrics *Metrics
	tracer  trace.Tracer
}

var _ PolicyEvaluator = (*Policy)(nil)

func NewPolicy(flat *Evaluator, store RoleStore, m *Metrics) *Policy {
	return &Policy{
		flat:    flat,
		store:   store,
		metrics: m,
		tracer:  otel.Tracer("github.com/go-arcade/gatehouse/internal/pkg/rbac"),
	}
}

// Granular returns a tree checker bound to the current alias table.
func (p *Policy) Granular() *Granular {
	return NewGranular(p.flat.Aliases())
}

func (p *Policy) Allowed(ctx context.Context, user *User, req Request) bool {
	ok, _ := p.Check(ctx, user, req)
	return ok
}

// Check is Allowed that also reports why a granular decision could not be
// made. The bool is always false when err is non-nil.
func (p *Policy) Check(ctx context.Context, user *User, req Request) (bool, error) {
	ctx, span := p.tracer.Start(ctx, "rbac.Check", trace.WithAttributes(
		attribute.String("rbac.request", req.String()),
	))
	defer span.End()

	if IsSuperAdmin(user) {
		p.metrics.observe(backendBypass, outcomeAllow)
		span.SetAttributes(attribute.Bool("rbac.allowed", true), attribute.String("rbac.backend", backendBypass))
		return true, nil
	}
	if user != nil {
		span.SetAttributes(attribute.String("rbac.user", user.Id))
	}

	var (
		backend string
		allowed bool
		err     error
	)
	if req.Code != "" {
		backend = backendFlat
		if req.Held != nil {
			allowed = Has(req.Held, req.Code)
		} else {
			allowed = p.flat.Evaluate(ctx, user, req.Code)
		}
	} else {
		backend = backendGranular
		allowed, err = p.checkGranular(ctx, user, req)
	}

	outcome := outcomeDeny
	switch {
	case err != nil:
		outcome = outcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case allowed:
		outcome = outcomeAllow
	}
	p.metrics.observe(backend, outcome)
	span.SetAttributes(attribute.Bool("rbac.allowed", allowed), attribute.String("rbac.backend", backend))
	return allowed, err
}

func (p *Policy) checkGranular(ctx context.Context, user *User, req Request) (bool, error) {
	if user == nil {
		return false, nil
	}
	action, ok := ParseAction(req.Action)
	if !ok || req.Module == "" || req.Item == "" {
		return false, nil
	}
	role := EffectiveRole(user)
	tctx, cancel := p.flat.WithTimeout(ctx)
	defer cancel()
	tree, err := p.store.RoleTree(tctx, role)
	if errors.Is(err, ErrNoRole) {
		return false, nil
	}
	if err != nil {
		log.WithContext(ctx).Errorw("failed to load permission tree", "user", user.Id, "role", role, "error", err)
		return false, fmt.Errorf("failed to load permission tree for %s: %w", role, err)
	}
	return p.Granular().Check(tree, req.Module, req.Item, action), nil
}

// Tree loads the tree of the user's effective role. A super admin or a user
// whose role is unknown gets an empty tree.
func (p *Policy) Tree(ctx context.Context, user *User) (Tree, error) {
	if user == nil || IsSuperAdmin(user) {
		return Tree{}, nil
	}
	ctx, cancel := p.flat.WithTimeout(ctx)
	defer cancel()
	tree, err := p.store.RoleTree(ctx, EffectiveRole(user))
	if errors.Is(err, ErrNoRole) {
		return Tree{}, nil
	}
	return tree, err
}
