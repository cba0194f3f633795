package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/pkg/log"
)

// Migrate creates the tables and seeds the permission catalogue. Existing
// codes are left untouched.
func (t *Tools) Migrate(ctx context.Context) error {
	if err := t.DB.Database().WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	if err := t.Perms.Seed(ctx, model.DefaultPermissions); err != nil {
		return fmt.Errorf("failed to seed permissions: %w", err)
	}
	log.Infow("migration finished", "tables", len(model.All()), "permissions", len(model.DefaultPermissions))
	return nil
}

type CheckReport struct {
	User        *rbac.User `json:"user"`
	Code        string     `json:"code"`
	Allowed     bool       `json:"allowed"`
	Permissions []string   `json:"permissions"`
}

// Check evaluates code for userId against the database. Unlike the request
// path, store failures are returned instead of turning into a denial.
func (t *Tools) Check(ctx context.Context, userId, code string) (*CheckReport, error) {
	user, err := t.Store.Profile(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("no profile for user %s", userId)
	}
	perms, err := t.Flat.Permissions(ctx, user)
	if err != nil {
		return nil, err
	}
	return &CheckReport{
		User:        user,
		Code:        code,
		Allowed:     rbac.Has(perms, code),
		Permissions: perms,
	}, nil
}
