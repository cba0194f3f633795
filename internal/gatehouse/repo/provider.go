package repo

import (
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/go-arcade/gatehouse/internal/pkg/guard"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/google/wire"
)

// ProviderSet provides the repositories.
var ProviderSet = wire.NewSet(
	NewRoleRepo,
	NewPermissionRepo,
	NewUserRepo,
	NewAuditRepo,
	NewRoleStore,
	wire.Bind(new(audit.Store), new(*AuditRepo)),
	wire.Bind(new(rbac.RoleStore), new(*RoleStore)),
	wire.Bind(new(guard.Profiles), new(*RoleStore)),
)
