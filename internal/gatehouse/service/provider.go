package service

import (
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/google/wire"
)

// ProviderSet provides the admin, auth and session services.
var ProviderSet = wire.NewSet(
	NewRoleService,
	NewUserService,
	NewAuthService,
	NewAuditService,
	NewSessionService,
	wire.Bind(new(AuditReader), new(*audit.Sink)),
)
