package conf

import (
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/go-arcade/gatehouse/internal/pkg/identity"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/internal/pkg/session"
	"github.com/go-arcade/gatehouse/pkg/cache"
	"github.com/go-arcade/gatehouse/pkg/database"
	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/go-arcade/gatehouse/pkg/pprof"
	"github.com/go-arcade/gatehouse/pkg/trace"
	"github.com/google/wire"
)

// ProviderSet splits the loaded configuration into its sections.
var ProviderSet = wire.NewSet(
	ProvideLogConfig,
	ProvideHttpConfig,
	ProvideDatabaseConfig,
	ProvideRedisConfig,
	ProvideSessionConfig,
	ProvideIdentityConfig,
	ProvideAuditConfig,
	ProvidePolicyConfig,
	ProvideTraceConfig,
	ProvidePprofConfig,
)

func ProvideLogConfig(cfg *AppConfig) *log.Conf {
	return &cfg.Log
}

func ProvideHttpConfig(cfg *AppConfig) *http.Http {
	return &cfg.Http
}

func ProvideDatabaseConfig(cfg *AppConfig) database.Database {
	return cfg.Database
}

func ProvideRedisConfig(cfg *AppConfig) cache.Redis {
	return cfg.Redis
}

func ProvideSessionConfig(cfg *AppConfig) *session.Conf {
	return &cfg.Session
}

func ProvideIdentityConfig(cfg *AppConfig) *identity.Conf {
	return &cfg.Identity
}

func ProvideAuditConfig(cfg *AppConfig) *audit.Conf {
	return &cfg.Audit
}

func ProvidePolicyConfig(cfg *AppConfig) *rbac.Conf {
	return &cfg.Policy
}

func ProvideTraceConfig(cfg *AppConfig) *trace.Conf {
	return &cfg.Trace
}

func ProvidePprofConfig(cfg *AppConfig) *pprof.Conf {
	return &cfg.Pprof
}
