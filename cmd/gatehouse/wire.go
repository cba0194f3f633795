//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-arcade/gatehouse/internal/gatehouse/bootstrap"
	"github.com/go-arcade/gatehouse/internal/gatehouse/conf"
	"github.com/go-arcade/gatehouse/internal/gatehouse/repo"
	"github.com/go-arcade/gatehouse/internal/gatehouse/router"
	"github.com/go-arcade/gatehouse/internal/gatehouse/service"
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/go-arcade/gatehouse/internal/pkg/guard"
	"github.com/go-arcade/gatehouse/internal/pkg/identity"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/internal/pkg/session"
	"github.com/go-arcade/gatehouse/pkg/cache"
	"github.com/go-arcade/gatehouse/pkg/database"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/go-arcade/gatehouse/pkg/metrics"
	"github.com/go-arcade/gatehouse/pkg/pprof"
	"github.com/google/wire"
)

func initApp(cfg *conf.AppConfig, loader *conf.Loader) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// configuration
		conf.ProviderSet,
		// infrastructure
		log.ProviderSet,
		database.ProviderSet,
		cache.ProviderSet,
		metrics.ProviderSet,
		pprof.ProviderSet,
		// data
		repo.ProviderSet,
		// access control
		rbac.ProviderSet,
		session.ProviderSet,
		identity.ProviderSet,
		guard.ProviderSet,
		audit.ProviderSet,
		// api
		service.ProviderSet,
		router.ProviderSet,
		bootstrap.ProviderSet,
	))
}

func initTools(cfg *conf.AppConfig) (*bootstrap.Tools, func(), error) {
	panic(wire.Build(
		conf.ProviderSet,
		log.ProviderSet,
		database.ProviderSet,
		repo.ProviderSet,
		rbac.ProvideAliasTable,
		rbac.ProvideEvaluator,
		bootstrap.NewTools,
	))
}
