// Package bootstrap assembles the running server and owns its lifecycle.
package bootstrap

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arcade/gatehouse/internal/gatehouse/conf"
	"github.com/go-arcade/gatehouse/internal/gatehouse/repo"
	"github.com/go-arcade/gatehouse/internal/gatehouse/router"
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/pkg/database"
	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/go-arcade/gatehouse/pkg/pprof"
	"github.com/go-arcade/gatehouse/pkg/trace"
	"github.com/gofiber/fiber/v2"
	"github.com/google/wire"
	"golang.org/x/sync/errgroup"
)

// ProviderSet provides the server and the offline tools.
var ProviderSet = wire.NewSet(NewApp, NewTools, conf.NewReloader)

const drainTimeout = 10 * time.Second

type App struct {
	HttpConf *http.Http
	HttpApp  *fiber.App
	Sink     *audit.Sink
	Reloader *conf.Reloader
	Trace    *trace.Conf
	Pprof    *pprof.Server
}

func NewApp(rt *router.Router, sink *audit.Sink, reloader *conf.Reloader, traceConf *trace.Conf, debug *pprof.Server) *App {
	return &App{
		HttpConf: rt.Http,
		HttpApp:  rt.Router(),
		Sink:     sink,
		Reloader: reloader,
		Trace:    traceConf,
		Pprof:    debug,
	}
}

// Run serves until ctx is done or a termination signal arrives, then shuts
// the listener down and drains the audit queue.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	shutdownTrace, err := trace.Init(ctx, *a.Trace)
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := shutdownTrace(tctx); err != nil {
			log.Warnw("failed to flush spans", "error", err)
		}
	}()

	if err := a.Sink.Start(); err != nil {
		return err
	}
	defer a.drainAudit()

	if a.Reloader != nil {
		if err := a.Reloader.Start(ctx); err != nil {
			log.Warnw("configuration hot reload disabled", "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := a.HttpConf.Addr()
		log.Infow("HTTP listener started", "address", addr)
		if tls := a.HttpConf.TLS; tls.CertFile != "" {
			return a.HttpApp.ListenTLS(addr, tls.CertFile, tls.KeyFile)
		}
		return a.HttpApp.Listen(addr)
	})
	if a.Pprof != nil {
		g.Go(func() error { return a.Pprof.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down gracefully")
		sctx, cancel := context.WithTimeout(context.Background(), a.HttpConf.ShutdownTimeoutDuration())
		defer cancel()
		if err := a.HttpApp.ShutdownWithContext(sctx); err != nil {
			log.Errorw("HTTP server shutdown error", "error", err)
			return err
		}
		log.Infow("HTTP server shut down")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Infow("server shutdown complete")
	return nil
}

func (a *App) drainAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := a.Sink.Stop(ctx); err != nil {
		log.Warnw("audit queue not fully drained", "error", err)
	}
}

// Tools is what the offline commands need: the database and the flat
// evaluator, without a listener or audit workers.
type Tools struct {
	DB    database.IDatabase
	Perms repo.IPermissionRepository
	Store *repo.RoleStore
	Flat  *rbac.Evaluator
}

func NewTools(db database.IDatabase, perms repo.IPermissionRepository, store *repo.RoleStore, flat *rbac.Evaluator) *Tools {
	return &Tools{DB: db, Perms: perms, Store: store, Flat: flat}
}
