package router

import (
	"github.com/bytedance/sonic"
	"github.com/go-arcade/gatehouse/internal/gatehouse/service"
	"github.com/go-arcade/gatehouse/internal/pkg/guard"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/go-arcade/gatehouse/pkg/http/middleware"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/go-arcade/gatehouse/pkg/metrics"
	"github.com/go-arcade/gatehouse/pkg/version"
	"github.com/gofiber/fiber/v2"
)

const (
	permUsersView   = "users.view"
	permManageUsers = "manage_users"
	permRolesView   = "roles.view"
	permRolesManage = "roles.manage"
)

type Router struct {
	Http     *http.Http
	Guard    *guard.Guard
	Roles    *service.RoleService
	Users    *service.UserService
	Auth     *service.AuthService
	Audit    *service.AuditService
	Sessions *service.SessionService
	Metrics  *metrics.Registry
}

func NewRouter(
	httpConf *http.Http,
	g *guard.Guard,
	roles *service.RoleService,
	users *service.UserService,
	auth *service.AuthService,
	audit *service.AuditService,
	sessions *service.SessionService,
	reg *metrics.Registry,
) *Router {
	return &Router{
		Http:     httpConf,
		Guard:    g,
		Roles:    roles,
		Users:    users,
		Auth:     auth,
		Audit:    audit,
		Sessions: sessions,
		Metrics:  reg,
	}
}

func (rt *Router) Router() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Gatehouse",
		DisableStartupMessage: true,
		ReadTimeout:           rt.Http.ReadTimeoutDuration(),
		WriteTimeout:          rt.Http.WriteTimeoutDuration(),
		IdleTimeout:           rt.Http.IdleTimeoutDuration(),
		BodyLimit:             rt.Http.BodyLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          middleware.ErrorHandler,
	})

	app.Use(
		middleware.ExceptionMiddleware(),
		middleware.RequestMiddleware(),
		middleware.RealIPMiddleware(),
		middleware.CorsMiddleware(rt.Http.AllowOrigins),
		middleware.TraceMiddleware(),
	)
	if rt.Http.AccessLog {
		app.Use(middleware.AccessLogMiddleware(log.GetLogger()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return http.WithRepData(c, version.GetVersion())
	})

	if rt.Http.ExposeMetrics && rt.Metrics != nil {
		app.Get("/metrics", rt.Metrics.Handler())
	}

	rt.routerGroup(app.Group("/api"))

	app.Use(func(c *fiber.Ctx) error {
		return http.WithRepErr(c, http.NotFound, "request path not found: "+c.Path())
	})

	return app
}

func (rt *Router) routerGroup(r fiber.Router) {
	g := rt.Guard

	auth := r.Group("/auth")
	{
		auth.Get("/me", g.RequireAuth(), rt.me)
		auth.Post("/check", g.RequireAuth(), rt.check)
		auth.Get("/access", g.RequireAuth(), rt.access)
		auth.Get("/dashboard", g.RequireGranularPermission(rbac.MainDashboardModule, rbac.MainDashboardParent, string(rbac.ActionView)), rt.dashboard)
	}

	admin := r.Group("/admin")
	{
		// users
		admin.Get("/users", g.RequirePermission(permUsersView), rt.listUsers)
		admin.Post("/users", g.RequirePermission(permManageUsers), rt.createUser)
		admin.Patch("/users", g.RequirePermission(permManageUsers), rt.updateUser)
		admin.Delete("/users", g.RequirePermission(permManageUsers), rt.deleteUser)

		// roles
		admin.Get("/roles", g.RequirePermission(permRolesView), rt.listRoles)
		admin.Post("/roles", g.RequirePermission(permRolesManage), rt.createRole)
		admin.Patch("/roles", g.RequirePermission(permRolesManage), rt.updateRole)
		admin.Get("/roles/:id", g.RequirePermission(permRolesManage), rt.getRole)
		admin.Put("/roles/:id", g.RequirePermission(permRolesManage), rt.updateRole)
		admin.Delete("/roles/:id", g.RequirePermission(permRolesManage), rt.deleteRole)
		admin.Post("/roles/:id/clone", g.RequirePermission(permRolesManage), rt.cloneRole)

		admin.Get("/permissions", g.RequirePermission(permRolesView), rt.listPermissions)
		admin.Get("/audit-logs", g.RequirePermission(permRolesManage), rt.listAuditLogs)

		// session cache
		admin.Get("/sessions", g.RequireAnyPermission(permUsersView, permRolesView), rt.sessionStats)
		admin.Delete("/sessions", g.RequireMinRole(rbac.RoleAdmin), rt.clearSessions)
		admin.Delete("/sessions/:userId", g.RequireRole(rbac.RoleAdmin), rt.invalidateSessions)
	}
}

// actor is the user resolved by the route's guard.
func actor(c *fiber.Ctx) *rbac.User {
	return guard.CurrentUser(c)
}
