package router

import (
	"errors"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/internal/gatehouse/service"
	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// held returns the session's memoized permissions, nil when unavailable.
func (rt *Router) held(c *fiber.Ctx) []string {
	perms, err := rt.Guard.Permissions(c)
	if err != nil {
		log.WithContext(c.UserContext()).Warnw("failed to load permissions", "error", err)
		return nil
	}
	return perms
}

// me describes the caller
func (rt *Router) me(c *fiber.Ctx) error {
	user := actor(c)
	view, err := rt.Auth.Me(c.UserContext(), user, rt.held(c))
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepData(c, view)
}

// check evaluates permission requests for the caller
func (rt *Router) check(c *fiber.Ctx) error {
	var req model.CheckReq
	if ok, err := http.BindAndValidate(c, &req); !ok {
		return err
	}
	res, err := rt.Auth.Check(c.UserContext(), actor(c), rt.held(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return fail(c, err)
		}
		log.WithContext(c.UserContext()).Errorw("permission check failed", "error", err)
		return http.WithRepErrDefault(c, http.PermissionUnverifiable)
	}
	return http.WithRepData(c, res)
}

// access reports the caller's actions on one module item
func (rt *Router) access(c *fiber.Ctx) error {
	var q model.AccessQuery
	if err := c.QueryParser(&q); err != nil {
		return http.WithRepErrDefault(c, http.RequestParameterParsingFailed)
	}
	if err := http.Validate(&q); err != nil {
		return http.WithRepErr(c, http.BadRequest, err.Error())
	}
	view, err := rt.Auth.Access(c.UserContext(), actor(c), &q)
	if err != nil {
		log.WithContext(c.UserContext()).Errorw("access lookup failed", "error", err)
		return http.WithRepErrDefault(c, http.PermissionUnverifiable)
	}
	return http.WithRepData(c, view)
}

func (rt *Router) dashboard(c *fiber.Ctx) error {
	view, err := rt.Auth.Dashboard(c.UserContext(), actor(c))
	if err != nil {
		log.WithContext(c.UserContext()).Errorw("dashboard lookup failed", "error", err)
		return http.WithRepErrDefault(c, http.PermissionUnverifiable)
	}
	return http.WithRepData(c, view)
}

func (rt *Router) sessionStats(c *fiber.Ctx) error {
	return http.WithRepData(c, rt.Sessions.Stats(c.UserContext()))
}

func (rt *Router) clearSessions(c *fiber.Ctx) error {
	if err := rt.Sessions.Clear(c.UserContext(), actor(c)); err != nil {
		return fail(c, err)
	}
	return http.WithRepData(c, fiber.Map{"cleared": true})
}

func (rt *Router) invalidateSessions(c *fiber.Ctx) error {
	userId := c.Params("userId")
	if err := rt.Sessions.InvalidateUser(c.UserContext(), actor(c), userId); err != nil {
		return fail(c, err)
	}
	return http.WithRepData(c, fiber.Map{"userId": userId})
}
