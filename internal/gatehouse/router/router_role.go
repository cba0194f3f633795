package router

import (
	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) listRoles(c *fiber.Ctx) error {
	roles, err := rt.Roles.List(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepData(c, roles)
}

func (rt *Router) getRole(c *fiber.Ctx) error {
	role, err := rt.Roles.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepData(c, role)
}

func (rt *Router) createRole(c *fiber.Ctx) error {
	var req model.CreateRoleReq
	if ok, err := http.BindAndValidate(c, &req); !ok {
		return err
	}
	role, err := rt.Roles.Create(c.UserContext(), actor(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepCreated(c, role, "Role created.")
}

// updateRole serves both PATCH /roles (id in the body) and PUT /roles/:id.
// The path id wins when both are present.
func (rt *Router) updateRole(c *fiber.Ctx) error {
	var req model.UpdateRoleReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrDefault(c, http.RequestParameterParsingFailed)
	}
	if id := c.Params("id"); id != "" {
		req.Id = id
	}
	if err := http.Validate(&req); err != nil {
		return http.WithRepErr(c, http.BadRequest, err.Error())
	}
	role, err := rt.Roles.Update(c.UserContext(), actor(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepDetail(c, role, "Role updated.")
}

func (rt *Router) deleteRole(c *fiber.Ctx) error {
	if err := rt.Roles.Delete(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return http.WithRepMsg(c, "Role deleted.")
}

// cloneRole accepts an optional {"name"} body
func (rt *Router) cloneRole(c *fiber.Ctx) error {
	var req model.CloneRoleReq
	if len(c.Body()) > 0 {
		if ok, err := http.BindAndValidate(c, &req); !ok {
			return err
		}
	}
	role, err := rt.Roles.Clone(c.UserContext(), actor(c), c.Params("id"), &req)
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepCreated(c, role, "Role cloned.")
}

func (rt *Router) listPermissions(c *fiber.Ctx) error {
	perms, err := rt.Roles.Permissions(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepData(c, perms)
}

func (rt *Router) listAuditLogs(c *fiber.Ctx) error {
	var q model.AuditQuery
	if err := c.QueryParser(&q); err != nil {
		return http.WithRepErrDefault(c, http.RequestParameterParsingFailed)
	}
	logs, err := rt.Audit.List(c.UserContext(), q)
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepData(c, logs)
}
