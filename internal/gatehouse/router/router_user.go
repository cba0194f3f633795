package router

import (
	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/gofiber/fiber/v2"
)

// listUsers lists profiles, or returns one when ?id= is given
func (rt *Router) listUsers(c *fiber.Ctx) error {
	if id := c.Query("id"); id != "" {
		user, err := rt.Users.Get(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return http.WithRepData(c, user)
	}

	page := model.Page{
		Page:     c.QueryInt("page"),
		PageSize: c.QueryInt("pageSize"),
	}
	list, err := rt.Users.List(c.UserContext(), page)
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepData(c, list)
}

func (rt *Router) createUser(c *fiber.Ctx) error {
	var req model.CreateUserReq
	if ok, err := http.BindAndValidate(c, &req); !ok {
		return err
	}
	user, err := rt.Users.Create(c.UserContext(), actor(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepCreated(c, user, "User created.")
}

func (rt *Router) updateUser(c *fiber.Ctx) error {
	var req model.UpdateUserReq
	if ok, err := http.BindAndValidate(c, &req); !ok {
		return err
	}
	user, err := rt.Users.Update(c.UserContext(), actor(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return http.WithRepDetail(c, user, "User updated.")
}

func (rt *Router) deleteUser(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return http.WithRepErr(c, http.BadRequest, "id is required")
	}
	if err := rt.Users.Delete(c.UserContext(), actor(c), id); err != nil {
		return fail(c, err)
	}
	return http.WithRepMsg(c, "User deleted.")
}
