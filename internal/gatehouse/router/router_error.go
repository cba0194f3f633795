package router

import (
	"errors"
	"strings"

	"github.com/go-arcade/gatehouse/internal/gatehouse/service"
	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/gofiber/fiber/v2"
)

var errorCodes = []struct {
	err  error
	code *http.Code
}{
	{service.ErrRoleNotFound, http.NotFound},
	{service.ErrUserNotFound, http.NotFound},
	{service.ErrRoleNameTaken, http.Conflict},
	{service.ErrRoleInUse, http.Conflict},
	{service.ErrUserExists, http.Conflict},
	{service.ErrInvalidInput, http.BadRequest},
}

// fail maps a service error onto the envelope. Unknown errors are logged
// and answered with a generic 500.
func fail(c *fiber.Ctx, err error) error {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return http.WithRepErr(c, ec.code, message(err, ec.err))
		}
	}
	log.WithContext(c.UserContext()).Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return http.WithRepErrDefault(c, http.InternalError)
}

// message drops the trailing sentinel text so "x: invalid input" reads "x".
func message(err, sentinel error) string {
	msg := err.Error()
	if msg == sentinel.Error() {
		return msg
	}
	return strings.TrimSuffix(msg, ": "+sentinel.Error())
}
