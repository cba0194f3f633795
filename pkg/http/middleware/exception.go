// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"errors"
	"runtime/debug"

	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// ExceptionMiddleware turns a handler panic into a 500 envelope. The panic
// value and stack are logged, never returned to the client.
func ExceptionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("panic recovered",
					"path", c.Path(),
					"panic", r,
					"stack", string(debug.Stack()),
				)
				err = http.WithRepErrDefault(c, http.InternalError)
			}
		}()
		return c.Next()
	}
}

// ErrorHandler is the fiber.Config ErrorHandler. Errors that escape handlers
// are rendered in the envelope; fiber errors keep their status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return http.WithRepErr(c, http.NotFound, fe.Message)
		case fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge, fiber.StatusBadRequest:
			return http.WithRepErr(c, &http.Code{Status: fe.Code, Error: "Bad Request", Msg: fe.Message}, "")
		}
	}
	log.Errorw("unhandled request error", "path", c.Path(), "error", err)
	return http.WithRepErrDefault(c, http.InternalError)
}
