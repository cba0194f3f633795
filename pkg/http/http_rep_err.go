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

package http

import (
	"github.com/gofiber/fiber/v2"
)

// WithRepErr writes a failure envelope using the status and error label of
// code. An empty msg falls back to the code's default message.
func WithRepErr(c *fiber.Ctx, code *Code, msg string) error {
	if msg == "" {
		msg = code.Msg
	}
	return c.Status(code.Status).JSON(Response{
		Success: false,
		Error:   code.Error,
		Message: msg,
	})
}

// WithRepErrDefault writes a failure envelope with the code's default message.
func WithRepErrDefault(c *fiber.Ctx, code *Code) error {
	return WithRepErr(c, code, "")
}
