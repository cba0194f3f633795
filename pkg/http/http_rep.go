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

// Response is the envelope every API answer is wrapped in.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// WithRepData writes a 200 envelope carrying data.
func WithRepData(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data:    data,
	})
}

// WithRepCreated writes a 201 envelope carrying data.
func WithRepCreated(c *fiber.Ctx, data any, msg string) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Data:    data,
		Message: msg,
	})
}

// WithRepMsg writes a 200 envelope with only a message.
func WithRepMsg(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Message: msg,
	})
}

// WithRepDetail writes a 200 envelope with data and message.
func WithRepDetail(c *fiber.Ctx, data any, msg string) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data:    data,
		Message: msg,
	})
}
