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
	"strings"

	"github.com/gofiber/fiber/v2"
)

const ipKey = "ip"

// RealIPMiddleware records the client address behind proxies.
func RealIPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
			// client, proxy1, proxy2
			if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
				c.Locals(ipKey, ip)
				return c.Next()
			}
		}
		if ip := strings.TrimSpace(c.Get("X-Real-IP")); ip != "" {
			c.Locals(ipKey, ip)
		}
		return c.Next()
	}
}

func clientIP(c *fiber.Ctx) string {
	if ip, ok := c.Locals(ipKey).(string); ok && ip != "" {
		return ip
	}
	return c.IP()
}
