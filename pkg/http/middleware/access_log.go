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
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// paths that are polled by probes and scrapers
var excludedPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// AccessLogMiddleware logs one line per request.
func AccessLogMiddleware(log *zap.Logger) fiber.Handler {
	sugar := log.Sugar()

	return func(c *fiber.Ctx) error {
		if excludedPaths[c.Path()] {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		query := c.Context().QueryArgs().String()
		if query != "" {
			query = "?" + query
		}

		kv := []any{
			"method", c.Method(),
			"path", c.Path(),
			"query", query,
			"status", c.Response().StatusCode(),
			"ip", clientIP(c),
			"user_agent", c.Get(fiber.HeaderUserAgent),
			"latency", latency.String(),
		}
		if rid, ok := c.Locals(RequestIdKey).(string); ok {
			kv = append(kv, "request_id", rid)
		}
		sugar.Infow("HTTP request", kv...)
		return err
	}
}
