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
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleReq struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(&sampleReq{Name: "ok"}))
	assert.EqualError(t, Validate(&sampleReq{}), "name is required")
	assert.EqualError(t, Validate(&sampleReq{Name: "toolong"}), "name must be at most 5 long")
	assert.EqualError(t, Validate(&sampleReq{Name: "a", Email: "nope"}), "email must be a valid email")
}

func TestBindAndValidate(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var req sampleReq
		if ok, err := BindAndValidate(c, &req); !ok {
			return err
		}
		return WithRepData(c, req)
	})

	send := func(body string) (int, string) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	code, body := send(`{"name":"abc"}`)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `"success":true`)

	code, body = send(`{"name":""}`)
	assert.Equal(t, 400, code)
	assert.Contains(t, body, "name is required")

	code, body = send(`{not json`)
	assert.Equal(t, 400, code)
	assert.Contains(t, body, "Request parameter parsing failed.")
}
