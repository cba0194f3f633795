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

package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/go-arcade/gatehouse/pkg/retry"
	"github.com/go-resty/resty/v2"
)

// GoTrue asks the auth server who a token belongs to.
type GoTrue struct {
	client  *resty.Client
	apiKey  string
	retries int
	backoff retry.Backoff
}

var _ Provider = (*GoTrue)(nil)

func NewGoTrue(conf *Conf) *GoTrue {
	client := resty.New().
		SetBaseURL(strings.TrimRight(conf.URL, "/")).
		SetTimeout(time.Duration(conf.Timeout)*time.Second).
		SetHeader("Accept", "application/json")
	return &GoTrue{
		client:  client,
		apiKey:  conf.APIKey,
		retries: conf.Retries,
		backoff: retry.Exponential(100*time.Millisecond, 2*time.Second),
	}
}

type gotrueUser struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

func (g *GoTrue) ValidateToken(ctx context.Context, token string) (*Identity, error) {
	var ident *Identity
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		ident, err = g.fetch(ctx, token)
		return err
	}, retry.WithMaxAttempts(g.retries), retry.WithBackoff(g.backoff))
	if err != nil {
		return nil, err
	}
	return ident, nil
}

func (g *GoTrue) fetch(ctx context.Context, token string) (*Identity, error) {
	var out gotrueUser
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("apikey", g.apiKey).
		SetResult(&out).
		Get("/auth/v1/user")
	if err != nil {
		log.WithContext(ctx).Warnw("gotrue request failed", "error", err)
		return nil, fmt.Errorf("gotrue request failed: %w", err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, retry.Permanent(fmt.Errorf("%w: gotrue answered %d", ErrInvalidToken, code))
	case code >= 500:
		return nil, fmt.Errorf("gotrue answered %d", code)
	case code != http.StatusOK:
		return nil, retry.Permanent(fmt.Errorf("gotrue answered %d", code))
	}
	if out.Id == "" {
		return nil, retry.Permanent(fmt.Errorf("%w: gotrue returned no user id", ErrInvalidToken))
	}
	return &Identity{Id: out.Id, Email: out.Email}, nil
}
