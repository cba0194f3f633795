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
	"errors"
	"fmt"

	"github.com/google/wire"
)

// ErrInvalidToken means the token was rejected. Anything else returned by a
// provider is an infrastructure failure.
var ErrInvalidToken = errors.New("invalid token")

const (
	BackendJWT    = "jwt"
	BackendGoTrue = "gotrue"
)

// Identity is who a token belongs to.
type Identity struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

type Provider interface {
	ValidateToken(ctx context.Context, token string) (*Identity, error)
}

// ProviderSet provides the configured identity backend.
var ProviderSet = wire.NewSet(ProvideProvider)

// Conf is the identity section. Timeout is in seconds.
type Conf struct {
	Backend string `mapstructure:"backend"`
	Secret  string `mapstructure:"secret"`
	Issuer  string `mapstructure:"issuer"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"apiKey"`
	Retries int    `mapstructure:"retries"`
	Timeout int    `mapstructure:"timeout"`
}

func (c *Conf) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJWT
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 5
	}
}

func (c *Conf) Validate() error {
	switch c.Backend {
	case BackendJWT:
		if c.Secret == "" {
			return errors.New("identity.secret is required for the jwt backend")
		}
	case BackendGoTrue:
		if c.URL == "" {
			return errors.New("identity.url is required for the gotrue backend")
		}
	default:
		return fmt.Errorf("unknown identity backend: %s", c.Backend)
	}
	return nil
}

func ProvideProvider(conf *Conf) (Provider, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	switch conf.Backend {
	case BackendGoTrue:
		return NewGoTrue(conf), nil
	default:
		return NewJWT([]byte(conf.Secret), conf.Issuer), nil
	}
}
