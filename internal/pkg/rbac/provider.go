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

package rbac

import (
	"time"

	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/google/wire"
)

// ProviderSet provides the evaluators.
var ProviderSet = wire.NewSet(
	ProvideAliasTable,
	ProvideEvaluator,
	NewMetrics,
	NewPolicy,
	wire.Bind(new(PolicyEvaluator), new(*Policy)),
)

// Conf is the policy section of the configuration.
type Conf struct {
	AliasFile    string `mapstructure:"aliasFile"`
	QueryTimeout int    `mapstructure:"queryTimeout"` // seconds
}

func (c *Conf) SetDefaults() {
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 3
	}
}

func (c *Conf) QueryTimeoutDuration() time.Duration {
	return time.Duration(c.QueryTimeout) * time.Second
}

// ProvideAliasTable loads the configured alias file, or the defaults when
// none is set.
func ProvideAliasTable(conf *Conf) (*AliasTable, error) {
	if conf.AliasFile == "" {
		return DefaultAliasTable(), nil
	}
	t, err := LoadAliasFile(conf.AliasFile)
	if err != nil {
		return nil, err
	}
	log.Infow("alias table loaded", "file", conf.AliasFile, "codes", len(t.Codes), "modules", len(t.Modules))
	return t, nil
}

func ProvideEvaluator(store RoleStore, aliases *AliasTable, conf *Conf) *Evaluator {
	return NewEvaluator(store, aliases, conf.QueryTimeoutDuration())
}
