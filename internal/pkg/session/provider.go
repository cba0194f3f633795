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

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-arcade/gatehouse/pkg/metrics"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// ProviderSet provides the configured session cache.
var ProviderSet = wire.NewSet(ProvideCache)

// Conf is the session section. TTL is in seconds.
type Conf struct {
	Backend  string `mapstructure:"backend"`
	TTL      int    `mapstructure:"ttl"`
	MaxBytes int    `mapstructure:"maxBytes"`
	Prefix   string `mapstructure:"prefix"`
}

func (c *Conf) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendLocal
	}
	if c.TTL <= 0 {
		c.TTL = int(DefaultTTL / time.Second)
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 32 * 1024 * 1024
	}
}

func (c *Conf) Validate() error {
	if time.Duration(c.TTL)*time.Second > MaxTTL {
		return fmt.Errorf("session ttl %ds exceeds %s", c.TTL, MaxTTL)
	}
	switch c.Backend {
	case BackendLocal, BackendRedis:
		return nil
	default:
		return fmt.Errorf("unknown session backend: %s", c.Backend)
	}
}

func (c *Conf) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// ProvideCache builds the backend named in conf and exports its counters.
func ProvideCache(conf *Conf, client *redis.Client, reg *metrics.Registry) (Cache, error) {
	var c Cache
	switch conf.Backend {
	case BackendRedis:
		if client == nil {
			return nil, errors.New("session backend redis requires redis.address")
		}
		c = NewRedis(client, conf.TTLDuration(), conf.Prefix)
	case BackendLocal, "":
		c = NewLocal(conf.TTLDuration(), conf.MaxBytes)
	default:
		return nil, fmt.Errorf("unknown session backend: %s", conf.Backend)
	}
	if reg != nil {
		if err := registerStats(reg, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func registerStats(reg *metrics.Registry, c Cache) error {
	stat := func(pick func(Stats) uint64) func() float64 {
		return func() float64 { return float64(pick(c.Stats(context.Background()))) }
	}
	return reg.Register(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metrics.Namespace, Subsystem: "session", Name: "hits_total",
			Help: "Session cache hits.",
		}, stat(func(s Stats) uint64 { return s.Hits })),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metrics.Namespace, Subsystem: "session", Name: "misses_total",
			Help: "Session cache misses.",
		}, stat(func(s Stats) uint64 { return s.Misses })),
	)
}
