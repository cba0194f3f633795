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
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "gatehouse:"

// Redis shares sessions between replicas. Entries expire through native
// key TTLs; generations are plain INCR counters.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ Cache = (*Redis)(nil)

func NewRedis(client *redis.Client, ttl time.Duration, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: clampTTL(ttl)}
}

func (r *Redis) sessionKey(token string) string { return r.prefix + "session:" + Key(token) }
func (r *Redis) epochKey() string { return r.prefix + "gen:epoch" }
func (r *Redis) userKey(id string) string { return r.prefix + "gen:user:" + id }
func (r *Redis) roleKey(role string) string { return r.prefix + "gen:role:" + role }

func (r *Redis) current(ctx context.Context, userId, role string) (stamp, error) {
	vals, err := r.client.MGet(ctx, r.epochKey(), r.userKey(userId), r.roleKey(role)).Result()
	if err != nil {
		return stamp{}, fmt.Errorf("failed to read generations: %w", err)
	}
	gens := make([]uint64, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return stamp{}, fmt.Errorf("failed to parse generation: %w", err)
		}
		gens[i] = n
	}
	return stamp{Epoch: gens[0], User: gens[1], Role: gens[2]}, nil
}

func (r *Redis) miss() (*Entry, bool) {
	r.misses.Add(1)
	return nil, false
}

func (r *Redis) Get(ctx context.Context, token string) (*Entry, bool) {
	raw, err := r.client.Get(ctx, r.sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return r.miss()
	}
	if err != nil {
		log.WithContext(ctx).Warnw("session lookup failed", "error", err)
		return r.miss()
	}
	rec, err := decode(raw)
	if err != nil {
		log.WithContext(ctx).Warnw("dropping unreadable session", "error", err)
		r.client.Del(ctx, r.sessionKey(token))
		return r.miss()
	}
	cur, err := r.current(ctx, rec.Entry.User.Id, roleOf(rec.Entry))
	if err != nil {
		log.WithContext(ctx).Warnw("session lookup failed", "error", err)
		return r.miss()
	}
	if rec.Stamp != cur {
		r.client.Del(ctx, r.sessionKey(token))
		return r.miss()
	}
	r.hits.Add(1)
	return rec.Entry, true
}

func (r *Redis) Set(ctx context.Context, token string, e *Entry) error {
	cur, err := r.current(ctx, e.User.Id, roleOf(e))
	if err != nil {
		return err
	}
	data, err := encode(record{Entry: e, Stamp: cur})
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.sessionKey(token), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *Redis) bump(ctx context.Context, key string) error {
	if err := r.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to bump generation %s: %w", key, err)
	}
	return nil
}

func (r *Redis) InvalidateUser(ctx context.Context, userId string) error {
	return r.bump(ctx, r.userKey(userId))
}

func (r *Redis) InvalidateRole(ctx context.Context, role string) error {
	return r.bump(ctx, r.roleKey(role))
}

// Clear bumps the epoch; stored sessions age out through their TTL.
func (r *Redis) Clear(ctx context.Context) error {
	return r.bump(ctx, r.epochKey())
}

// Stats counts stored sessions with SCAN, so it is meant for occasional use.
func (r *Redis) Stats(ctx context.Context) Stats {
	s := Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
	iter := r.client.Scan(ctx, 0, r.prefix+"session:*", 256).Iterator()
	for iter.Next(ctx) {
		s.Size++
	}
	if err := iter.Err(); err != nil {
		log.WithContext(ctx).Warnw("session scan failed", "error", err)
	}
	return s
}
