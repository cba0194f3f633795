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

// Package session caches resolved users by bearer token.
//
// Entries are stamped with generation counters for their user, their role
// and the whole cache. Invalidation bumps a counter; a stale stamp makes the
// entry a miss on the next read, so nothing has to iterate keys.
package session

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"golang.org/x/crypto/blake2b"
)

const (
	BackendLocal = "local"
	BackendRedis = "redis"

	MaxTTL     = 5 * time.Minute
	DefaultTTL = MaxTTL
)

// Entry is what a token resolves to.
type Entry struct {
	User *rbac.User `json:"user"`
	// Permissions is the expanded code set; nil until first computed. An
	// empty slice means computed and empty, and survives encoding.
	Permissions []string `json:"permissions"`
}

type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   uint64 `json:"size"`
}

type Cache interface {
	Get(ctx context.Context, token string) (*Entry, bool)
	Set(ctx context.Context, token string, e *Entry) error
	InvalidateUser(ctx context.Context, userId string) error
	InvalidateRole(ctx context.Context, role string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) Stats
}

// stamp is the generation snapshot an entry was stored under.
type stamp struct {
	Epoch uint64 `json:"epoch"`
	User  uint64 `json:"user"`
	Role  uint64 `json:"role"`
}

type record struct {
	Entry *Entry `json:"entry"`
	Stamp stamp  `json:"stamp"`
}

// Key hashes a token so raw credentials never become cache keys.
func Key(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// roleOf is the role name an entry is invalidated under.
func roleOf(e *Entry) string {
	return rbac.EffectiveRole(e.User)
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	if ttl > MaxTTL {
		return MaxTTL
	}
	return ttl
}

func encode(r record) ([]byte, error) {
	data, err := sonic.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}

func decode(data []byte) (record, error) {
	var r record
	if err := sonic.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to decode session: %w", err)
	}
	if r.Entry == nil || r.Entry.User == nil {
		return r, fmt.Errorf("failed to decode session: empty entry")
	}
	return r, nil
}
