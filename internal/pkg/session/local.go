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
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-arcade/gatehouse/pkg/cache"
	"github.com/go-arcade/gatehouse/pkg/log"
)

// Local keeps sessions in process memory, bounded in bytes.
type Local struct {
	store *cache.FastCache
	ttl   time.Duration

	mu    sync.RWMutex
	epoch uint64
	users map[string]uint64
	roles map[string]uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ Cache = (*Local)(nil)

func NewLocal(ttl time.Duration, maxBytes int) *Local {
	return &Local{
		store: cache.NewFastCache(maxBytes),
		ttl:   clampTTL(ttl),
		users: make(map[string]uint64),
		roles: make(map[string]uint64),
	}
}

func (l *Local) current(userId, role string) stamp {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return stamp{Epoch: l.epoch, User: l.users[userId], Role: l.roles[role]}
}

func (l *Local) Get(_ context.Context, token string) (*Entry, bool) {
	key := Key(token)
	raw, ok := l.store.Get(key)
	if !ok {
		l.misses.Add(1)
		return nil, false
	}
	r, err := decode(raw)
	if err != nil {
		log.Warnw("dropping unreadable session", "error", err)
		l.store.Del(key)
		l.misses.Add(1)
		return nil, false
	}
	if r.Stamp != l.current(r.Entry.User.Id, roleOf(r.Entry)) {
		l.store.Del(key)
		l.misses.Add(1)
		return nil, false
	}
	l.hits.Add(1)
	return r.Entry, true
}

func (l *Local) Set(_ context.Context, token string, e *Entry) error {
	data, err := encode(record{Entry: e, Stamp: l.current(e.User.Id, roleOf(e))})
	if err != nil {
		return err
	}
	l.store.Set(Key(token), data, l.ttl)
	return nil
}

func (l *Local) InvalidateUser(_ context.Context, userId string) error {
	l.mu.Lock()
	l.users[userId]++
	l.mu.Unlock()
	return nil
}

func (l *Local) InvalidateRole(_ context.Context, role string) error {
	l.mu.Lock()
	l.roles[role]++
	l.mu.Unlock()
	return nil
}

func (l *Local) Clear(_ context.Context) error {
	l.mu.Lock()
	l.epoch++
	l.mu.Unlock()
	l.store.Reset()
	return nil
}

func (l *Local) Stats(_ context.Context) Stats {
	return Stats{Hits: l.hits.Load(), Misses: l.misses.Load(), Size: l.store.Len()}
}
