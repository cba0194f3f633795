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

package cache

import (
	"encoding/binary"
	"time"

	"github.com/VictoriaMetrics/fastcache"
)

const (
	defaultMaxBytes = 32 * 1024 * 1024
	expiryLen       = 8
)

// FastCache is a byte-bounded in-process cache. Each value is stored with
// its deadline prefixed, so expiry needs no side table and no timers;
// expired entries are dropped on read or evicted by fastcache when full.
type FastCache struct {
	cache *fastcache.Cache
	now   func() time.Time
}

// NewFastCache creates a cache holding at most maxBytes (32MB when <= 0).
func NewFastCache(maxBytes int) *FastCache {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &FastCache{
		cache: fastcache.New(maxBytes),
		now:   time.Now,
	}
}

// Get returns the value if present and not expired.
func (fc *FastCache) Get(key string) ([]byte, bool) {
	raw, ok := fc.cache.HasGet(nil, []byte(key))
	if !ok || len(raw) < expiryLen {
		return nil, false
	}
	deadline := int64(binary.BigEndian.Uint64(raw[:expiryLen]))
	if deadline != 0 && fc.now().UnixNano() >= deadline {
		fc.cache.Del([]byte(key))
		return nil, false
	}
	return raw[expiryLen:], true
}

// Set stores value until ttl elapses. ttl <= 0 keeps it until evicted.
func (fc *FastCache) Set(key string, value []byte, ttl time.Duration) {
	buf := make([]byte, expiryLen+len(value))
	var deadline int64
	if ttl > 0 {
		deadline = fc.now().Add(ttl).UnixNano()
	}
	binary.BigEndian.PutUint64(buf[:expiryLen], uint64(deadline))
	copy(buf[expiryLen:], value)
	fc.cache.Set([]byte(key), buf)
}

func (fc *FastCache) Del(key string) {
	fc.cache.Del([]byte(key))
}

// Reset drops every entry.
func (fc *FastCache) Reset() {
	fc.cache.Reset()
}

// Len is the number of stored entries, expired ones included until read.
func (fc *FastCache) Len() uint64 {
	var s fastcache.Stats
	fc.cache.UpdateStats(&s)
	return s.EntriesCount
}
