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

package audit

import (
	"context"
	"time"
)

type Action string

const (
	ActionRoleCreated Action = "role_created"
	ActionRoleUpdated Action = "role_updated"
	ActionRoleDeleted Action = "role_deleted"
	ActionRoleCloned  Action = "role_cloned"
	ActionUserCreated Action = "user_created"
	ActionUserUpdated Action = "user_updated"
	ActionUserDeleted Action = "user_deleted"
)

// Entry is what callers hand to Record.
type Entry struct {
	ActorId  string
	Action   Action
	TargetId string
	Meta     map[string]any
}

// Record is a stored audit row.
type Record struct {
	Id        string    `json:"id"`
	ActorId   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	TargetId  *string   `json:"target_id"`
	MetaJSON  string    `json:"meta_json"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	ActorId  string
	Action   Action
	TargetId string
	Since    time.Time
	Page     int
	PageSize int
}

func (f *Filter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 50
	}
	if f.PageSize > 500 {
		f.PageSize = 500
	}
}

// Store persists audit rows.
type Store interface {
	Insert(ctx context.Context, r *Record) error
	List(ctx context.Context, f Filter) ([]Record, int64, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Recorder is the fire-and-forget side handed to services.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}
