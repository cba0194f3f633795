package model

import (
	"time"

	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"gorm.io/datatypes"
)

type AuditLog struct {
	Id        string         `gorm:"column:id;primaryKey;size:26" json:"id"`
	ActorId   string         `gorm:"column:actor_id;index;size:36" json:"actor_id"`
	Action    string         `gorm:"column:action;index;size:50" json:"action"`
	TargetId  *string        `gorm:"column:target_id;size:36" json:"target_id"`
	MetaJSON  datatypes.JSON `gorm:"column:meta_json;type:text" json:"meta_json"`
	CreatedAt time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (a *AuditLog) TableName() string {
	return "audit_logs"
}

func AuditLogFrom(r *audit.Record) *AuditLog {
	return &AuditLog{
		Id:        r.Id,
		ActorId:   r.ActorId,
		Action:    string(r.Action),
		TargetId:  r.TargetId,
		MetaJSON:  datatypes.JSON(r.MetaJSON),
		CreatedAt: r.CreatedAt,
	}
}

func (a *AuditLog) Record() audit.Record {
	return audit.Record{
		Id:        a.Id,
		ActorId:   a.ActorId,
		Action:    audit.Action(a.Action),
		TargetId:  a.TargetId,
		MetaJSON:  string(a.MetaJSON),
		CreatedAt: a.CreatedAt,
	}
}

type AuditLogList struct {
	Logs       []audit.Record `json:"logs"`
	TotalCount int64          `json:"totalCount"`
}
