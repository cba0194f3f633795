package repo

import (
	"context"
	"time"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/go-arcade/gatehouse/pkg/database"
	"gorm.io/gorm"
)

// AuditRepo persists audit records.
type AuditRepo struct {
	database.IDatabase
}

var _ audit.Store = (*AuditRepo)(nil)

func NewAuditRepo(db database.IDatabase) *AuditRepo {
	return &AuditRepo{
		IDatabase: db,
	}
}

func (r *AuditRepo) Insert(ctx context.Context, rec *audit.Record) error {
	return r.Database().WithContext(ctx).Create(model.AuditLogFrom(rec)).Error
}

func (r *AuditRepo) List(ctx context.Context, f audit.Filter) ([]audit.Record, int64, error) {
	q := r.Database().WithContext(ctx).Model(&model.AuditLog{})
	if f.ActorId != "" {
		q = q.Where("actor_id = ?", f.ActorId)
	}
	if f.Action != "" {
		q = q.Where("action = ?", string(f.Action))
	}
	if f.TargetId != "" {
		q = q.Where("target_id = ?", f.TargetId)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}

	q = q.Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.AuditLog
	err := q.Order("created_at DESC").Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make([]audit.Record, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Record())
	}
	return out, count, nil
}

func (r *AuditRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.Database().WithContext(ctx).Where("created_at < ?", before).Delete(&model.AuditLog{})
	return res.RowsAffected, res.Error
}
