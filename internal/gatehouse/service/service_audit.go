package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
)

// AuditReader is the query side of the audit sink.
type AuditReader interface {
	List(ctx context.Context, f audit.Filter) ([]audit.Record, int64, error)
}

type AuditService struct {
	reader AuditReader
}

func NewAuditService(reader AuditReader) *AuditService {
	return &AuditService{reader: reader}
}

func (as *AuditService) List(ctx context.Context, q model.AuditQuery) (*model.AuditLogList, error) {
	f := audit.Filter{
		ActorId:  q.ActorId,
		Action:   audit.Action(q.Action),
		TargetId: q.TargetId,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.Since != "" {
		since, err := time.Parse(time.RFC3339, q.Since)
		if err != nil {
			return nil, fmt.Errorf("since must be RFC3339: %w", ErrInvalidInput)
		}
		f.Since = since
	}
	logs, total, err := as.reader.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	if logs == nil {
		logs = []audit.Record{}
	}
	return &model.AuditLogList{Logs: logs, TotalCount: total}, nil
}
