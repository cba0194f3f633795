package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/internal/pkg/session"
	"github.com/go-arcade/gatehouse/pkg/log"
)

// SessionService lets admins inspect and flush the session cache.
type SessionService struct {
	sessions session.Cache
}

func NewSessionService(sessions session.Cache) *SessionService {
	return &SessionService{sessions: sessions}
}

func (ss *SessionService) Stats(ctx context.Context) session.Stats {
	return ss.sessions.Stats(ctx)
}

// Clear drops every cached session.
func (ss *SessionService) Clear(ctx context.Context, actor *rbac.User) error {
	if err := ss.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	log.WithContext(ctx).Infow("session cache cleared", "actor", actorId(actor))
	return nil
}

// InvalidateUser drops the cached sessions of one user.
func (ss *SessionService) InvalidateUser(ctx context.Context, actor *rbac.User, userId string) error {
	userId = strings.TrimSpace(userId)
	if userId == "" {
		return fmt.Errorf("user id is required: %w", ErrInvalidInput)
	}
	if err := ss.sessions.InvalidateUser(ctx, userId); err != nil {
		return fmt.Errorf("failed to invalidate sessions of %s: %w", userId, err)
	}
	log.WithContext(ctx).Infow("user sessions invalidated", "actor", actorId(actor), "user", userId)
	return nil
}
