package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/internal/gatehouse/repo"
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/internal/pkg/session"
	"github.com/go-arcade/gatehouse/pkg/log"
	"gorm.io/gorm"
)

type UserService struct {
	users    repo.IUserRepository
	roles    repo.IRoleRepository
	sessions session.Cache
	audit    audit.Recorder
}

func NewUserService(users repo.IUserRepository, roles repo.IRoleRepository, sessions session.Cache, recorder audit.Recorder) *UserService {
	return &UserService{
		users:    users,
		roles:    roles,
		sessions: sessions,
		audit:    recorder,
	}
}

func userView(p model.Profile, roles []model.RoleRef) model.UserView {
	if roles == nil {
		roles = []model.RoleRef{}
	}
	return model.UserView{
		Profile:       p,
		EffectiveRole: rbac.EffectiveRole(p.ToUser()),
		Roles:         roles,
	}
}

func (us *UserService) List(ctx context.Context, page model.Page) (*model.UserList, error) {
	page.Normalize()
	profiles, total, err := us.users.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.Id)
	}
	roles, err := us.users.Roles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list user roles: %w", err)
	}
	out := &model.UserList{Users: make([]model.UserView, 0, len(profiles)), TotalCount: total}
	for _, p := range profiles {
		out.Users = append(out.Users, userView(p, roles[p.Id]))
	}
	return out, nil
}

func (us *UserService) get(ctx context.Context, id string) (*model.Profile, error) {
	p, err := us.users.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return p, nil
}

func (us *UserService) Get(ctx context.Context, id string) (*model.UserView, error) {
	p, err := us.get(ctx, id)
	if err != nil {
		return nil, err
	}
	roles, err := us.users.Roles(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("failed to load user roles: %w", err)
	}
	v := userView(*p, roles[id])
	return &v, nil
}

// resolveRoles accepts role names or ids and returns the matching roles.
func (us *UserService) resolveRoles(ctx context.Context, refs []string) ([]model.RoleRef, error) {
	refs = dedupe(refs)
	out := make([]model.RoleRef, 0, len(refs))
	for _, ref := range refs {
		role, err := us.roles.GetByName(ctx, ref)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role, err = us.roles.Get(ctx, ref)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("unknown role %q: %w", ref, ErrInvalidInput)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve role: %w", err)
		}
		out = append(out, model.RoleRef{Id: role.Id, Name: role.Name})
	}
	return out, nil
}

func refIds(refs []model.RoleRef) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.Id)
	}
	return ids
}

func refNames(refs []model.RoleRef) []string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return names
}

// defaultBadge capitalizes the first letter of role.
func defaultBadge(role string) string {
	if role == "" {
		return ""
	}
	return strings.ToUpper(role[:1]) + role[1:]
}

// Create adds a profile for an existing identity. Without a role the user
// is an Employee; without a badge the badge mirrors the role.
func (us *UserService) Create(ctx context.Context, actor *rbac.User, req *model.CreateUserReq) (*model.UserView, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", ErrInvalidInput)
	}
	id := req.Id
	if id == "" {
		id = newId()
	} else if _, err := us.users.Get(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, id)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = rbac.RoleEmployee
	}
	badge := strings.TrimSpace(req.RoleBadge)
	if badge == "" {
		badge = defaultBadge(role)
	}
	roles, err := us.resolveRoles(ctx, req.Roles)
	if err != nil {
		return nil, err
	}

	p := &model.Profile{
		Id:        id,
		Email:     email,
		FullName:  strings.TrimSpace(req.FullName),
		Role:      role,
		RoleBadge: badge,
	}
	if err := us.users.Create(ctx, p, refIds(roles)); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.WithContext(ctx).Infow("user created", "userId", p.Id, "role", p.Role, "roles", len(roles))
	us.audit.Record(ctx, audit.Entry{
		ActorId:  actorId(actor),
		Action:   audit.ActionUserCreated,
		TargetId: p.Id,
		Meta:     map[string]any{"email": p.Email, "role": p.Role, "role_badge": p.RoleBadge, "roles": refNames(roles)},
	})
	v := userView(*p, roles)
	return &v, nil
}

func (us *UserService) Update(ctx context.Context, actor *rbac.User, req *model.UpdateUserReq) (*model.UserView, error) {
	p, err := us.get(ctx, req.Id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.FullName != nil && *req.FullName != p.FullName {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
		p.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil && *req.Role != p.Role {
		updates["role"] = strings.TrimSpace(*req.Role)
		p.Role = strings.TrimSpace(*req.Role)
	}
	if req.RoleBadge != nil && *req.RoleBadge != p.RoleBadge {
		updates["role_badge"] = strings.TrimSpace(*req.RoleBadge)
		p.RoleBadge = strings.TrimSpace(*req.RoleBadge)
	}

	var (
		roles   []model.RoleRef
		replace = req.Roles != nil
	)
	if replace {
		roles, err = us.resolveRoles(ctx, *req.Roles)
		if err != nil {
			return nil, err
		}
	}

	if len(updates) == 0 && !replace {
		return us.Get(ctx, p.Id)
	}
	if err := us.users.Update(ctx, p.Id, updates, refIds(roles), replace); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	us.invalidate(ctx, p.Id)

	meta := map[string]any{"fields": mapKeys(updates)}
	if replace {
		meta["roles"] = refNames(roles)
	}
	log.WithContext(ctx).Infow("user updated", "userId", p.Id, "fields", len(updates), "rolesReplaced", replace)
	us.audit.Record(ctx, audit.Entry{
		ActorId:  actorId(actor),
		Action:   audit.ActionUserUpdated,
		TargetId: p.Id,
		Meta:     meta,
	})
	return us.Get(ctx, p.Id)
}

// Delete removes the profile and its assignments. Users cannot delete
// themselves.
func (us *UserService) Delete(ctx context.Context, actor *rbac.User, id string) error {
	if id == "" {
		return fmt.Errorf("id is required: %w", ErrInvalidInput)
	}
	if actor != nil && actor.Id == id {
		return fmt.Errorf("cannot delete your own account: %w", ErrInvalidInput)
	}
	p, err := us.get(ctx, id)
	if err != nil {
		return err
	}
	if err := us.users.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	us.invalidate(ctx, id)
	log.WithContext(ctx).Infow("user deleted", "userId", id)
	us.audit.Record(ctx, audit.Entry{
		ActorId:  actorId(actor),
		Action:   audit.ActionUserDeleted,
		TargetId: id,
		Meta:     map[string]any{"email": p.Email},
	})
	return nil
}

func (us *UserService) invalidate(ctx context.Context, userId string) {
	if err := us.sessions.InvalidateUser(ctx, userId); err != nil {
		log.WithContext(ctx).Warnw("failed to invalidate user sessions", "user", userId, "error", err)
	}
}
