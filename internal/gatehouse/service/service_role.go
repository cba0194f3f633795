package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/internal/gatehouse/repo"
	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/internal/pkg/session"
	"github.com/go-arcade/gatehouse/pkg/log"
	"gorm.io/gorm"
)

type RoleService struct {
	roles    repo.IRoleRepository
	perms    repo.IPermissionRepository
	sessions session.Cache
	audit    audit.Recorder
}

func NewRoleService(roles repo.IRoleRepository, perms repo.IPermissionRepository, sessions session.Cache, recorder audit.Recorder) *RoleService {
	return &RoleService{
		roles:    roles,
		perms:    perms,
		sessions: sessions,
		audit:    recorder,
	}
}

func (rs *RoleService) view(role *model.Role, codes []string, users int64) (*model.RoleView, error) {
	tree, err := rbac.ParseTree([]byte(role.PermissionsJSON))
	if err != nil {
		return nil, fmt.Errorf("role %s: %w", role.Id, err)
	}
	if codes == nil {
		codes = []string{}
	}
	return &model.RoleView{
		Id:                role.Id,
		Name:              role.Name,
		Description:       role.Description,
		Permissions:       codes,
		PermissionModules: tree,
		UserCount:         users,
		Timestamps:        role.Timestamps,
	}, nil
}

func (rs *RoleService) get(ctx context.Context, id string) (*model.Role, error) {
	role, err := rs.roles.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return role, nil
}

// List returns every role with its codes and user count.
func (rs *RoleService) List(ctx context.Context) ([]model.RoleView, error) {
	roles, err := rs.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.Id)
	}
	codes, err := rs.roles.PermissionCodes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}
	out := make([]model.RoleView, 0, len(roles))
	for i := range roles {
		users, err := rs.roles.CountUsers(ctx, &roles[i])
		if err != nil {
			return nil, fmt.Errorf("failed to count role users: %w", err)
		}
		v, err := rs.view(&roles[i], codes[roles[i].Id], users)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (rs *RoleService) Get(ctx context.Context, id string) (*model.RoleView, error) {
	role, err := rs.get(ctx, id)
	if err != nil {
		return nil, err
	}
	codes, err := rs.roles.PermissionCodes(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}
	users, err := rs.roles.CountUsers(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to count role users: %w", err)
	}
	return rs.view(role, codes[id], users)
}

// resolveCodes maps codes onto catalogue ids. Unknown codes are logged and
// skipped. The returned codes are the ones that resolved, sorted.
func (rs *RoleService) resolveCodes(ctx context.Context, codes []string) ([]string, []string, error) {
	codes = dedupe(codes)
	perms, err := rs.perms.ByCodes(ctx, codes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve permissions: %w", err)
	}
	known := make(map[string]string, len(perms))
	for _, p := range perms {
		known[p.Code] = p.Id
	}
	ids := make([]string, 0, len(perms))
	resolved := make([]string, 0, len(perms))
	for _, c := range codes {
		pid, ok := known[c]
		if !ok {
			log.WithContext(ctx).Warnw("skipping unknown permission code", "code", c)
			continue
		}
		ids = append(ids, pid)
		resolved = append(resolved, c)
	}
	slices.Sort(ids)
	slices.Sort(resolved)
	return ids, resolved, nil
}

func (rs *RoleService) ensureNameFree(ctx context.Context, name, excludeId string) error {
	taken, err := rs.roles.NameTaken(ctx, name, excludeId)
	if err != nil {
		return fmt.Errorf("failed to check role name: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrRoleNameTaken, name)
	}
	return nil
}

func (rs *RoleService) Create(ctx context.Context, actor *rbac.User, req *model.CreateRoleReq) (*model.RoleView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if err := req.PermissionModules.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	if err := rs.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	treeJSON, err := req.PermissionModules.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode permission tree: %w", err)
	}
	ids, codes, err := rs.resolveCodes(ctx, append(slices.Clone(req.Permissions), req.PermissionModules.Codes()...))
	if err != nil {
		return nil, err
	}

	role := &model.Role{
		Id:              newId(),
		Name:            name,
		Description:     req.Description,
		PermissionsJSON: string(treeJSON),
	}
	if err := rs.roles.Create(ctx, role, ids); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	log.WithContext(ctx).Infow("role created", "roleId", role.Id, "name", role.Name, "permissions", len(ids))
	rs.audit.Record(ctx, audit.Entry{
		ActorId:  actorId(actor),
		Action:   audit.ActionRoleCreated,
		TargetId: role.Id,
		Meta:     map[string]any{"name": role.Name, "permissions": codes},
	})
	return rs.view(role, codes, 0)
}

// Update applies req. The permission set is replaced in one transaction and
// only when it differs from the stored one.
func (rs *RoleService) Update(ctx context.Context, actor *rbac.User, req *model.UpdateRoleReq) (*model.RoleView, error) {
	role, err := rs.get(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	oldName := role.Name

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
		}
		if name != role.Name {
			if err := rs.ensureNameFree(ctx, name, role.Id); err != nil {
				return nil, err
			}
			updates["name"] = name
			role.Name = name
		}
	}
	if req.Description != nil && *req.Description != role.Description {
		updates["description"] = *req.Description
		role.Description = *req.Description
	}

	oldTree, err := rbac.ParseTree([]byte(role.PermissionsJSON))
	if err != nil {
		return nil, fmt.Errorf("role %s: %w", role.Id, err)
	}
	newTree := oldTree
	if req.PermissionModules != nil {
		newTree = *req.PermissionModules
		if err := newTree.Validate(); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
		}
		treeJSON, err := newTree.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to encode permission tree: %w", err)
		}
		updates["permissions_json"] = string(treeJSON)
		role.PermissionsJSON = string(treeJSON)
	}

	current, err := rs.roles.PermissionCodes(ctx, []string{role.Id})
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}
	currentCodes := current[role.Id]

	var (
		ids     []string
		codes   = currentCodes
		replace bool
	)
	if req.Permissions != nil || req.PermissionModules != nil {
		base := without(currentCodes, oldTree.Codes())
		if req.Permissions != nil {
			base = *req.Permissions
		}
		ids, codes, err = rs.resolveCodes(ctx, append(slices.Clone(base), newTree.Codes()...))
		if err != nil {
			return nil, err
		}
		currentIds, err := rs.perms.IdsOf(ctx, role.Id)
		if err != nil {
			return nil, fmt.Errorf("failed to load role permissions: %w", err)
		}
		slices.Sort(currentIds)
		replace = !slices.Equal(ids, currentIds)
	}

	if len(updates) > 0 || replace {
		if err := rs.roles.Update(ctx, role.Id, updates, ids, replace); err != nil {
			return nil, fmt.Errorf("failed to update role: %w", err)
		}
		rs.invalidateRole(ctx, role.Id, oldName, role.Name)
		rs.audit.Record(ctx, audit.Entry{
			ActorId:  actorId(actor),
			Action:   audit.ActionRoleUpdated,
			TargetId: role.Id,
			Meta: map[string]any{
				"name":                 role.Name,
				"fields":               mapKeys(updates),
				"permissions_replaced": replace,
				"permissions":          codes,
			},
		})
	}
	log.WithContext(ctx).Infow("role updated", "roleId", role.Id, "fields", len(updates), "permissionsReplaced", replace)

	users, err := rs.roles.CountUsers(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to count role users: %w", err)
	}
	return rs.view(role, codes, users)
}

// Delete refuses while any profile or assignment references the role.
func (rs *RoleService) Delete(ctx context.Context, actor *rbac.User, id string) error {
	role, err := rs.get(ctx, id)
	if err != nil {
		return err
	}
	users, err := rs.roles.CountUsers(ctx, role)
	if err != nil {
		return fmt.Errorf("failed to count role users: %w", err)
	}
	if users > 0 {
		return fmt.Errorf("%w: %s has %d users", ErrRoleInUse, role.Name, users)
	}
	if err := rs.roles.Delete(ctx, role.Id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to delete role: %w", err)
	}
	rs.invalidateRole(ctx, role.Id, role.Name)
	log.WithContext(ctx).Infow("role deleted", "roleId", role.Id, "name", role.Name)
	rs.audit.Record(ctx, audit.Entry{
		ActorId:  actorId(actor),
		Action:   audit.ActionRoleDeleted,
		TargetId: role.Id,
		Meta:     map[string]any{"name": role.Name},
	})
	return nil
}

// maxCopies bounds the search for a free "(Copy N)" name.
const maxCopies = 100

// Clone copies a role's codes and tree under a new name. Without an
// explicit name the copy is "Name (Copy)", then "Name (Copy 2)" and so on.
func (rs *RoleService) Clone(ctx context.Context, actor *rbac.User, id string, req *model.CloneRoleReq) (*model.RoleView, error) {
	src, err := rs.get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name != "" {
		if err := rs.ensureNameFree(ctx, name, ""); err != nil {
			return nil, err
		}
	} else {
		name, err = rs.copyName(ctx, src.Name)
		if err != nil {
			return nil, err
		}
	}

	codes, err := rs.roles.PermissionCodes(ctx, []string{src.Id})
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}
	ids, resolved, err := rs.resolveCodes(ctx, codes[src.Id])
	if err != nil {
		return nil, err
	}

	role := &model.Role{
		Id:              newId(),
		Name:            name,
		Description:     src.Description,
		PermissionsJSON: src.PermissionsJSON,
	}
	if role.PermissionsJSON == "" {
		role.PermissionsJSON = "{}"
	}
	if err := rs.roles.Create(ctx, role, ids); err != nil {
		return nil, fmt.Errorf("failed to clone role: %w", err)
	}

	log.WithContext(ctx).Infow("role cloned", "from", src.Id, "roleId", role.Id, "name", role.Name)
	rs.audit.Record(ctx, audit.Entry{
		ActorId:  actorId(actor),
		Action:   audit.ActionRoleCloned,
		TargetId: role.Id,
		Meta:     map[string]any{"name": role.Name, "source_id": src.Id, "source_name": src.Name},
	})
	return rs.view(role, resolved, 0)
}

func (rs *RoleService) copyName(ctx context.Context, base string) (string, error) {
	for n := 1; n <= maxCopies; n++ {
		name := base + " (Copy)"
		if n > 1 {
			name = fmt.Sprintf("%s (Copy %d)", base, n)
		}
		taken, err := rs.roles.NameTaken(ctx, name, "")
		if err != nil {
			return "", fmt.Errorf("failed to check role name: %w", err)
		}
		if !taken {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: no free copy name for %s", ErrRoleNameTaken, base)
}

// invalidateRole drops cached sessions of every name the role had and of
// every user explicitly assigned to it.
func (rs *RoleService) invalidateRole(ctx context.Context, roleId string, names ...string) {
	for _, name := range dedupe(names) {
		if err := rs.sessions.InvalidateRole(ctx, name); err != nil {
			log.WithContext(ctx).Warnw("failed to invalidate role sessions", "role", name, "error", err)
		}
	}
	userIds, err := rs.roles.UserIds(ctx, roleId)
	if err != nil {
		log.WithContext(ctx).Warnw("failed to list role users", "roleId", roleId, "error", err)
		return
	}
	for _, uid := range userIds {
		if err := rs.sessions.InvalidateUser(ctx, uid); err != nil {
			log.WithContext(ctx).Warnw("failed to invalidate user sessions", "user", uid, "error", err)
		}
	}
}

// Permissions lists the code catalogue.
func (rs *RoleService) Permissions(ctx context.Context) ([]model.Permission, error) {
	perms, err := rs.perms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return perms, nil
}
