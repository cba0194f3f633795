package service

import (
	"context"
	"fmt"

	"github.com/go-arcade/gatehouse/internal/gatehouse/model"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/pkg/log"
)

type AuthService struct {
	flat   *rbac.Evaluator
	policy *rbac.Policy
}

func NewAuthService(flat *rbac.Evaluator, policy *rbac.Policy) *AuthService {
	return &AuthService{flat: flat, policy: policy}
}

// Me describes user. held, when non-nil, is the already expanded code set.
func (as *AuthService) Me(ctx context.Context, user *rbac.User, held []string) (*model.MeView, error) {
	perms := held
	if perms == nil {
		var err error
		if perms, err = as.flat.Permissions(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to load permissions: %w", err)
		}
	}
	tree, err := as.policy.Tree(ctx, user)
	if err != nil {
		log.WithContext(ctx).Warnw("failed to load permission tree", "user", user.Id, "error", err)
		tree = rbac.Tree{}
	}
	return &model.MeView{
		User:              user,
		EffectiveRole:     rbac.EffectiveRole(user),
		IsSuperAdmin:      rbac.IsSuperAdmin(user),
		Permissions:       perms,
		PermissionModules: tree,
		EnabledActions:    as.policy.Granular().Summary(tree),
	}, nil
}

// Access reports what user may do with one module item. A super admin may
// do everything.
func (as *AuthService) Access(ctx context.Context, user *rbac.User, q *model.AccessQuery) (*model.AccessView, error) {
	view := &model.AccessView{Module: q.Module, Item: q.Item}
	if rbac.IsSuperAdmin(user) {
		view.HasAnyAccess = true
		view.Actions = rbac.Actions()
		view.CanView, view.CanCreate, view.CanEdit = true, true, true
		view.CanDelete, view.CanApprove, view.CanExport = true, true, true
		return view, nil
	}
	tree, err := as.policy.Tree(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission tree: %w", err)
	}
	g := as.policy.Granular()
	view.HasAnyAccess = g.HasAnyAccess(tree, q.Module, q.Item)
	view.Actions = g.EnabledActions(tree, q.Module, q.Item)
	view.CanView = g.CanView(tree, q.Module, q.Item)
	view.CanCreate = g.CanCreate(tree, q.Module, q.Item)
	view.CanEdit = g.CanEdit(tree, q.Module, q.Item)
	view.CanDelete = g.CanDelete(tree, q.Module, q.Item)
	view.CanApprove = g.CanApprove(tree, q.Module, q.Item)
	view.CanExport = g.CanExport(tree, q.Module, q.Item)
	return view, nil
}

// Dashboard lists the main dashboard items user can view.
func (as *AuthService) Dashboard(ctx context.Context, user *rbac.User) (*model.DashboardView, error) {
	g := as.policy.Granular()
	if rbac.IsSuperAdmin(user) {
		items := append([]string{rbac.MainDashboardParent},
			as.flat.Aliases().Hierarchies[rbac.MainDashboardModule][rbac.MainDashboardParent]...)
		view := &model.DashboardView{Items: make([]model.DashboardItem, 0, len(items))}
		for _, item := range items {
			view.Items = append(view.Items, model.DashboardItem{Item: item, Actions: rbac.Actions()})
		}
		return view, nil
	}
	tree, err := as.policy.Tree(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission tree: %w", err)
	}
	items := g.DashboardItems(tree)
	view := &model.DashboardView{Items: make([]model.DashboardItem, 0, len(items))}
	for _, item := range items {
		view.Items = append(view.Items, model.DashboardItem{
			Item:    item,
			Actions: g.EnabledActions(tree, rbac.MainDashboardModule, item),
		})
	}
	return view, nil
}

// Check answers a flat code, a granular triple, or a batch of granular
// checks. A batch result is keyed by module.item.action.
func (as *AuthService) Check(ctx context.Context, user *rbac.User, held []string, req *model.CheckReq) (*model.CheckResult, error) {
	switch {
	case len(req.Checks) > 0:
		results := make(map[string]bool, len(req.Checks))
		if rbac.IsSuperAdmin(user) {
			for _, c := range req.Checks {
				results[c.Key()] = true
			}
			return &model.CheckResult{Results: results}, nil
		}
		tree, err := as.policy.Tree(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to load permission tree: %w", err)
		}
		return &model.CheckResult{Results: as.policy.Granular().CheckMultiple(tree, req.Checks)}, nil

	case req.Code != "":
		ok, err := as.policy.Check(ctx, user, rbac.Request{Code: req.Code, Held: held})
		if err != nil {
			return nil, err
		}
		return &model.CheckResult{Allowed: &ok}, nil

	case req.Module != "":
		ok, err := as.policy.Check(ctx, user, rbac.Request{Module: req.Module, Item: req.Item, Action: req.Action})
		if err != nil {
			return nil, fmt.Errorf("failed to check permission: %w", err)
		}
		return &model.CheckResult{Allowed: &ok}, nil
	}
	return nil, fmt.Errorf("one of code, module or checks is required: %w", ErrInvalidInput)
}
