// Package authz is the single authorization checkpoint. A capability table maps
// each role to the permissions it holds; ownership policies then narrow what a
// role may do to a specific row.
package authz

import (
	"context"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
	"asdm/internal/app/role"
)

// Owned is implemented by rows that belong to one user.
type Owned interface {
	GetUserID() uint
}

// Policy narrows a granted permission for a concrete resource.
type Policy interface {
	Can(ctx context.Context, s *ds.Session, action Action, resource any) bool
}

type Gate struct {
	table    map[role.Role][]Permission
	policies map[string]Policy
}

// NewGate builds a gate with the ASDM capability table and ownership policies.
func NewGate() *Gate {
	g := &Gate{
		table:    DefaultTable(),
		policies: make(map[string]Policy),
	}
	g.Register(ResourceGrantRequest, OwnerPolicy{OwnerActions: []Action{ActionDelete}})
	g.Register(ResourceDocument, OwnerPolicy{})
	g.Register(ResourceNotification, OwnerPolicy{})
	g.Register(ResourceUser, OwnerPolicy{StaffActions: []Action{ActionView}})
	return g
}

// DefaultTable is the (role, action) → allowed table.
func DefaultTable() map[role.Role][]Permission {
	return map[role.Role][]Permission{
		role.Demandeur: {
			NewPermission(ResourceUser, ActionView),
			NewPermission(ResourceUser, ActionUpdate),

			NewPermission(ResourceGrantRequest, ActionCreate),
			NewPermission(ResourceGrantRequest, ActionView),
			NewPermission(ResourceGrantRequest, ActionList),
			NewPermission(ResourceGrantRequest, ActionUpdate),
			NewPermission(ResourceGrantRequest, ActionDelete),

			NewPermission(ResourceDocument, ActionCreate),
			NewPermission(ResourceDocument, ActionView),
			NewPermission(ResourceDocument, ActionList),
			NewPermission(ResourceDocument, ActionUpdate),
			NewPermission(ResourceDocument, ActionDelete),

			NewPermission(ResourceNotification, ActionView),
			NewPermission(ResourceNotification, ActionList),
			NewPermission(ResourceNotification, ActionMarkRead),
			NewPermission(ResourceNotification, ActionDelete),
		},
		role.Agent: {
			NewPermission(ResourceUser, ActionView),
			NewPermission(ResourceUser, ActionUpdate),
			NewPermission(ResourceAgent, ActionView),
			NewPermission(ResourceAgent, ActionList),
			NewPermission(ResourceGrantRequest, ActionCreate),
			NewPermission(ResourceGrantRequest, ActionCreateForOther),
			NewPermission(ResourceGrantRequest, ActionView),
			NewPermission(ResourceGrantRequest, ActionList),
			NewPermission(ResourceGrantRequest, ActionListAll),
			NewPermission(ResourceGrantRequest, ActionUpdate),
			NewPermission(ResourceGrantRequest, ActionDelete),
			NewPermission(ResourceGrantRequest, ActionUpdateStatus),
			NewPermission(ResourceGrantRequest, ActionAssign),
			NewPermission(ResourceGrantRequest, ActionDecide),
			NewPermission(ResourceDocument, wildcard),
			NewPermission(ResourcePayment, wildcard),
			NewPermission(ResourceReport, wildcard),
			NewPermission(ResourceNotification, wildcard),
			NewPermission(ResourceDashboard, ActionView),
		},
		role.Admin: {PermissionSuper},
	}
}

// Register attaches an ownership policy to a resource type.
func (g *Gate) Register(resource string, p Policy) {
	g.policies[resource] = p
}

// Authorize returns apperr.ErrUnauthenticated without a session and
// apperr.ErrForbidden when the role lacks the permission or the policy refuses
// the given resource. resource may be nil for create/list checks.
func (g *Gate) Authorize(ctx context.Context, s *ds.Session, action Action, resourceType string, resource any) error {
	if s == nil || s.UserID == 0 {
		return apperr.ErrUnauthenticated
	}
	if !g.allowed(s.Role, NewPermission(resourceType, action)) {
		return apperr.ErrForbidden
	}
	if resource != nil {
		if p, ok := g.policies[resourceType]; ok && !p.Can(ctx, s, action, resource) {
			return apperr.ErrForbidden
		}
	}
	return nil
}

func (g *Gate) Can(ctx context.Context, s *ds.Session, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, s, action, resourceType, resource) == nil
}

// OwnerScope returns the user id list queries must be restricted to, or nil
// when the caller may see every row of resourceType.
func (g *Gate) OwnerScope(s *ds.Session, resourceType string) *uint {
	if s == nil || g.allowed(s.Role, NewPermission(resourceType, ActionListAll)) {
		return nil
	}
	id := s.UserID
	return &id
}

func (g *Gate) allowed(r role.Role, requested Permission) bool {
	for _, p := range g.table[r] {
		if p.Matches(requested) {
			return true
		}
	}
	return false
}

// OwnerPolicy lets the owner act on its rows. Admins always pass. Agents pass
// for StaffActions, or for every action when StaffActions is empty, except the
// OwnerActions which they may only take on their own rows.
type OwnerPolicy struct {
	StaffActions []Action
	OwnerActions []Action
}

func (p OwnerPolicy) Can(_ context.Context, s *ds.Session, action Action, resource any) bool {
	switch s.Role {
	case role.Admin:
		return true
	case role.Agent:
		if !containsAction(p.OwnerActions, action) &&
			(len(p.StaffActions) == 0 || containsAction(p.StaffActions, action)) {
			return true
		}
	}
	o, ok := resource.(Owned)
	return ok && o.GetUserID() == s.UserID
}

func containsAction(actions []Action, action Action) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
