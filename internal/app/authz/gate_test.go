package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
	"asdm/internal/app/role"
)

var (
	demandeur = &ds.Session{UserID: 1, Role: role.Demandeur}
	other     = &ds.Session{UserID: 2, Role: role.Demandeur}
	agent     = &ds.Session{UserID: 3, Role: role.Agent}
	admin     = &ds.Session{UserID: 4, Role: role.Admin}
)

func TestPermission_Matches(t *testing.T) {
	assert.Equal(t, Permission("demande:decide"), NewPermission(ResourceGrantRequest, ActionDecide))
	assert.True(t, PermissionSuper.Matches("paiement:cancel"))
	assert.True(t, Permission("demande:*").Matches("demande:assign"))
	assert.False(t, Permission("demande:*").Matches("paiement:view"))
	assert.False(t, Permission("demande:view").Matches("demande:update"))
	assert.False(t, Permission("broken").Matches("broken"+":x"))
}

func TestAuthorize_NoSession(t *testing.T) {
	g := NewGate()
	err := g.Authorize(context.Background(), nil, ActionView, ResourceGrantRequest, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	err = g.Authorize(context.Background(), &ds.Session{}, ActionView, ResourceGrantRequest, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestCapabilityTable(t *testing.T) {
	g := NewGate()
	ctx := context.Background()
	tests := []struct {
		name     string
		s        *ds.Session
		action   Action
		resource string
		want     bool
	}{
		{"demandeur submits", demandeur, ActionCreate, ResourceGrantRequest, true},
		{"demandeur cannot change status", demandeur, ActionUpdateStatus, ResourceGrantRequest, false},
		{"demandeur cannot assign", demandeur, ActionAssign, ResourceGrantRequest, false},
		{"demandeur cannot decide", demandeur, ActionDecide, ResourceGrantRequest, false},
		{"demandeur cannot send notifications", demandeur, ActionCreate, ResourceNotification, false},
		{"demandeur cannot manage payments", demandeur, ActionCreate, ResourcePayment, false},
		{"demandeur cannot see reports", demandeur, ActionList, ResourceReport, false},
		{"demandeur cannot list users", demandeur, ActionList, ResourceUser, false},
		{"agent changes status", agent, ActionUpdateStatus, ResourceGrantRequest, true},
		{"agent processes payment", agent, ActionProcess, ResourcePayment, true},
		{"agent creates notification", agent, ActionCreate, ResourceNotification, true},
		{"agent generates report", agent, ActionGenerate, ResourceReport, true},
		{"agent reads dashboard", agent, ActionView, ResourceDashboard, true},
		{"agent cannot list users", agent, ActionList, ResourceUser, false},
		{"agent cannot create agents", agent, ActionCreate, ResourceAgent, false},
		{"demandeur submits only for itself", demandeur, ActionCreateForOther, ResourceGrantRequest, false},
		{"agent submits on behalf", agent, ActionCreateForOther, ResourceGrantRequest, true},
		{"agent cannot delete decided requests", agent, ActionDeleteAny, ResourceGrantRequest, false},
		{"admin deletes decided requests", admin, ActionDeleteAny, ResourceGrantRequest, true},
		{"demandeur cannot edit notifications", demandeur, ActionUpdate, ResourceNotification, false},
		{"agent edits notifications", agent, ActionUpdate, ResourceNotification, true},
		{"open registration is demandeur only", demandeur, ActionCreateStaff, ResourceUser, false},
		{"agent cannot create staff accounts", agent, ActionCreateStaff, ResourceUser, false},
		{"admin creates staff accounts", admin, ActionCreateStaff, ResourceUser, true},
		{"admin lists users", admin, ActionList, ResourceUser, true},
		{"admin deletes users", admin, ActionDelete, ResourceUser, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Can(ctx, tt.s, tt.action, tt.resource, nil))
		})
	}
}

func TestOwnership(t *testing.T) {
	g := NewGate()
	ctx := context.Background()
	req := &ds.GrantRequest{ID: 10, UserID: demandeur.UserID}

	assert.True(t, g.Can(ctx, demandeur, ActionView, ResourceGrantRequest, req))
	assert.True(t, g.Can(ctx, demandeur, ActionUpdate, ResourceGrantRequest, req))
	assert.True(t, g.Can(ctx, agent, ActionUpdate, ResourceGrantRequest, req))
	assert.True(t, g.Can(ctx, admin, ActionDelete, ResourceGrantRequest, req))
	assert.False(t, g.Can(ctx, agent, ActionDelete, ResourceGrantRequest, req), "agents delete only their own")
	assert.True(t, g.Can(ctx, agent, ActionDelete, ResourceGrantRequest, &ds.GrantRequest{UserID: agent.UserID}))
	assert.True(t, g.Can(ctx, demandeur, ActionDelete, ResourceGrantRequest, req))

	err := g.Authorize(ctx, other, ActionView, ResourceGrantRequest, req)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	doc := &ds.Document{GrantRequestID: 10, GrantRequest: *req}
	assert.True(t, g.Can(ctx, demandeur, ActionView, ResourceDocument, doc))
	assert.False(t, g.Can(ctx, other, ActionView, ResourceDocument, doc))

	n := &ds.Notification{UserID: other.UserID}
	assert.True(t, g.Can(ctx, other, ActionMarkRead, ResourceNotification, n))
	assert.False(t, g.Can(ctx, demandeur, ActionMarkRead, ResourceNotification, n))
}

func TestUserPolicy(t *testing.T) {
	g := NewGate()
	ctx := context.Background()
	u := &ds.User{ID: demandeur.UserID, Role: role.Demandeur}

	assert.True(t, g.Can(ctx, demandeur, ActionUpdate, ResourceUser, u))
	assert.False(t, g.Can(ctx, other, ActionView, ResourceUser, u))
	assert.True(t, g.Can(ctx, agent, ActionView, ResourceUser, u))
	assert.False(t, g.Can(ctx, agent, ActionUpdate, ResourceUser, u), "agents only update themselves")
	assert.True(t, g.Can(ctx, admin, ActionUpdate, ResourceUser, u))
}

func TestOwnerScope(t *testing.T) {
	g := NewGate()

	scope := g.OwnerScope(demandeur, ResourceNotification)
	require.NotNil(t, scope)
	assert.Equal(t, demandeur.UserID, *scope)

	assert.Nil(t, g.OwnerScope(agent, ResourceNotification))
	assert.Nil(t, g.OwnerScope(admin, ResourceGrantRequest))
	assert.NotNil(t, g.OwnerScope(demandeur, ResourceDocument))
}
