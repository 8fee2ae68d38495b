package authz

import "strings"

// Action is what a caller wants to do on a resource type.
type Action string

const (
	ActionView    Action = "view"
	ActionList    Action = "list"
	ActionListAll Action = "list_all" // list without owner scoping
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"

	ActionCreateStaff    Action = "create_staff"     // account with a role other than demandeur
	ActionCreateForOther Action = "create_for_other" // on behalf of another user
	ActionDeleteAny      Action = "delete_any"       // whatever the status

	ActionUpdateStatus Action = "update_status"
	ActionAssign       Action = "assign"
	ActionDecide       Action = "decide"
	ActionProcess      Action = "process"
	ActionCancel       Action = "cancel"
	ActionMarkRead     Action = "mark_read"
	ActionGenerate     Action = "generate"
)

// Resource types known to the gate.
const (
	ResourceUser         = "utilisateur"
	ResourceAgent        = "agent"
	ResourceGrantRequest = "demande"
	ResourceDocument     = "document"
	ResourcePayment      = "paiement"
	ResourceReport       = "rapport"
	ResourceNotification = "notification"
	ResourceDashboard    = "dashboard"
)

// Permission is "resource:action", e.g. "demande:decide".
type Permission string

const (
	wildcard        = "*"
	PermissionSuper = Permission("*:*")
)

func NewPermission(resource string, action Action) Permission {
	return Permission(resource + ":" + string(action))
}

func (p Permission) Parse() (resource string, action Action) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], Action(parts[1])
}

// Matches supports "*:*" and "resource:*".
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuper || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == wildcard
}
