// Package workflow holds the state transitions of grant requests, payments and
// notifications. Functions mutate the entity in memory only; persisting the
// result is the caller's job.
package workflow

import (
	"strings"
	"time"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
	"asdm/internal/app/role"
)

type Engine struct {
	now func() time.Time
}

// New returns an Engine reading time from now. A nil now means time.Now.
func New(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

func (e *Engine) stamp() *time.Time {
	t := e.now()
	return &t
}

// Submit initialises a new grant request. A request that already has an id
// was submitted before and cannot be submitted again.
func (e *Engine) Submit(r *ds.GrantRequest) error {
	if r.ID != 0 {
		return apperr.Invalid("id", "already_submitted")
	}
	v := apperr.Violations{}
	if r.UserID == 0 {
		v.Add("utilisateur_id", "required")
	}
	if !r.Type.Valid() {
		v.Add("type", "invalid_choice")
	}
	if r.Amount <= 0 {
		v.Add("montant", "must_be_positive")
	}
	if err := v.Err(); err != nil {
		return err
	}

	r.Status = ds.StatusPending
	r.SubmittedAt = e.now()
	r.ProcessedAt = nil
	r.AgentID = nil
	return nil
}

// AssignAgent sets the agent traitant. The status is left untouched.
func (e *Engine) AssignAgent(r *ds.GrantRequest, agent *ds.User) error {
	if agent == nil || agent.Role != role.Agent {
		return apperr.Invalid("agent_traitant", "user_is_not_an_agent")
	}
	id := agent.ID
	r.AgentID = &id
	r.Agent = agent
	return nil
}

// Accept moves a non-terminal request to accepted.
func (e *Engine) Accept(r *ds.GrantRequest, actor *ds.User, comment string) error {
	return e.decide(r, actor, ds.StatusAccepted, comment)
}

// Reject moves a non-terminal request to rejected.
func (e *Engine) Reject(r *ds.GrantRequest, actor *ds.User, comment string) error {
	return e.decide(r, actor, ds.StatusRejected, comment)
}

func (e *Engine) decide(r *ds.GrantRequest, actor *ds.User, status ds.GrantStatus, comment string) error {
	if r.Status.Terminal() {
		return apperr.Invalid("statut", "already_decided")
	}
	r.Status = status
	e.leavePending(r)
	if comment = strings.TrimSpace(comment); comment != "" {
		r.Comments = comment
	}
	// only agents can be agent traitant; admins decide without being recorded
	if r.AgentID == nil && actor != nil && actor.Role == role.Agent {
		id := actor.ID
		r.AgentID = &id
		r.Agent = actor
	}
	return nil
}

// UpdateStatus is the administrative mutator. Any enumerated status is
// accepted regardless of the current one, including a move back to pending.
func (e *Engine) UpdateStatus(r *ds.GrantRequest, status ds.GrantStatus, comment *string) error {
	if !status.Valid() {
		return apperr.Invalid("statut", "invalid_choice")
	}
	r.Status = status
	e.leavePending(r)
	if comment != nil {
		r.Comments = *comment
	}
	return nil
}

// leavePending stamps the processing time the first time the request is seen
// outside pending. The stamp is never cleared.
func (e *Engine) leavePending(r *ds.GrantRequest) {
	if r.Status != ds.StatusPending && r.ProcessedAt == nil {
		r.ProcessedAt = e.stamp()
	}
}

// NewPayment validates and initialises a payment for request r.
func (e *Engine) NewPayment(p *ds.Payment, r *ds.GrantRequest) error {
	v := apperr.Violations{}
	if r == nil || r.ID == 0 {
		v.Add("demande_id", "required")
	}
	if p.Amount <= 0 {
		v.Add("montant", "must_be_positive")
	}
	if !p.Mode.Valid() {
		v.Add("mode_paiement", "invalid_choice")
	}
	if strings.TrimSpace(p.Reference) == "" {
		v.Add("reference", "required")
	}
	if err := v.Err(); err != nil {
		return err
	}
	p.GrantRequestID = r.ID
	p.Reference = strings.TrimSpace(p.Reference)
	p.Status = ds.PaymentPending
	p.PaidAt = nil
	return nil
}

// ProcessPayment marks the payment processed. Calling it again only refreshes
// the payment date.
func (e *Engine) ProcessPayment(p *ds.Payment) {
	p.Status = ds.PaymentProcessed
	p.PaidAt = e.stamp()
}

// CancelPayment marks the payment cancelled, whatever its current status.
func (e *Engine) CancelPayment(p *ds.Payment) {
	p.Status = ds.PaymentCancelled
}

// NewDocument fills the server-owned fields of an upload. size is the number of
// bytes the file store actually wrote.
func (e *Engine) NewDocument(d *ds.Document, size int64) error {
	v := apperr.Violations{}
	if d.GrantRequestID == 0 {
		v.Add("demande_id", "required")
	}
	if strings.TrimSpace(d.Name) == "" {
		v.Add("nom", "required")
	}
	if !d.Type.Valid() {
		v.Add("type", "invalid_choice")
	}
	if err := v.Err(); err != nil {
		return err
	}
	d.Size = size
	d.UploadedAt = e.now()
	return nil
}

func (e *Engine) NewNotification(n *ds.Notification) error {
	v := apperr.Violations{}
	if n.UserID == 0 {
		v.Add("utilisateur_id", "required")
	}
	if !n.Type.Valid() {
		v.Add("type", "invalid_choice")
	}
	if n.Priority == "" {
		n.Priority = ds.PriorityNormal
	}
	if !n.Priority.Valid() {
		v.Add("priorite", "invalid_choice")
	}
	if strings.TrimSpace(n.Content) == "" {
		v.Add("contenu", "required")
	}
	if err := v.Err(); err != nil {
		return err
	}
	n.Read = false
	n.SentAt = e.now()
	return nil
}

// MarkRead flips the read flag. There is no way back to unread.
func (e *Engine) MarkRead(n *ds.Notification) {
	n.Read = true
}

func (e *Engine) NewReport(rep *ds.Report) error {
	v := apperr.Violations{}
	if rep.AgentID == 0 {
		v.Add("agent_id", "required")
	}
	if strings.TrimSpace(rep.Period) == "" {
		v.Add("periode", "required")
	}
	if !rep.Format.Valid() {
		v.Add("format", "invalid_choice")
	}
	if err := v.Err(); err != nil {
		return err
	}
	rep.GeneratedAt = e.now()
	return nil
}
