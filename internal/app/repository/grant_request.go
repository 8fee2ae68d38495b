package repository

import (
	"context"

	"gorm.io/gorm"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
)

type GrantRequestFilter struct {
	// OwnerID restricts the list to the requests of one user. It is set from
	// the caller's session, never from the query string.
	OwnerID  *uint
	UserID   *uint
	AgentID  *uint
	Type     ds.GrantType
	Status   ds.GrantStatus
	Search   string
	Ordering string
}

var grantRequestOrdering = map[string]string{
	"date_soumission": "submitted_at",
	"date_traitement": "processed_at",
	"montant":         "amount",
}

func (r *Repository) GetGrantRequest(ctx context.Context, id uint) (*ds.GrantRequest, error) {
	var req ds.GrantRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Agent").
		Preload("Documents").
		Preload("Payment").
		First(&req, id).Error
	if err != nil {
		return nil, notFound(err, "demande", id)
	}
	return &req, nil
}

// GetGrantRequestHeader loads a request without its relations.
func (r *Repository) GetGrantRequestHeader(ctx context.Context, id uint) (*ds.GrantRequest, error) {
	var req ds.GrantRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, notFound(err, "demande", id)
	}
	return &req, nil
}

func (r *Repository) ListGrantRequests(ctx context.Context, f GrantRequestFilter) ([]ds.GrantRequest, error) {
	q := r.db.WithContext(ctx).Preload("User").Preload("Agent")
	if f.OwnerID != nil {
		q = q.Where("user_id = ?", *f.OwnerID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.AgentID != nil {
		q = q.Where("agent_id = ?", *f.AgentID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where("LOWER(comments) LIKE ?", like(f.Search))
	}

	var reqs []ds.GrantRequest
	err := orderBy(q, f.Ordering, grantRequestOrdering, "submitted_at DESC, id DESC").Find(&reqs).Error
	return reqs, err
}

// CreateGrantRequest persists a submitted request. The owner must exist.
func (r *Repository) CreateGrantRequest(ctx context.Context, req *ds.GrantRequest) error {
	owner, err := r.GetUserByID(ctx, req.UserID)
	if apperr.IsNotFound(err) {
		return apperr.Invalid("utilisateur_id", "not_found")
	}
	if err != nil {
		return err
	}
	if err := r.write(ctx).Create(req).Error; err != nil {
		return err
	}
	req.User = *owner
	return nil
}

// SaveGrantRequest writes every column of req, including a nil agent or
// processing time.
func (r *Repository) SaveGrantRequest(ctx context.Context, req *ds.GrantRequest) error {
	return r.write(ctx).Save(req).Error
}

// DeleteGrantRequest removes the request with its documents and payment and
// returns the storage paths of the removed documents.
func (r *Repository) DeleteGrantRequest(ctx context.Context, id uint) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ds.Document{}).Where("grant_request_id = ?", id).
			Pluck("path", &paths).Error; err != nil {
			return err
		}
		if err := tx.Where("grant_request_id = ?", id).Delete(&ds.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("grant_request_id = ?", id).Delete(&ds.Payment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&ds.GrantRequest{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("demande", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
