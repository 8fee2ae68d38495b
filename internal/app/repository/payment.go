package repository

import (
	"context"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
)

type PaymentFilter struct {
	GrantRequestID *uint
	Status         ds.PaymentStatus
	Mode           ds.PaymentMode
	Search         string
	Ordering       string
}

var paymentOrdering = map[string]string{
	"date_paiement": "paid_at",
	"date_creation": "created_at",
	"montant":       "amount",
}

func (r *Repository) GetPayment(ctx context.Context, id uint) (*ds.Payment, error) {
	var p ds.Payment
	if err := r.db.WithContext(ctx).Preload("GrantRequest").First(&p, id).Error; err != nil {
		return nil, notFound(err, "paiement", id)
	}
	return &p, nil
}

func (r *Repository) ListPayments(ctx context.Context, f PaymentFilter) ([]ds.Payment, error) {
	q := r.db.WithContext(ctx).Model(&ds.Payment{})
	if f.GrantRequestID != nil {
		q = q.Where("grant_request_id = ?", *f.GrantRequestID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Mode != "" {
		q = q.Where("mode = ?", f.Mode)
	}
	if f.Search != "" {
		q = q.Where("LOWER(reference) LIKE ?", like(f.Search))
	}

	var payments []ds.Payment
	err := orderBy(q, f.Ordering, paymentOrdering, "created_at DESC, id DESC").Find(&payments).Error
	return payments, err
}

// CreatePayment stores a payment for an existing grant request. A request
// holds at most one payment and references are unique.
func (r *Repository) CreatePayment(ctx context.Context, p *ds.Payment) error {
	if _, err := r.GetGrantRequestHeader(ctx, p.GrantRequestID); err != nil {
		return err
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&ds.Payment{}).
		Where("grant_request_id = ?", p.GrantRequestID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Invalid("demande_id", "payment_exists")
	}
	if err := r.checkReference(ctx, p.Reference, 0); err != nil {
		return err
	}
	return r.write(ctx).Create(p).Error
}

func (r *Repository) SavePayment(ctx context.Context, p *ds.Payment) error {
	if err := r.checkReference(ctx, p.Reference, p.ID); err != nil {
		return err
	}
	return r.write(ctx).Save(p).Error
}

func (r *Repository) DeletePayment(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&ds.Payment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("paiement", id)
	}
	return nil
}

func (r *Repository) checkReference(ctx context.Context, ref string, self uint) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&ds.Payment{}).
		Where("reference = ? AND id <> ?", ref, self).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Invalid("reference", "already_exists")
	}
	return nil
}
