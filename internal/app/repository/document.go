package repository

import (
	"context"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
)

type DocumentFilter struct {
	// OwnerID keeps documents attached to requests of this user only.
	OwnerID        *uint
	GrantRequestID *uint
	Type           ds.DocumentType
}

func (r *Repository) GetDocument(ctx context.Context, id uint) (*ds.Document, error) {
	var doc ds.Document
	if err := r.db.WithContext(ctx).Preload("GrantRequest").First(&doc, id).Error; err != nil {
		return nil, notFound(err, "document", id)
	}
	return &doc, nil
}

func (r *Repository) ListDocuments(ctx context.Context, f DocumentFilter) ([]ds.Document, error) {
	q := r.db.WithContext(ctx).Model(&ds.Document{})
	if f.OwnerID != nil {
		owned := r.db.Model(&ds.GrantRequest{}).Select("id").Where("user_id = ?", *f.OwnerID)
		q = q.Where("grant_request_id IN (?)", owned)
	}
	if f.GrantRequestID != nil {
		q = q.Where("grant_request_id = ?", *f.GrantRequestID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}

	var docs []ds.Document
	err := q.Order("uploaded_at DESC, id DESC").Find(&docs).Error
	return docs, err
}

func (r *Repository) CreateDocument(ctx context.Context, doc *ds.Document) error {
	return r.write(ctx).Create(doc).Error
}

func (r *Repository) SaveDocument(ctx context.Context, doc *ds.Document) error {
	return r.write(ctx).Save(doc).Error
}

func (r *Repository) DeleteDocument(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&ds.Document{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("document", id)
	}
	return nil
}
