package repository

import (
	"context"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
)

type ReportFilter struct {
	AgentID  *uint
	Format   ds.ReportFormat
	Search   string
	Ordering string
}

var reportOrdering = map[string]string{
	"date_generation": "generated_at",
	"periode":         "period",
}

func (r *Repository) GetReport(ctx context.Context, id uint) (*ds.Report, error) {
	var rep ds.Report
	if err := r.db.WithContext(ctx).Preload("Agent.User").First(&rep, id).Error; err != nil {
		return nil, notFound(err, "rapport", id)
	}
	return &rep, nil
}

func (r *Repository) ListReports(ctx context.Context, f ReportFilter) ([]ds.Report, error) {
	q := r.db.WithContext(ctx).Preload("Agent.User")
	if f.AgentID != nil {
		q = q.Where("agent_id = ?", *f.AgentID)
	}
	if f.Format != "" {
		q = q.Where("format = ?", f.Format)
	}
	if f.Search != "" {
		q = q.Where("LOWER(period) LIKE ?", like(f.Search))
	}

	var reports []ds.Report
	err := orderBy(q, f.Ordering, reportOrdering, "generated_at DESC, id DESC").Find(&reports).Error
	return reports, err
}

// CreateReport stores a report for an existing agent profile.
func (r *Repository) CreateReport(ctx context.Context, rep *ds.Report) error {
	agent, err := r.GetAgentByID(ctx, rep.AgentID)
	if apperr.IsNotFound(err) {
		return apperr.Invalid("agent_id", "not_found")
	}
	if err != nil {
		return err
	}
	if err := r.write(ctx).Create(rep).Error; err != nil {
		return err
	}
	rep.Agent = *agent
	return nil
}

func (r *Repository) SaveReport(ctx context.Context, rep *ds.Report) error {
	return r.write(ctx).Save(rep).Error
}

func (r *Repository) DeleteReport(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&ds.Report{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("rapport", id)
	}
	return nil
}
