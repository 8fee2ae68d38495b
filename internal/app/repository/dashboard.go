package repository

import (
	"context"
	"time"

	"asdm/internal/app/ds"
	"asdm/internal/app/role"
	"asdm/internal/app/stats"
)

type groupCount struct {
	Grp   string
	Total int64
}

// countBy returns COUNT(*) grouped by column.
func (r *Repository) countBy(ctx context.Context, model any, column string) (map[string]int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(model).
		Select(column + " AS grp, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Grp] = row.Total
	}
	return out, nil
}

func (r *Repository) CountUsersByRole(ctx context.Context) (map[role.Role]int64, error) {
	raw, err := r.countBy(ctx, &ds.User{}, "role")
	if err != nil {
		return nil, err
	}
	out := make(map[role.Role]int64, len(role.All))
	for _, rl := range role.All {
		out[rl] = raw[string(rl)]
	}
	return out, nil
}

func (r *Repository) CountGrantRequestsByStatus(ctx context.Context) (map[ds.GrantStatus]int64, error) {
	raw, err := r.countBy(ctx, &ds.GrantRequest{}, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[ds.GrantStatus]int64, len(ds.GrantStatuses))
	for _, s := range ds.GrantStatuses {
		out[s] = raw[string(s)]
	}
	return out, nil
}

func (r *Repository) CountPaymentsByStatus(ctx context.Context) (map[ds.PaymentStatus]int64, error) {
	raw, err := r.countBy(ctx, &ds.Payment{}, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[ds.PaymentStatus]int64, len(ds.PaymentStatuses))
	for _, s := range ds.PaymentStatuses {
		out[s] = raw[string(s)]
	}
	return out, nil
}

func (r *Repository) CountDocumentsByType(ctx context.Context) (map[ds.DocumentType]int64, error) {
	raw, err := r.countBy(ctx, &ds.Document{}, "type")
	if err != nil {
		return nil, err
	}
	out := make(map[ds.DocumentType]int64, len(ds.DocumentTypes))
	for _, t := range ds.DocumentTypes {
		out[t] = raw[string(t)]
	}
	return out, nil
}

// CountAllUnread counts unread notifications across every recipient.
func (r *Repository) CountAllUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ds.Notification{}).Where("read = ?", false).Count(&count).Error
	return count, err
}

// TotalRequested sums the amount of every grant request.
func (r *Repository) TotalRequested(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&ds.GrantRequest{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// TotalPaid sums the amount of processed payments only.
func (r *Repository) TotalPaid(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&ds.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", ds.PaymentProcessed).
		Scan(&total).Error
	return total, err
}

type TypeTotal struct {
	Type   ds.GrantType
	Count  int64
	Amount float64
}

// TotalsByType returns one entry per grant type, zero-filled.
func (r *Repository) TotalsByType(ctx context.Context) ([]TypeTotal, error) {
	var rows []struct {
		Grp    string
		Total  int64
		Amount float64
	}
	err := r.db.WithContext(ctx).Model(&ds.GrantRequest{}).
		Select("type AS grp, COUNT(*) AS total, COALESCE(SUM(amount), 0) AS amount").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]TypeTotal, len(ds.GrantTypes))
	for i, t := range ds.GrantTypes {
		out[i].Type = t
		for _, row := range rows {
			if row.Grp == string(t) {
				out[i].Count = row.Total
				out[i].Amount = row.Amount
			}
		}
	}
	return out, nil
}

// SubmissionDates returns the submission time of every request submitted at
// or after since.
func (r *Repository) SubmissionDates(ctx context.Context, since time.Time) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).Model(&ds.GrantRequest{}).
		Where("submitted_at >= ?", since).
		Pluck("submitted_at", &dates).Error
	return dates, err
}

// ProcessingSpans lists submission and processing times of decided requests.
func (r *Repository) ProcessingSpans(ctx context.Context) ([]stats.Span, error) {
	var reqs []ds.GrantRequest
	err := r.db.WithContext(ctx).
		Select("id", "submitted_at", "processed_at").
		Where("status IN ? AND processed_at IS NOT NULL", []ds.GrantStatus{ds.StatusAccepted, ds.StatusRejected}).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}

	spans := make([]stats.Span, 0, len(reqs))
	for _, req := range reqs {
		spans = append(spans, stats.Span{SubmittedAt: req.SubmittedAt, ProcessedAt: *req.ProcessedAt})
	}
	return spans, nil
}

// AgentDecisionCounts counts decided requests per agent traitant.
func (r *Repository) AgentDecisionCounts(ctx context.Context) ([]stats.AgentCount, error) {
	var rows []struct {
		AgentID uint
		Total   int64
	}
	err := r.db.WithContext(ctx).Model(&ds.GrantRequest{}).
		Select("agent_id, COUNT(*) AS total").
		Where("agent_id IS NOT NULL AND status IN ?", []ds.GrantStatus{ds.StatusAccepted, ds.StatusRejected}).
		Group("agent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.AgentID
	}
	var users []ds.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName()
	}

	out := make([]stats.AgentCount, len(rows))
	for i, row := range rows {
		out[i] = stats.AgentCount{AgentID: row.AgentID, Name: names[row.AgentID], Count: row.Total}
	}
	return out, nil
}
