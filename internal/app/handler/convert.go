package handler

import (
	"encoding/json"

	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
)

func toUserResponse(u ds.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		LastName:  u.LastName,
		FirstName: u.FirstName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

func toAgentResponse(a ds.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:          a.ID,
		User:        toUserResponse(a.User),
		Department:  a.Department,
		Function:    a.Function,
		CanValidate: a.CanValidate,
	}
}

func toGrantRequestResponse(r *ds.GrantRequest) dto.GrantRequestResponse {
	resp := dto.GrantRequestResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		Type:        string(r.Type),
		Amount:      r.Amount,
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt,
		ProcessedAt: r.ProcessedAt,
		AgentID:     r.AgentID,
		Comments:    r.Comments,
	}
	if r.User.ID != 0 {
		u := toUserResponse(r.User)
		resp.User = &u
	}
	if r.Agent != nil && r.Agent.ID != 0 {
		a := toUserResponse(*r.Agent)
		resp.Agent = &a
	}
	for i := range r.Documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(&r.Documents[i]))
	}
	if r.Payment != nil && r.Payment.ID != 0 {
		p := toPaymentResponse(r.Payment)
		resp.Payment = &p
	}
	return resp
}

func toPaymentResponse(p *ds.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:             p.ID,
		GrantRequestID: p.GrantRequestID,
		Amount:         p.Amount,
		Mode:           string(p.Mode),
		Reference:      p.Reference,
		Status:         string(p.Status),
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
	}
}

func toDocumentResponse(d *ds.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:             d.ID,
		GrantRequestID: d.GrantRequestID,
		Name:           d.Name,
		Type:           string(d.Type),
		Path:           d.Path,
		ContentType:    d.ContentType,
		Size:           d.Size,
		UploadedBy:     d.UploadedBy,
		UploadedAt:     d.UploadedAt,
	}
}

func toReportResponse(r *ds.Report) dto.ReportResponse {
	resp := dto.ReportResponse{
		ID:          r.ID,
		AgentID:     r.AgentID,
		Period:      r.Period,
		Format:      string(r.Format),
		GeneratedAt: r.GeneratedAt,
		Content:     r.Content,
	}
	if r.Agent.ID != 0 {
		a := toAgentResponse(r.Agent)
		resp.Agent = &a
	}
	if r.Statistics != "" && json.Valid([]byte(r.Statistics)) {
		resp.Statistics = json.RawMessage(r.Statistics)
	}
	return resp
}

func toNotificationResponse(n *ds.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:       n.ID,
		UserID:   n.UserID,
		Type:     string(n.Type),
		Priority: string(n.Priority),
		Content:  n.Content,
		Read:     n.Read,
		SentAt:   n.SentAt,
	}
}
