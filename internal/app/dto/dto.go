package dto

import (
	"encoding/json"
	"time"

	"asdm/internal/app/stats"
)

// ============ Common ============

type ErrorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Count   int         `json:"count"`
	Results interface{} `json:"results"`
}

// ============ Auth ============

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	SessionID string       `json:"session_id"`
	User      UserResponse `json:"user"`
}

// ============ Users ============

type UserResponse struct {
	ID        uint      `json:"id"`
	LastName  string    `json:"nom"`
	FirstName string    `json:"prenom"`
	Email     string    `json:"email"`
	Phone     string    `json:"telephone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"date_creation"`
}

type CreateUserRequest struct {
	LastName  string `json:"nom" binding:"required,max=100"`
	FirstName string `json:"prenom" binding:"max=100"`
	Email     string `json:"email" binding:"required,email,max=150"`
	Phone     string `json:"telephone" binding:"max=20"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"omitempty,oneof=demandeur agent admin"`
}

type UpdateUserRequest struct {
	LastName  *string `json:"nom" binding:"omitempty,max=100"`
	FirstName *string `json:"prenom" binding:"omitempty,max=100"`
	Email     *string `json:"email" binding:"omitempty,email,max=150"`
	Phone     *string `json:"telephone" binding:"omitempty,max=20"`
	Password  *string `json:"password" binding:"omitempty,min=8"`
	Role      *string `json:"role" binding:"omitempty,oneof=demandeur agent admin"`
}

// ============ Agents ============

type AgentResponse struct {
	ID          uint         `json:"id"`
	User        UserResponse `json:"utilisateur"`
	Department  string       `json:"departement"`
	Function    string       `json:"fonction"`
	CanValidate bool         `json:"droits_validation"`
}

type CreateAgentRequest struct {
	UserID      uint   `json:"utilisateur_id" binding:"required"`
	Department  string `json:"departement" binding:"max=100"`
	Function    string `json:"fonction" binding:"max=100"`
	CanValidate bool   `json:"droits_validation"`
}

type UpdateAgentRequest struct {
	Department  *string `json:"departement" binding:"omitempty,max=100"`
	Function    *string `json:"fonction" binding:"omitempty,max=100"`
	CanValidate *bool   `json:"droits_validation"`
}

// ============ Grant requests ============

type GrantRequestResponse struct {
	ID          uint               `json:"id"`
	UserID      uint               `json:"utilisateur_id"`
	User        *UserResponse      `json:"utilisateur,omitempty"`
	Type        string             `json:"type"`
	Amount      float64            `json:"montant"`
	Status      string             `json:"statut"`
	SubmittedAt time.Time          `json:"date_soumission"`
	ProcessedAt *time.Time         `json:"date_traitement"`
	AgentID     *uint              `json:"agent_traitant_id"`
	Agent       *UserResponse      `json:"agent_traitant"`
	Comments    string             `json:"commentaires"`
	Documents   []DocumentResponse `json:"documents,omitempty"`
	Payment     *PaymentResponse   `json:"paiement,omitempty"`
}

type CreateGrantRequestRequest struct {
	UserID   *uint   `json:"utilisateur_id"`
	Type     string  `json:"type" binding:"required,oneof=formation equipement soutien_financier"`
	Amount   float64 `json:"montant" binding:"required,gt=0"`
	Comments string  `json:"commentaires"`
}

type UpdateGrantRequestRequest struct {
	Type     *string  `json:"type" binding:"omitempty,oneof=formation equipement soutien_financier"`
	Amount   *float64 `json:"montant" binding:"omitempty,gt=0"`
	Comments *string  `json:"commentaires"`
}

type UpdateStatusRequest struct {
	Status   string  `json:"statut" binding:"required,oneof=en_attente en_etude acceptee rejetee"`
	Comments *string `json:"commentaires"`
	Notify   bool    `json:"notifier"`
}

type AssignAgentRequest struct {
	AgentID uint `json:"agent_id" binding:"required"`
}

type DecisionRequest struct {
	Comments string `json:"commentaires"`
	Notify   bool   `json:"notifier"`
}

// ============ Payments ============

type PaymentResponse struct {
	ID             uint       `json:"id"`
	GrantRequestID uint       `json:"demande_id"`
	Amount         float64    `json:"montant"`
	Mode           string     `json:"mode_paiement"`
	Reference      string     `json:"reference"`
	Status         string     `json:"statut"`
	PaidAt         *time.Time `json:"date_paiement"`
	CreatedAt      time.Time  `json:"date_creation"`
}

type CreatePaymentRequest struct {
	GrantRequestID uint    `json:"demande_id" binding:"required"`
	Amount         float64 `json:"montant" binding:"required,gt=0"`
	Mode           string  `json:"mode_paiement" binding:"required,oneof=virement cheque especes"`
	Reference      string  `json:"reference" binding:"required,max=100"`
}

type UpdatePaymentRequest struct {
	Amount    *float64 `json:"montant" binding:"omitempty,gt=0"`
	Mode      *string  `json:"mode_paiement" binding:"omitempty,oneof=virement cheque especes"`
	Reference *string  `json:"reference" binding:"omitempty,min=1,max=100"`
}

// ============ Documents ============

type DocumentResponse struct {
	ID             uint      `json:"id"`
	GrantRequestID uint      `json:"demande_id"`
	Name           string    `json:"nom"`
	Type           string    `json:"type"`
	Path           string    `json:"chemin_fichier"`
	ContentType    string    `json:"content_type,omitempty"`
	Size           int64     `json:"taille_fichier"`
	UploadedBy     uint      `json:"uploade_par,omitempty"`
	UploadedAt     time.Time `json:"date_upload"`
}

// UploadDocumentForm is bound from multipart form fields; the file itself is
// read from the "fichier" part.
type UploadDocumentForm struct {
	GrantRequestID uint   `form:"demande_id"`
	Name           string `form:"nom" binding:"required,max=255"`
	Type           string `form:"type" binding:"required,oneof=piece_identite justificatif devis rapport autre"`
}

type UpdateDocumentRequest struct {
	Name *string `json:"nom" binding:"omitempty,min=1,max=255"`
	Type *string `json:"type" binding:"omitempty,oneof=piece_identite justificatif devis rapport autre"`
}

// ============ Reports ============

type ReportResponse struct {
	ID          uint            `json:"id"`
	Agent       *AgentResponse  `json:"agent,omitempty"`
	AgentID     uint            `json:"agent_id"`
	Period      string          `json:"periode"`
	Format      string          `json:"format"`
	GeneratedAt time.Time       `json:"date_generation"`
	Statistics  json.RawMessage `json:"statistiques,omitempty"`
	Content     string          `json:"contenu"`
}

type CreateReportRequest struct {
	AgentID    *uint           `json:"agent_id"`
	Period     string          `json:"periode" binding:"required,max=50"`
	Format     string          `json:"format" binding:"required,oneof=pdf csv excel"`
	Statistics json.RawMessage `json:"statistiques"`
	Content    string          `json:"contenu"`
}

type UpdateReportRequest struct {
	Period  *string `json:"periode" binding:"omitempty,min=1,max=50"`
	Format  *string `json:"format" binding:"omitempty,oneof=pdf csv excel"`
	Content *string `json:"contenu"`
}

type GenerateReportRequest struct {
	AgentID *uint  `json:"agent_id"`
	Period  string `json:"periode" binding:"required,max=50"`
	Format  string `json:"format" binding:"required,oneof=pdf csv excel"`
}

// ============ Notifications ============

type NotificationResponse struct {
	ID       uint      `json:"id"`
	UserID   uint      `json:"utilisateur_id"`
	Type     string    `json:"type"`
	Priority string    `json:"priorite"`
	Content  string    `json:"contenu"`
	Read     bool      `json:"lu"`
	SentAt   time.Time `json:"date_envoi"`
}

type CreateNotificationRequest struct {
	UserID   uint   `json:"utilisateur_id" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=email sms in_app"`
	Priority string `json:"priorite" binding:"omitempty,oneof=basse normale haute"`
	Content  string `json:"contenu" binding:"required"`
}

type UpdateNotificationRequest struct {
	Priority *string `json:"priorite" binding:"omitempty,oneof=basse normale haute"`
	Content  *string `json:"contenu"`
	Read     *bool   `json:"lu"`
}

type UnreadCountResponse struct {
	Unread int64 `json:"non_lues"`
}

// ============ Dashboard ============

type StatsResponse struct {
	UsersByRole         map[string]int64 `json:"utilisateurs_par_role"`
	RequestsByStatus    map[string]int64 `json:"demandes_par_statut"`
	TotalRequests       int64            `json:"total_demandes"`
	TotalRequested      float64          `json:"montant_total_demande"`
	TotalPaid           float64          `json:"montant_total_paye"`
	DocumentsByType     map[string]int64 `json:"documents_par_type"`
	UnreadNotifications int64            `json:"notifications_non_lues"`
	PaymentsByStatus    map[string]int64 `json:"paiements_par_statut"`
}

type ChartsResponse struct {
	MonthlyRequests []stats.MonthCount `json:"demandes_par_mois"`
	RequestsByType  map[string]int64   `json:"demandes_par_type"`
	AmountsByType   map[string]float64 `json:"montants_par_type"`
}

type MetricsResponse struct {
	AcceptanceRate     float64            `json:"taux_acceptation"`
	MeanProcessingDays int                `json:"delai_moyen_traitement_jours"`
	TopAgents          []stats.AgentCount `json:"top_agents"`
}
