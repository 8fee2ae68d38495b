package ds

import "time"

type PaymentMode string

const (
	PaymentModeTransfer PaymentMode = "virement"
	PaymentModeCheck    PaymentMode = "cheque"
	PaymentModeCash     PaymentMode = "especes"
)

func (m PaymentMode) Valid() bool {
	return m == PaymentModeTransfer || m == PaymentModeCheck || m == PaymentModeCash
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "en_attente"
	PaymentProcessed PaymentStatus = "traite"
	PaymentFailed    PaymentStatus = "echoue" // only reachable by direct data edit
	PaymentCancelled PaymentStatus = "annule"
)

var PaymentStatuses = []PaymentStatus{PaymentPending, PaymentProcessed, PaymentFailed, PaymentCancelled}

// Payment disburses an accepted grant. At most one per GrantRequest.
type Payment struct {
	ID             uint          `gorm:"primaryKey"`
	GrantRequestID uint          `gorm:"not null;uniqueIndex"`
	Amount         float64       `gorm:"type:decimal(12,2);not null"`
	Mode           PaymentMode   `gorm:"type:varchar(20);not null"`
	Reference      string        `gorm:"type:varchar(100);not null;uniqueIndex"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null;default:'en_attente';index"`
	PaidAt         *time.Time    `gorm:"default:null"`
	CreatedAt      time.Time

	GrantRequest GrantRequest `gorm:"foreignKey:GrantRequestID;constraint:OnDelete:CASCADE"`
}
