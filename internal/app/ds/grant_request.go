package ds

import "time"

type GrantType string

const (
	GrantTypeTraining  GrantType = "formation"
	GrantTypeEquipment GrantType = "equipement"
	GrantTypeFinancial GrantType = "soutien_financier"
)

var GrantTypes = []GrantType{GrantTypeTraining, GrantTypeEquipment, GrantTypeFinancial}

func (t GrantType) Valid() bool {
	for _, v := range GrantTypes {
		if t == v {
			return true
		}
	}
	return false
}

type GrantStatus string

const (
	StatusPending     GrantStatus = "en_attente"
	StatusUnderReview GrantStatus = "en_etude"
	StatusAccepted    GrantStatus = "acceptee"
	StatusRejected    GrantStatus = "rejetee"
)

var GrantStatuses = []GrantStatus{StatusPending, StatusUnderReview, StatusAccepted, StatusRejected}

func (s GrantStatus) Valid() bool {
	for _, v := range GrantStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further accept/reject may happen from this status.
func (s GrantStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// GrantRequest is an application for financial or material support.
type GrantRequest struct {
	ID          uint        `gorm:"primaryKey"`
	UserID      uint        `gorm:"not null;index"`
	AgentID     *uint       `gorm:"index"` // agent traitant, always a user with role agent
	Type        GrantType   `gorm:"type:varchar(30);not null;index"`
	Amount      float64     `gorm:"type:decimal(12,2);not null"`
	Status      GrantStatus `gorm:"type:varchar(20);not null;default:'en_attente';index"`
	SubmittedAt time.Time   `gorm:"not null;index"`
	ProcessedAt *time.Time  `gorm:"default:null"`
	Comments    string      `gorm:"type:text"`

	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Agent     *User      `gorm:"foreignKey:AgentID;constraint:OnDelete:SET NULL"`
	Documents []Document `gorm:"foreignKey:GrantRequestID"`
	Payment   *Payment   `gorm:"foreignKey:GrantRequestID"`
}
