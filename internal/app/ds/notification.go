package ds

import "time"

type NotificationType string

const (
	NotificationEmail NotificationType = "email"
	NotificationSMS   NotificationType = "sms"
	NotificationInApp NotificationType = "in_app"
)

func (t NotificationType) Valid() bool {
	return t == NotificationEmail || t == NotificationSMS || t == NotificationInApp
}

type Priority string

const (
	PriorityLow    Priority = "basse"
	PriorityNormal Priority = "normale"
	PriorityHigh   Priority = "haute"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

// Notification is addressed to one user. Read only ever goes false → true.
type Notification struct {
	ID       uint             `gorm:"primaryKey"`
	UserID   uint             `gorm:"not null;index"`
	Type     NotificationType `gorm:"type:varchar(20);not null"`
	Priority Priority         `gorm:"type:varchar(20);not null;default:'normale'"`
	Content  string           `gorm:"type:text;not null"`
	Read     bool             `gorm:"type:boolean;default:false;not null;index"`
	SentAt   time.Time        `gorm:"not null"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
