package ds

import (
	"time"

	"asdm/internal/app/role"
)

// User is any account of the platform: requester, ASDM agent or administrator.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	LastName     string    `gorm:"type:varchar(100);not null"`
	FirstName    string    `gorm:"type:varchar(100)"`
	Email        string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	Phone        string    `gorm:"type:varchar(20)"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         role.Role `gorm:"type:varchar(20);not null;default:'demandeur';index"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// Agent extends a User whose role is agent with staff-only attributes.
// The linked user is held by reference; callers read identity fields through Agent.User.
type Agent struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"not null;uniqueIndex"`
	Department  string `gorm:"type:varchar(100)"`
	Function    string `gorm:"type:varchar(100)"`
	CanValidate bool   `gorm:"type:boolean;default:false;not null"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
