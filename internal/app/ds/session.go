package ds

import (
	"time"

	"asdm/internal/app/role"
)

// Session is the server-side state bound to a session id. Role is captured at
// login and is the claim every authorization check reads.
type Session struct {
	ID        string    `json:"-"`
	UserID    uint      `json:"user_id"`
	Role      role.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
