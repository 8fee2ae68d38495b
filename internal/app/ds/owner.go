package ds

// GetUserID methods expose the owning user of a row to ownership checks.

func (u *User) GetUserID() uint { return u.ID }

func (r *GrantRequest) GetUserID() uint { return r.UserID }

// GetUserID requires GrantRequest to be loaded.
func (d *Document) GetUserID() uint { return d.GrantRequest.UserID }

func (n *Notification) GetUserID() uint { return n.UserID }
