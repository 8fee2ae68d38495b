package ds

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Agent{},
		&GrantRequest{},
		&Payment{},
		&Document{},
		&Report{},
		&Notification{},
	}
}
