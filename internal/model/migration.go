package model

// All returns every model the application persists, in dependency order
func All() []any {
	return []any{
		&User{},
		&Stats{},
		&PendingRegistration{},
		&File{},
		&Share{},
		&OrphanObject{},
	}
}
