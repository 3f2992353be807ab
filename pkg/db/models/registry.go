package models

// All lists every persisted model in dependency order, for AutoMigrate in SQLite
// environments where the goose Postgres migrations do not apply.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Refund{},
		&OutboxEvent{},
		&OutboxDLQ{},
		&Notification{},
	}
}
