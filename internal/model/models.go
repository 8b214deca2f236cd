package model

// All lists every persisted model in dependency order for migrations.
func All() []any {
	return []any{
		&User{},
		&Student{},
		&Course{},
		&Enrollment{},
		&Attendance{},
	}
}
