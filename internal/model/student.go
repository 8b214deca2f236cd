package model

import "time"

// Student is a student record, optionally linked to a login account.
type Student struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FullName    string    `gorm:"size:100;not null" json:"full_name"`
	RollNumber  string    `gorm:"size:50;uniqueIndex;not null" json:"roll_number"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PhoneNumber string    `gorm:"size:20;not null" json:"phone_number"`
	Department  string    `gorm:"size:100;not null;index" json:"department"`
	YearOfStudy string    `gorm:"size:20;not null" json:"year_of_study"`
	UserID      *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	User        *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
