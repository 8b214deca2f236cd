package model

import "time"

// User is an authenticated identity.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	FullName     string    `gorm:"size:100;not null" json:"full_name"`
	PasswordHash string    `gorm:"column:hashed_password;size:255;not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// UserResponse is the public projection of a User.
type UserResponse struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role" swaggertype:"string" enums:"admin,student,faculty"`
	IsActive bool   `json:"is_active"`
}

// Public returns the outward projection; the password hash is never included.
func (u *User) Public() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
