package model

import "time"

const DefaultCourseCredits = 3

type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CourseCode   string    `gorm:"size:20;uniqueIndex;not null" json:"course_code"`
	CourseName   string    `gorm:"size:200;not null" json:"course_name"`
	Description  *string   `gorm:"type:text" json:"description"`
	Credits      int       `gorm:"not null" json:"credits"`
	Department   string    `gorm:"size:100;not null;index" json:"department"`
	InstructorID *uint     `gorm:"index" json:"instructor_id"`
	Instructor   *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
