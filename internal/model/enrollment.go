package model

import "time"

// Enrollment links a student to a course. A pair can only exist once.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	EnrolledAt time.Time `gorm:"not null"`
	Grade      *string   `gorm:"size:5"`
	Student    *Student  `gorm:"constraint:OnDelete:CASCADE"`
	Course     *Course   `gorm:"constraint:OnDelete:CASCADE"`
}

// EnrollmentResponse is the wire form of an Enrollment with display names resolved.
type EnrollmentResponse struct {
	ID          uint      `json:"id"`
	StudentID   uint      `json:"student_id"`
	CourseID    uint      `json:"course_id"`
	EnrolledAt  time.Time `json:"enrolled_at"`
	Grade       *string   `json:"grade"`
	StudentName *string   `json:"student_name"`
	CourseName  *string   `json:"course_name"`
}

// Response builds the wire form from whatever associations are loaded.
func (e *Enrollment) Response() EnrollmentResponse {
	resp := EnrollmentResponse{
		ID:         e.ID,
		StudentID:  e.StudentID,
		CourseID:   e.CourseID,
		EnrolledAt: e.EnrolledAt,
		Grade:      e.Grade,
	}
	if e.Student != nil {
		name := e.Student.FullName
		resp.StudentName = &name
	}
	if e.Course != nil {
		name := e.Course.CourseName
		resp.CourseName = &name
	}
	return resp
}
