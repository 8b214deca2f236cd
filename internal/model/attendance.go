package model

import "time"

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceExcused AttendanceStatus = "Excused"
)

// Attendance is one student's record for one UTC day.
type Attendance struct {
	ID        uint             `gorm:"primaryKey"`
	StudentID uint             `gorm:"not null;index"`
	Date      time.Time        `gorm:"not null;index"`
	Status    AttendanceStatus `gorm:"size:20;not null"`
	Remarks   *string          `gorm:"type:text"`
	Student   *Student         `gorm:"constraint:OnDelete:CASCADE"`
}

func (Attendance) TableName() string {
	return "attendance"
}

type AttendanceResponse struct {
	ID          uint             `json:"id"`
	StudentID   uint             `json:"student_id"`
	StudentName string           `json:"student_name"`
	Date        time.Time        `json:"date"`
	Status      AttendanceStatus `json:"status"`
	Remarks     *string          `json:"remarks"`
}

func (a *Attendance) Response() AttendanceResponse {
	name := "Unknown"
	if a.Student != nil {
		name = a.Student.FullName
	}
	return AttendanceResponse{
		ID:          a.ID,
		StudentID:   a.StudentID,
		StudentName: name,
		Date:        a.Date,
		Status:      a.Status,
		Remarks:     a.Remarks,
	}
}
