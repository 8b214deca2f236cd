package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"studentms/internal/model"
)

// AttendanceFilter narrows attendance listings. Day is a UTC calendar day; nil means any.
type AttendanceFilter struct {
	Day       *time.Time
	StudentID uint
}

// AttendanceRepository defines attendance persistence operations.
type AttendanceRepository interface {
	// UpsertForDay creates or overwrites the record of record.StudentID for the UTC day of record.Date.
	UpsertForDay(ctx context.Context, record *model.Attendance) (*model.Attendance, error)
	List(ctx context.Context, filter AttendanceFilter) ([]model.Attendance, error)
	CountByStatus(ctx context.Context, day time.Time, status model.AttendanceStatus) (int64, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// DayBounds returns [start, end) of the UTC day containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func (r *attendanceRepository) UpsertForDay(ctx context.Context, record *model.Attendance) (*model.Attendance, error) {
	start, end := DayBounds(record.Date)
	var saved model.Attendance

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Attendance
		err := tx.Where("student_id = ? AND date >= ? AND date < ?", record.StudentID, start, end).
			First(&existing).Error
		switch {
		case err == nil:
			existing.Status = record.Status
			existing.Remarks = record.Remarks
			if err := tx.Omit("Student").Save(&existing).Error; err != nil {
				return err
			}
			saved = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Omit("Student").Create(record).Error; err != nil {
				return err
			}
			saved = *record
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *attendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]model.Attendance, error) {
	q := r.db.WithContext(ctx).Preload("Student").Model(&model.Attendance{})
	if filter.Day != nil {
		start, end := DayBounds(*filter.Day)
		q = q.Where("date >= ? AND date < ?", start, end)
	}
	if filter.StudentID != 0 {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	var records []model.Attendance
	if err := q.Order("date DESC, id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepository) CountByStatus(ctx context.Context, day time.Time, status model.AttendanceStatus) (int64, error) {
	start, end := DayBounds(day)
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Where("date >= ? AND date < ? AND status = ?", start, end, status).
		Count(&n).Error
	return n, err
}
