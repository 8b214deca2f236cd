package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"studentms/internal/cache"
	"studentms/internal/model"
	"studentms/internal/repository"
)

const (
	dashboardCacheKey = "dashboard:stats"
	dashboardCacheTTL = 30 * time.Second
)

// TodayStats summarizes attendance for the current UTC day.
type TodayStats struct {
	TotalStudents int64  `json:"total_students"`
	PresentToday  int64  `json:"present_today"`
	AbsentToday   int64  `json:"absent_today"`
	Date          string `json:"date"`
}

// DashboardStats are the headline counts shown on the landing page.
type DashboardStats struct {
	TotalStudents   int64 `json:"total_students"`
	TotalCourses    int64 `json:"total_courses"`
	StudentsPresent int64 `json:"students_present"`
}

type AttendanceService interface {
	// Mark records today's status for a student, replacing an earlier mark from the same UTC day.
	Mark(ctx context.Context, studentID uint, status model.AttendanceStatus, remarks *string) (*model.Attendance, error)
	List(ctx context.Context, filter repository.AttendanceFilter) ([]model.Attendance, error)
	TodayStats(ctx context.Context) (*TodayStats, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

type attendanceService struct {
	repo     repository.AttendanceRepository
	students repository.StudentRepository
	courses  repository.CourseRepository
	cache    *cache.Client
	now      func() time.Time
}

func NewAttendanceService(repo repository.AttendanceRepository, students repository.StudentRepository, courses repository.CourseRepository, cache *cache.Client) AttendanceService {
	return &attendanceService{
		repo:     repo,
		students: students,
		courses:  courses,
		cache:    cache,
		now:      time.Now,
	}
}

func (s *attendanceService) Mark(ctx context.Context, studentID uint, status model.AttendanceStatus, remarks *string) (*model.Attendance, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("find student: %w", err)
	}

	record, err := s.repo.UpsertForDay(ctx, &model.Attendance{
		StudentID: studentID,
		Date:      s.now().UTC(),
		Status:    status,
		Remarks:   remarks,
	})
	if err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}
	record.Student = student
	_ = s.cache.Delete(ctx, dashboardCacheKey)
	return record, nil
}

func (s *attendanceService) List(ctx context.Context, filter repository.AttendanceFilter) ([]model.Attendance, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// TodayStats counts every student without a Present mark today as absent.
func (s *attendanceService) TodayStats(ctx context.Context) (*TodayStats, error) {
	today := s.now().UTC()
	total, err := s.students.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	present, err := s.repo.CountByStatus(ctx, today, model.AttendancePresent)
	if err != nil {
		return nil, fmt.Errorf("count present: %w", err)
	}
	return &TodayStats{
		TotalStudents: total,
		PresentToday:  present,
		AbsentToday:   total - present,
		Date:          today.Format(time.DateOnly),
	}, nil
}

func (s *attendanceService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	if data, _ := s.cache.Get(ctx, dashboardCacheKey); data != nil {
		var cached DashboardStats
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	students, err := s.students.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	courses, err := s.courses.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count courses: %w", err)
	}
	present, err := s.repo.CountByStatus(ctx, s.now().UTC(), model.AttendancePresent)
	if err != nil {
		return nil, fmt.Errorf("count present: %w", err)
	}

	stats := &DashboardStats{TotalStudents: students, TotalCourses: courses, StudentsPresent: present}
	if payload, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, dashboardCacheKey, payload, dashboardCacheTTL)
	}
	return stats, nil
}
