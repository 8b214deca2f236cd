package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "studentms/internal/errors"
	"studentms/internal/model"
	"studentms/internal/repository"
)

var (
	ErrEnrollmentNotFound = apperrors.NotFound("ENROLLMENT_NOT_FOUND", "Enrollment not found")
	ErrAlreadyEnrolled    = apperrors.Conflict("ALREADY_ENROLLED", "Student is already enrolled in this course")
	ErrEnrollmentExists   = apperrors.Conflict("ENROLLMENT_EXISTS", "Enrollment already exists")
)

// EnrollmentService links students to courses.
type EnrollmentService interface {
	ListEnrollments(ctx context.Context, filter repository.EnrollmentFilter, page repository.Page) ([]model.Enrollment, error)
	GetEnrollment(ctx context.Context, id uint) (*model.Enrollment, error)
	Enroll(ctx context.Context, studentID, courseID uint, grade *string) (*model.Enrollment, error)
	SetGrade(ctx context.Context, id uint, grade *string) (*model.Enrollment, error)
	DeleteEnrollment(ctx context.Context, id uint) error
	StudentEnrollments(ctx context.Context, studentID uint) ([]model.Enrollment, error)
	CourseEnrollments(ctx context.Context, courseID uint) ([]model.Enrollment, error)
}

type enrollmentService struct {
	repo     repository.EnrollmentRepository
	students repository.StudentRepository
	courses  repository.CourseRepository
	now      func() time.Time
}

func NewEnrollmentService(repo repository.EnrollmentRepository, students repository.StudentRepository, courses repository.CourseRepository) EnrollmentService {
	return &enrollmentService{repo: repo, students: students, courses: courses, now: time.Now}
}

func (s *enrollmentService) ListEnrollments(ctx context.Context, filter repository.EnrollmentFilter, page repository.Page) ([]model.Enrollment, error) {
	enrollments, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

func (s *enrollmentService) GetEnrollment(ctx context.Context, id uint) (*model.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return enrollment, nil
}

func (s *enrollmentService) Enroll(ctx context.Context, studentID, courseID uint, grade *string) (*model.Enrollment, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByPair(ctx, studentID, courseID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}

	enrollment := &model.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		EnrolledAt: s.now().UTC(),
		Grade:      grade,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEnrollmentExists
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	return s.GetEnrollment(ctx, enrollment.ID)
}

// SetGrade replaces the grade when one is given; a nil grade leaves the record as is.
func (s *enrollmentService) SetGrade(ctx context.Context, id uint, grade *string) (*model.Enrollment, error) {
	enrollment, err := s.GetEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	if grade == nil {
		return enrollment, nil
	}
	enrollment.Grade = grade
	if err := s.repo.Update(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("update enrollment: %w", err)
	}
	return enrollment, nil
}

func (s *enrollmentService) DeleteEnrollment(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

func (s *enrollmentService) StudentEnrollments(ctx context.Context, studentID uint) ([]model.Enrollment, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return s.ListEnrollments(ctx, repository.EnrollmentFilter{StudentID: studentID}, repository.Page{Limit: repository.MaxLimit})
}

func (s *enrollmentService) CourseEnrollments(ctx context.Context, courseID uint) ([]model.Enrollment, error) {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.ListEnrollments(ctx, repository.EnrollmentFilter{CourseID: courseID}, repository.Page{Limit: repository.MaxLimit})
}

func (s *enrollmentService) requireStudent(ctx context.Context, id uint) error {
	if _, err := s.students.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("find student: %w", err)
	}
	return nil
}

func (s *enrollmentService) requireCourse(ctx context.Context, id uint) error {
	if _, err := s.courses.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("find course: %w", err)
	}
	return nil
}
