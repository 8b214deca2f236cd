package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"studentms/internal/cache"
	apperrors "studentms/internal/errors"
	"studentms/internal/model"
	"studentms/internal/repository"
)

const studentCacheTTL = 5 * time.Minute

var (
	ErrStudentNotFound   = apperrors.NotFound("STUDENT_NOT_FOUND", "Student not found")
	ErrRollNumberTaken   = apperrors.Conflict("ROLL_NUMBER_TAKEN", "Roll number already exists")
	ErrStudentEmailTaken = apperrors.Conflict("EMAIL_TAKEN", "Email already exists")
	ErrStudentExists     = apperrors.Conflict("STUDENT_EXISTS", "Student with this roll number or email already exists")
)

// StudentInput is the full set of fields for a new student.
type StudentInput struct {
	FullName    string
	RollNumber  string
	Email       string
	PhoneNumber string
	Department  string
	YearOfStudy string
	UserID      *uint
}

// StudentUpdate changes only the non-nil fields.
type StudentUpdate struct {
	FullName    *string
	RollNumber  *string
	Email       *string
	PhoneNumber *string
	Department  *string
	YearOfStudy *string
}

// StudentService exposes student records. Single-student reads go through the cache.
type StudentService interface {
	ListStudents(ctx context.Context, filter repository.StudentFilter, page repository.Page) ([]model.Student, error)
	GetStudent(ctx context.Context, id uint) (*model.Student, error)
	CreateStudent(ctx context.Context, in StudentInput) (*model.Student, error)
	UpdateStudent(ctx context.Context, id uint, in StudentUpdate) (*model.Student, error)
	DeleteStudent(ctx context.Context, id uint) error
}

type studentService struct {
	repo  repository.StudentRepository
	cache *cache.Client
}

func NewStudentService(repo repository.StudentRepository, cache *cache.Client) StudentService {
	return &studentService{repo: repo, cache: cache}
}

func (s *studentService) cacheKey(id uint) string {
	return fmt.Sprintf("student:%d", id)
}

func (s *studentService) ListStudents(ctx context.Context, filter repository.StudentFilter, page repository.Page) ([]model.Student, error) {
	filter.Department = strings.TrimSpace(filter.Department)
	students, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (s *studentService) GetStudent(ctx context.Context, id uint) (*model.Student, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Student
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(student); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, studentCacheTTL)
	}
	return student, nil
}

func (s *studentService) CreateStudent(ctx context.Context, in StudentInput) (*model.Student, error) {
	student := &model.Student{
		FullName:    strings.TrimSpace(in.FullName),
		RollNumber:  normalizeCode(in.RollNumber),
		Email:       normalizeEmail(in.Email),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Department:  strings.TrimSpace(in.Department),
		YearOfStudy: strings.TrimSpace(in.YearOfStudy),
		UserID:      in.UserID,
	}
	if err := s.checkUnique(ctx, 0, student.RollNumber, student.Email); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrStudentExists
		}
		return nil, fmt.Errorf("create student: %w", err)
	}
	return student, nil
}

func (s *studentService) UpdateStudent(ctx context.Context, id uint, in StudentUpdate) (*model.Student, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	roll, email := "", ""
	if in.RollNumber != nil {
		roll = normalizeCode(*in.RollNumber)
		student.RollNumber = roll
	}
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
		student.Email = email
	}
	if err := s.checkUnique(ctx, id, roll, email); err != nil {
		return nil, err
	}
	if in.FullName != nil {
		student.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.PhoneNumber != nil {
		student.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.Department != nil {
		student.Department = strings.TrimSpace(*in.Department)
	}
	if in.YearOfStudy != nil {
		student.YearOfStudy = strings.TrimSpace(*in.YearOfStudy)
	}

	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrStudentExists
		}
		return nil, fmt.Errorf("update student: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return student, nil
}

func (s *studentService) DeleteStudent(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("delete student: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

// checkUnique rejects a roll number or email held by a student other than self.
// Empty values are skipped.
func (s *studentService) checkUnique(ctx context.Context, self uint, roll, email string) error {
	if roll != "" {
		existing, err := s.repo.FindByRollNumber(ctx, roll)
		if err == nil && existing.ID != self {
			return ErrRollNumberTaken
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check roll number: %w", err)
		}
	}
	if email != "" {
		existing, err := s.repo.FindByEmail(ctx, email)
		if err == nil && existing.ID != self {
			return ErrStudentEmailTaken
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check email: %w", err)
		}
	}
	return nil
}

func (s *studentService) find(ctx context.Context, id uint) (*model.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return student, nil
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
