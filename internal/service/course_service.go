package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "studentms/internal/errors"
	"studentms/internal/model"
	"studentms/internal/repository"
)

var (
	ErrCourseNotFound    = apperrors.NotFound("COURSE_NOT_FOUND", "Course not found")
	ErrCourseCodeTaken   = apperrors.Conflict("COURSE_CODE_TAKEN", "Course code already exists")
	ErrCreditsOutOfRange = apperrors.BadRequest("INVALID_CREDITS", "Credits must be between 1 and 6")
)

const (
	minCredits = 1
	maxCredits = 6
)

type CourseInput struct {
	CourseCode   string
	CourseName   string
	Description  *string
	Credits      int
	Department   string
	InstructorID *uint
}

type CourseUpdate struct {
	CourseCode   *string
	CourseName   *string
	Description  *string
	Credits      *int
	Department   *string
	InstructorID *uint
}

type CourseService interface {
	ListCourses(ctx context.Context, filter repository.CourseFilter, page repository.Page) ([]model.Course, error)
	GetCourse(ctx context.Context, id uint) (*model.Course, error)
	// CreateCourse records a course. A faculty creator becomes its instructor.
	CreateCourse(ctx context.Context, actor *model.User, in CourseInput) (*model.Course, error)
	UpdateCourse(ctx context.Context, id uint, in CourseUpdate) (*model.Course, error)
	DeleteCourse(ctx context.Context, id uint) error
}

type courseService struct {
	repo repository.CourseRepository
}

func NewCourseService(repo repository.CourseRepository) CourseService {
	return &courseService{repo: repo}
}

func (s *courseService) ListCourses(ctx context.Context, filter repository.CourseFilter, page repository.Page) ([]model.Course, error) {
	filter.Department = strings.TrimSpace(filter.Department)
	courses, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return course, nil
}

func (s *courseService) CreateCourse(ctx context.Context, actor *model.User, in CourseInput) (*model.Course, error) {
	credits := in.Credits
	if credits == 0 {
		credits = model.DefaultCourseCredits
	}
	if credits < minCredits || credits > maxCredits {
		return nil, ErrCreditsOutOfRange
	}

	course := &model.Course{
		CourseCode:   normalizeCode(in.CourseCode),
		CourseName:   strings.TrimSpace(in.CourseName),
		Description:  in.Description,
		Credits:      credits,
		Department:   strings.TrimSpace(in.Department),
		InstructorID: in.InstructorID,
	}
	if actor != nil && actor.Role == model.RoleFaculty {
		id := actor.ID
		course.InstructorID = &id
	}

	if err := s.checkCode(ctx, 0, course.CourseCode); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCourseCodeTaken
		}
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, id uint, in CourseUpdate) (*model.Course, error) {
	course, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.CourseCode != nil {
		course.CourseCode = normalizeCode(*in.CourseCode)
		if err := s.checkCode(ctx, id, course.CourseCode); err != nil {
			return nil, err
		}
	}
	if in.CourseName != nil {
		course.CourseName = strings.TrimSpace(*in.CourseName)
	}
	if in.Description != nil {
		course.Description = in.Description
	}
	if in.Credits != nil {
		if *in.Credits < minCredits || *in.Credits > maxCredits {
			return nil, ErrCreditsOutOfRange
		}
		course.Credits = *in.Credits
	}
	if in.Department != nil {
		course.Department = strings.TrimSpace(*in.Department)
	}
	if in.InstructorID != nil {
		course.InstructorID = in.InstructorID
	}

	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCourseCodeTaken
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	return course, nil
}

func (s *courseService) DeleteCourse(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

func (s *courseService) checkCode(ctx context.Context, self uint, code string) error {
	existing, err := s.repo.FindByCode(ctx, code)
	switch {
	case err == nil && existing.ID != self:
		return ErrCourseCodeTaken
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("check course code: %w", err)
	}
	return nil
}
