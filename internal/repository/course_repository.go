package repository

import (
	"context"

	"gorm.io/gorm"

	"studentms/internal/model"
)

type CourseFilter struct {
	Department string
}

// CourseRepository defines course persistence operations.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Course, error)
	FindByCode(ctx context.Context, code string) (*model.Course, error)
	List(ctx context.Context, filter CourseFilter, page Page) ([]model.Course, error)
	Count(ctx context.Context) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("Instructor").Create(course).Error)
}

func (r *courseRepository) Update(ctx context.Context, course *model.Course) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("Instructor").Save(course).Error)
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Course{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) FindByID(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) FindByCode(ctx context.Context, code string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("course_code = ?", code).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter, page Page) ([]model.Course, error) {
	q := r.db.WithContext(ctx).Model(&model.Course{})
	if filter.Department != "" {
		q = q.Where("department = ?", filter.Department)
	}
	var courses []model.Course
	if err := page.apply(q).Order("id").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Course{}).Count(&n).Error
	return n, err
}
