package repository

import (
	"context"

	"gorm.io/gorm"

	"studentms/internal/model"
)

// EnrollmentFilter narrows enrollment listings. Zero ids are ignored.
type EnrollmentFilter struct {
	StudentID uint
	CourseID  uint
}

// EnrollmentRepository defines enrollment persistence operations.
// Reads preload Student and Course so responses can carry display names.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	Update(ctx context.Context, enrollment *model.Enrollment) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Enrollment, error)
	FindByPair(ctx context.Context, studentID, courseID uint) (*model.Enrollment, error)
	List(ctx context.Context, filter EnrollmentFilter, page Page) ([]model.Enrollment, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) withNames(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Student").Preload("Course")
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("Student", "Course").Create(enrollment).Error)
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *model.Enrollment) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("Student", "Course").Save(enrollment).Error)
}

func (r *enrollmentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Enrollment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepository) FindByID(ctx context.Context, id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.withNames(ctx).First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindByPair(ctx context.Context, studentID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) List(ctx context.Context, filter EnrollmentFilter, page Page) ([]model.Enrollment, error) {
	q := r.withNames(ctx).Model(&model.Enrollment{})
	if filter.StudentID != 0 {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if filter.CourseID != 0 {
		q = q.Where("course_id = ?", filter.CourseID)
	}
	var enrollments []model.Enrollment
	if err := page.apply(q).Order("id").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}
