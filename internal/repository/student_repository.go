package repository

import (
	"context"

	"gorm.io/gorm"

	"studentms/internal/model"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	Department string
}

// StudentRepository defines student persistence operations.
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Student, error)
	FindByRollNumber(ctx context.Context, rollNumber string) (*model.Student, error)
	FindByEmail(ctx context.Context, email string) (*model.Student, error)
	List(ctx context.Context, filter StudentFilter, page Page) ([]model.Student, error)
	Count(ctx context.Context) (int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *model.Student) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("User").Create(student).Error)
}

func (r *studentRepository) Update(ctx context.Context, student *model.Student) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("User").Save(student).Error)
}

func (r *studentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Student{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studentRepository) FindByID(ctx context.Context, id uint) (*model.Student, error) {
	var student model.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByRollNumber(ctx context.Context, rollNumber string) (*model.Student, error) {
	var student model.Student
	if err := r.db.WithContext(ctx).Where("roll_number = ?", rollNumber).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByEmail(ctx context.Context, email string) (*model.Student, error) {
	var student model.Student
	if err := r.db.WithContext(ctx).Where("email = ?", normalize(email)).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter, page Page) ([]model.Student, error) {
	q := r.db.WithContext(ctx).Model(&model.Student{})
	if filter.Department != "" {
		q = q.Where("department = ?", filter.Department)
	}
	var students []model.Student
	if err := page.apply(q).Order("id").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).Count(&n).Error
	return n, err
}
