package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"studentms/internal/repository"
	"studentms/internal/service"
)

// StudentHandler handles student endpoints.
type StudentHandler struct {
	studentService service.StudentService
}

// NewStudentHandler creates a new student handler.
func NewStudentHandler(studentService service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// CreateStudentRequest represents a new student record.
type CreateStudentRequest struct {
	FullName    string `json:"full_name" validate:"required,min=2,max=100"`
	RollNumber  string `json:"roll_number" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email,max=255"`
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Department  string `json:"department" validate:"required,max=100"`
	YearOfStudy string `json:"year_of_study" validate:"required,max=20"`
	UserID      *uint  `json:"user_id,omitempty"`
}

// UpdateStudentRequest carries the fields to change; omitted fields are kept.
type UpdateStudentRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=2,max=100"`
	RollNumber  *string `json:"roll_number" validate:"omitempty,min=1,max=50"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,phone"`
	Department  *string `json:"department" validate:"omitempty,min=1,max=100"`
	YearOfStudy *string `json:"year_of_study" validate:"omitempty,min=1,max=20"`
}

// ListStudents godoc
// @Summary List students
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Records to skip"
// @Param limit query int false "Page size" default(100)
// @Param department query string false "Filter by department"
// @Success 200 {array} model.Student
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /students [get]
func (h *StudentHandler) ListStudents(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err)
	}
	students, err := h.studentService.ListStudents(c.Request().Context(),
		repository.StudentFilter{Department: c.QueryParam("department")}, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, students)
}

// GetStudent godoc
// @Summary Get student by id
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} model.Student
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /students/{id} [get]
func (h *StudentHandler) GetStudent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	student, err := h.studentService.GetStudent(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, student)
}

// CreateStudent godoc
// @Summary Create student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateStudentRequest true "Student data"
// @Success 201 {object} model.Student
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c echo.Context) error {
	var req CreateStudentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	student, err := h.studentService.CreateStudent(c.Request().Context(), service.StudentInput{
		FullName:    req.FullName,
		RollNumber:  req.RollNumber,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Department:  req.Department,
		YearOfStudy: req.YearOfStudy,
		UserID:      req.UserID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, student)
}

// UpdateStudent godoc
// @Summary Update student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param request body UpdateStudentRequest true "Fields to change"
// @Success 200 {object} model.Student
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /students/{id} [put]
func (h *StudentHandler) UpdateStudent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req UpdateStudentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	student, err := h.studentService.UpdateStudent(c.Request().Context(), id, service.StudentUpdate{
		FullName:    req.FullName,
		RollNumber:  req.RollNumber,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Department:  req.Department,
		YearOfStudy: req.YearOfStudy,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, student)
}

// DeleteStudent godoc
// @Summary Delete student
// @Tags students
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /students/{id} [delete]
func (h *StudentHandler) DeleteStudent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.studentService.DeleteStudent(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
