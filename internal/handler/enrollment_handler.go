package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"studentms/internal/model"
	"studentms/internal/repository"
	"studentms/internal/service"
)

// EnrollmentHandler handles enrollment endpoints.
type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(enrollmentService service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// CreateEnrollmentRequest enrolls a student in a course.
type CreateEnrollmentRequest struct {
	StudentID uint    `json:"student_id" validate:"required"`
	CourseID  uint    `json:"course_id" validate:"required"`
	Grade     *string `json:"grade,omitempty" validate:"omitempty,max=5"`
}

// UpdateEnrollmentRequest sets a grade.
type UpdateEnrollmentRequest struct {
	Grade *string `json:"grade" validate:"omitempty,max=5"`
}

// ListEnrollments godoc
// @Summary List enrollments
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param student_id query int false "Filter by student"
// @Param course_id query int false "Filter by course"
// @Param skip query int false "Records to skip"
// @Param limit query int false "Page size" default(100)
// @Success 200 {array} model.EnrollmentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListEnrollments(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err)
	}
	studentID, err := parseOptionalID(c, "student_id")
	if err != nil {
		return respondError(c, err)
	}
	courseID, err := parseOptionalID(c, "course_id")
	if err != nil {
		return respondError(c, err)
	}
	enrollments, err := h.enrollmentService.ListEnrollments(c.Request().Context(),
		repository.EnrollmentFilter{StudentID: studentID, CourseID: courseID}, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, enrollmentResponses(enrollments))
}

// GetEnrollment godoc
// @Summary Get enrollment by id
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} model.EnrollmentResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) GetEnrollment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	enrollment, err := h.enrollmentService.GetEnrollment(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, enrollment.Response())
}

// CreateEnrollment godoc
// @Summary Enroll a student in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEnrollmentRequest true "Enrollment data"
// @Success 201 {object} model.EnrollmentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /enrollments [post]
func (h *EnrollmentHandler) CreateEnrollment(c echo.Context) error {
	var req CreateEnrollmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	enrollment, err := h.enrollmentService.Enroll(c.Request().Context(), req.StudentID, req.CourseID, req.Grade)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, enrollment.Response())
}

// UpdateEnrollment godoc
// @Summary Set enrollment grade
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Param request body UpdateEnrollmentRequest true "Grade"
// @Success 200 {object} model.EnrollmentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /enrollments/{id} [put]
func (h *EnrollmentHandler) UpdateEnrollment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req UpdateEnrollmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	enrollment, err := h.enrollmentService.SetGrade(c.Request().Context(), id, req.Grade)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, enrollment.Response())
}

// DeleteEnrollment godoc
// @Summary Delete enrollment
// @Tags enrollments
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) DeleteEnrollment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.enrollmentService.DeleteEnrollment(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StudentCourses godoc
// @Summary Enrollments of a student
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {array} model.EnrollmentResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /enrollments/student/{id}/courses [get]
func (h *EnrollmentHandler) StudentCourses(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	enrollments, err := h.enrollmentService.StudentEnrollments(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, enrollmentResponses(enrollments))
}

// CourseStudents godoc
// @Summary Enrollments in a course
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {array} model.EnrollmentResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /enrollments/course/{id}/students [get]
func (h *EnrollmentHandler) CourseStudents(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	enrollments, err := h.enrollmentService.CourseEnrollments(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, enrollmentResponses(enrollments))
}

func enrollmentResponses(enrollments []model.Enrollment) []model.EnrollmentResponse {
	out := make([]model.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		out = append(out, enrollments[i].Response())
	}
	return out
}
