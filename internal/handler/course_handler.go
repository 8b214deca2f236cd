package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"studentms/internal/middleware"
	"studentms/internal/repository"
	"studentms/internal/service"
)

// CourseHandler handles course endpoints.
type CourseHandler struct {
	courseService service.CourseService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// CreateCourseRequest represents a new course.
type CreateCourseRequest struct {
	CourseCode   string  `json:"course_code" validate:"required,max=20"`
	CourseName   string  `json:"course_name" validate:"required,max=200"`
	Description  *string `json:"description,omitempty"`
	Credits      int     `json:"credits,omitempty" validate:"omitempty,min=1,max=6"`
	Department   string  `json:"department" validate:"required,max=100"`
	InstructorID *uint   `json:"instructor_id,omitempty"`
}

// UpdateCourseRequest carries the fields to change.
type UpdateCourseRequest struct {
	CourseCode   *string `json:"course_code" validate:"omitempty,min=1,max=20"`
	CourseName   *string `json:"course_name" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description"`
	Credits      *int    `json:"credits" validate:"omitempty,min=1,max=6"`
	Department   *string `json:"department" validate:"omitempty,min=1,max=100"`
	InstructorID *uint   `json:"instructor_id"`
}

// ListCourses godoc
// @Summary List courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Records to skip"
// @Param limit query int false "Page size" default(100)
// @Param department query string false "Filter by department"
// @Success 200 {array} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err)
	}
	courses, err := h.courseService.ListCourses(c.Request().Context(),
		repository.CourseFilter{Department: c.QueryParam("department")}, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, courses)
}

// GetCourse godoc
// @Summary Get course by id
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} model.Course
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	course, err := h.courseService.GetCourse(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, course)
}

// CreateCourse godoc
// @Summary Create course
// @Description A faculty member creating a course becomes its instructor.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCourseRequest true "Course data"
// @Success 201 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c echo.Context) error {
	var req CreateCourseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	course, err := h.courseService.CreateCourse(c.Request().Context(), middleware.CurrentUser(c), service.CourseInput{
		CourseCode:   req.CourseCode,
		CourseName:   req.CourseName,
		Description:  req.Description,
		Credits:      req.Credits,
		Department:   req.Department,
		InstructorID: req.InstructorID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, course)
}

// UpdateCourse godoc
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body UpdateCourseRequest true "Fields to change"
// @Success 200 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req UpdateCourseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	course, err := h.courseService.UpdateCourse(c.Request().Context(), id, service.CourseUpdate{
		CourseCode:   req.CourseCode,
		CourseName:   req.CourseName,
		Description:  req.Description,
		Credits:      req.Credits,
		Department:   req.Department,
		InstructorID: req.InstructorID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, course)
}

// DeleteCourse godoc
// @Summary Delete course
// @Tags courses
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.courseService.DeleteCourse(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
