package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "studentms/internal/errors"
	"studentms/internal/model"
	"studentms/internal/repository"
	"studentms/internal/service"
)

var errInvalidDate = apperrors.BadRequest("INVALID_DATE", "Invalid date format. Use YYYY-MM-DD")

// AttendanceHandler handles attendance and dashboard endpoints.
type AttendanceHandler struct {
	attendanceService service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(attendanceService service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// MarkAttendanceRequest records today's status for a student.
type MarkAttendanceRequest struct {
	StudentID uint    `json:"student_id" validate:"required"`
	Status    string  `json:"status" validate:"required,oneof=Present Absent Late Excused" enums:"Present,Absent,Late,Excused"`
	Remarks   *string `json:"remarks,omitempty"`
}

// MarkAttendance godoc
// @Summary Mark attendance
// @Description Replaces an earlier mark for the same student on the same UTC day.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body MarkAttendanceRequest true "Attendance data"
// @Success 201 {object} model.AttendanceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /attendance [post]
func (h *AttendanceHandler) MarkAttendance(c echo.Context) error {
	var req MarkAttendanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	record, err := h.attendanceService.Mark(c.Request().Context(), req.StudentID, model.AttendanceStatus(req.Status), req.Remarks)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, record.Response())
}

// ListAttendance godoc
// @Summary List attendance records
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day (YYYY-MM-DD, UTC)"
// @Param student_id query int false "Filter by student"
// @Success 200 {array} model.AttendanceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /attendance [get]
func (h *AttendanceHandler) ListAttendance(c echo.Context) error {
	var filter repository.AttendanceFilter
	if raw := c.QueryParam("date"); raw != "" {
		day, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
		if err != nil {
			return respondError(c, errInvalidDate)
		}
		filter.Day = &day
	}
	studentID, err := parseOptionalID(c, "student_id")
	if err != nil {
		return respondError(c, err)
	}
	filter.StudentID = studentID

	records, err := h.attendanceService.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]model.AttendanceResponse, 0, len(records))
	for i := range records {
		out = append(out, records[i].Response())
	}
	return c.JSON(http.StatusOK, out)
}

// TodayStats godoc
// @Summary Today's attendance summary
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.TodayStats
// @Failure 401 {object} errors.ErrorResponse
// @Router /attendance/today/stats [get]
func (h *AttendanceHandler) TodayStats(c echo.Context) error {
	stats, err := h.attendanceService.TodayStats(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// DashboardStats godoc
// @Summary Dashboard counters
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DashboardStats
// @Failure 401 {object} errors.ErrorResponse
// @Router /dashboard/stats [get]
func (h *AttendanceHandler) DashboardStats(c echo.Context) error {
	stats, err := h.attendanceService.DashboardStats(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
