package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"studentms/internal/auth"
	"studentms/internal/cache"
	"studentms/internal/config"
	"studentms/internal/handler"
	mw "studentms/internal/middleware"
	"studentms/internal/model"
)

const (
	apiName    = "Student Management System API"
	apiVersion = "1.0.0"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Students   *handler.StudentHandler
	Courses    *handler.CourseHandler
	Enrollment *handler.EnrollmentHandler
	Attendance *handler.AttendanceHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	store *cache.Client,
	guard *auth.Guard,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(mw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	extractor, err := mw.IPExtractor(cfg.TrustedProxies)
	if err != nil {
		logger.Warn("ignoring TRUSTED_PROXIES, using peer address for client IP", "error", err)
		extractor = echo.ExtractIPDirect()
	}
	e.IPExtractor = extractor

	e.Validator = handler.NewValidator()

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": apiName, "version": apiVersion})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "healthy"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	limited := mw.RateLimit(store, "ratelimit:auth", cfg.AuthRateLimit, cfg.AuthRateWindow)
	authenticated := mw.Authenticate(guard)
	staff := mw.RequireRoles(model.RoleAdmin, model.RoleFaculty)
	admin := mw.RequireRoles(model.RoleAdmin)

	// Public routes
	authGroup := e.Group("/auth")
	authGroup.POST("/register", h.Auth.Register, limited)
	authGroup.POST("/login", h.Auth.Login, limited)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/forgot-password", h.Auth.ForgotPassword, limited)
	authGroup.POST("/reset-password", h.Auth.ResetPassword, limited)

	// Session routes
	authGroup.POST("/logout", h.Auth.Logout, authenticated)
	authGroup.GET("/me", h.Auth.Me, authenticated)
	authGroup.PUT("/me", h.Auth.UpdateMe, authenticated)

	users := e.Group("/users", authenticated, admin)
	users.GET("", h.Users.ListUsers)
	users.DELETE("/:id", h.Users.DeleteUser)

	adminUsers := e.Group("/admin/users", authenticated, admin)
	adminUsers.GET("", h.Users.AdminListUsers)
	adminUsers.PUT("/:id/activate", h.Users.ActivateUser)
	adminUsers.PUT("/:id/deactivate", h.Users.DeactivateUser)
	adminUsers.PUT("/:id/role", h.Users.ChangeRole)

	students := e.Group("/students", authenticated)
	students.GET("", h.Students.ListStudents)
	students.GET("/:id", h.Students.GetStudent)
	students.POST("", h.Students.CreateStudent, staff)
	students.PUT("/:id", h.Students.UpdateStudent, staff)
	students.DELETE("/:id", h.Students.DeleteStudent, staff)

	courses := e.Group("/courses", authenticated)
	courses.GET("", h.Courses.ListCourses)
	courses.GET("/:id", h.Courses.GetCourse)
	courses.POST("", h.Courses.CreateCourse, staff)
	courses.PUT("/:id", h.Courses.UpdateCourse, admin)
	courses.DELETE("/:id", h.Courses.DeleteCourse, admin)

	enrollments := e.Group("/enrollments", authenticated)
	enrollments.GET("", h.Enrollment.ListEnrollments)
	enrollments.GET("/:id", h.Enrollment.GetEnrollment)
	enrollments.POST("", h.Enrollment.CreateEnrollment, staff)
	enrollments.PUT("/:id", h.Enrollment.UpdateEnrollment, staff)
	enrollments.DELETE("/:id", h.Enrollment.DeleteEnrollment, admin)
	enrollments.GET("/student/:id/courses", h.Enrollment.StudentCourses)
	enrollments.GET("/course/:id/students", h.Enrollment.CourseStudents)

	attendance := e.Group("/attendance", authenticated)
	attendance.POST("", h.Attendance.MarkAttendance, staff)
	attendance.GET("", h.Attendance.ListAttendance)
	attendance.GET("/today/stats", h.Attendance.TodayStats)

	e.GET("/dashboard/stats", h.Attendance.DashboardStats, authenticated)
}
