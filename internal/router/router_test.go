package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studentms/internal/auth"
	"studentms/internal/config"
	apperrors "studentms/internal/errors"
	"studentms/internal/handler"
	"studentms/internal/logging"
	"studentms/internal/model"
	"studentms/internal/notify"
	"studentms/internal/repository"
	"studentms/internal/service"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.PasswordResetEvent
}

func (n *captureNotifier) PasswordReset(_ context.Context, event notify.PasswordResetEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *captureNotifier) Close() error { return nil }

func (n *captureNotifier) sent() []notify.PasswordResetEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.PasswordResetEvent(nil), n.events...)
}

type testServer struct {
	e        *echo.Echo
	tokens   *auth.TokenService
	notifier *captureNotifier
	auth     service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AllowedOrigins: []string{"http://localhost:3000"},
		AuthRateLimit:  10,
		AuthRateWindow: time.Minute,
	}
	log := logging.NewWithWriter(io.Discard, "error")

	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	courses := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	attendance := repository.NewAttendanceRepository(db)

	tokens := auth.NewTokenService(auth.NewSecretManager("router-test-secret", ""), 30*time.Minute, 7*24*time.Hour)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	notifier := &captureNotifier{}
	authService := service.NewAuthService(users, tokens, hasher, notifier)

	e := echo.New()
	Register(e, cfg, log, nil, auth.NewGuard(tokens, users), Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Users:      handler.NewUserHandler(service.NewUserService(users)),
		Students:   handler.NewStudentHandler(service.NewStudentService(students, nil)),
		Courses:    handler.NewCourseHandler(service.NewCourseService(courses)),
		Enrollment: handler.NewEnrollmentHandler(service.NewEnrollmentService(enrollments, students, courses)),
		Attendance: handler.NewAttendanceHandler(service.NewAttendanceService(attendance, students, courses, nil)),
	})
	return &testServer{e: e, tokens: tokens, notifier: notifier, auth: authService}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, name, role string) service.AuthResult {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/register", "", echo.Map{
		"email":     name + "@example.com",
		"username":  name,
		"full_name": "User " + name,
		"password":  "Passw0rd!",
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result service.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Student Management System API","version":"1.0.0"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	result := s.register(t, "alice", "")
	assert.Equal(t, "bearer", result.TokenType)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, model.RoleStudent, result.User.Role)
	assert.True(t, result.User.IsActive)

	tests := []struct {
		name     string
		body     echo.Map
		wantCode int
		wantErr  string
	}{
		{
			name: "email differing only in case",
			body: echo.Map{
				"email": "ALICE@Example.com", "username": "alice2",
				"full_name": "Alice Two", "password": "Passw0rd!",
			},
			wantCode: http.StatusConflict,
			wantErr:  "EMAIL_TAKEN",
		},
		{
			name: "username taken",
			body: echo.Map{
				"email": "other@example.com", "username": "alice",
				"full_name": "Other", "password": "Passw0rd!",
			},
			wantCode: http.StatusConflict,
			wantErr:  "USERNAME_TAKEN",
		},
		{
			name: "weak password",
			body: echo.Map{
				"email": "weak@example.com", "username": "weak",
				"full_name": "Weak", "password": "password",
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name: "username with symbols",
			body: echo.Map{
				"email": "sym@example.com", "username": "bad-name",
				"full_name": "Sym", "password": "Passw0rd!",
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name: "unknown role",
			body: echo.Map{
				"email": "role@example.com", "username": "roleuser",
				"full_name": "Role", "password": "Passw0rd!", "role": "superuser",
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, errorBody(t, rec).Code)
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "bob", "")

	rec := s.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "BOB@example.com", "password": "Passw0rd!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	wrongPassword := s.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "bob@example.com", "password": "Wrong0rd!"})
	unknownEmail := s.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "nobody@example.com", "password": "Passw0rd!"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Equal(t, "Invalid email or password", errorBody(t, wrongPassword).Error)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	s := newTestServer(t)
	result := s.register(t, "carol", "")

	rec := s.do(t, http.MethodGet, "/auth/me", result.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "carol", me.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodGet, "/auth/me", result.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "NOT_AUTHENTICATED", errorBody(t, rec).Code)

	rec = s.do(t, http.MethodPost, "/auth/refresh", "", echo.Map{"refresh_token": result.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/refresh", "", echo.Map{"refresh_token": result.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed service.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.Equal(t, "carol", refreshed.User.Username)
}

func TestUpdateMe(t *testing.T) {
	s := newTestServer(t)
	result := s.register(t, "dave", "")

	rec := s.do(t, http.MethodPut, "/auth/me", result.AccessToken, echo.Map{"full_name": "  Dave Renamed  "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me model.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "Dave Renamed", me.FullName)

	rec = s.do(t, http.MethodPut, "/auth/me?full_name=Dave+Query", result.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "Dave Query", me.FullName)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "root", "admin")
	faculty := s.register(t, "prof", "faculty")
	student := s.register(t, "pupil", "student")

	student1 := echo.Map{
		"full_name": "Eve Student", "roll_number": "cs-001", "email": "Eve@Example.com",
		"phone_number": "+1 (555) 123-4567", "department": "CS", "year_of_study": "2",
	}

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     interface{}
		wantCode int
	}{
		{"student lists users", http.MethodGet, "/users", student.AccessToken, nil, http.StatusForbidden},
		{"faculty lists users", http.MethodGet, "/users", faculty.AccessToken, nil, http.StatusForbidden},
		{"admin lists users", http.MethodGet, "/users", admin.AccessToken, nil, http.StatusOK},
		{"admin filters by bad role", http.MethodGet, "/users?role=nobody", admin.AccessToken, nil, http.StatusBadRequest},
		{"student creates student", http.MethodPost, "/students", student.AccessToken, student1, http.StatusForbidden},
		{"faculty creates student", http.MethodPost, "/students", faculty.AccessToken, student1, http.StatusCreated},
		{"duplicate roll number", http.MethodPost, "/students", admin.AccessToken, student1, http.StatusConflict},
		{"student reads students", http.MethodGet, "/students", student.AccessToken, nil, http.StatusOK},
		{"anonymous reads students", http.MethodGet, "/students", "", nil, http.StatusUnauthorized},
		{"missing student", http.MethodGet, "/students/404", student.AccessToken, nil, http.StatusNotFound},
		{"non-numeric id", http.MethodGet, "/students/abc", student.AccessToken, nil, http.StatusBadRequest},
		{"student reads dashboard", http.MethodGet, "/dashboard/stats", student.AccessToken, nil, http.StatusOK},
		{"malformed attendance date", http.MethodGet, "/attendance?date=2024-13-45", student.AccessToken, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestCoursesEnrollmentsAndAttendance(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "root", "admin")
	faculty := s.register(t, "prof", "faculty")

	rec := s.do(t, http.MethodPost, "/students", admin.AccessToken, echo.Map{
		"full_name": "Frank", "roll_number": "r1", "email": "frank@example.com",
		"phone_number": "5551234567", "department": "Math", "year_of_study": "1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var st model.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "R1", st.RollNumber)

	rec = s.do(t, http.MethodPost, "/courses", faculty.AccessToken, echo.Map{
		"course_code": "math101", "course_name": "Calculus", "department": "Math",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var course model.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &course))
	assert.Equal(t, "MATH101", course.CourseCode)
	assert.Equal(t, model.DefaultCourseCredits, course.Credits)
	require.NotNil(t, course.InstructorID)
	assert.Equal(t, faculty.User.ID, *course.InstructorID)

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/courses/%d", course.ID), faculty.AccessToken, echo.Map{"credits": 4})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	enroll := echo.Map{"student_id": st.ID, "course_id": course.ID}
	rec = s.do(t, http.MethodPost, "/enrollments", faculty.AccessToken, enroll)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var enrollment model.EnrollmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enrollment))
	require.NotNil(t, enrollment.StudentName)
	require.NotNil(t, enrollment.CourseName)
	assert.Equal(t, "Frank", *enrollment.StudentName)
	assert.Equal(t, "Calculus", *enrollment.CourseName)

	rec = s.do(t, http.MethodPost, "/enrollments", faculty.AccessToken, enroll)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/enrollments/student/%d/courses", st.ID), faculty.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []model.EnrollmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	rec = s.do(t, http.MethodGet, "/enrollments/course/999/students", faculty.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, status := range []string{"Absent", "Present"} {
		rec = s.do(t, http.MethodPost, "/attendance", faculty.AccessToken, echo.Map{"student_id": st.ID, "status": status})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	today := time.Now().UTC().Format(time.DateOnly)
	rec = s.do(t, http.MethodGet, "/attendance?date="+today, faculty.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []model.AttendanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, model.AttendancePresent, records[0].Status)
	assert.Equal(t, "Frank", records[0].StudentName)

	rec = s.do(t, http.MethodGet, "/attendance/today/stats", faculty.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats service.TodayStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, service.TodayStats{TotalStudents: 1, PresentToday: 1, AbsentToday: 0, Date: today}, stats)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/enrollments/%d", enrollment.ID), faculty.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/enrollments/%d", enrollment.ID), admin.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminUserManagement(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "root", "admin")
	student := s.register(t, "pupil", "")

	studentPath := fmt.Sprintf("/admin/users/%d", student.User.ID)
	adminPath := fmt.Sprintf("/admin/users/%d", admin.User.ID)

	rec := s.do(t, http.MethodPut, adminPath+"/deactivate", admin.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "SELF_ACTION", errorBody(t, rec).Code)

	rec = s.do(t, http.MethodPut, studentPath+"/deactivate", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"User pupil deactivated successfully"}`, rec.Body.String())

	// an issued token stops working once the account is disabled
	rec = s.do(t, http.MethodGet, "/auth/me", student.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "USER_INACTIVE", errorBody(t, rec).Code)

	rec = s.do(t, http.MethodPost, "/auth/refresh", "", echo.Map{"refresh_token": student.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPut, studentPath+"/activate", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, studentPath+"/role?role=faculty", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"User pupil role updated to faculty"}`, rec.Body.String())

	// the stored role wins over the role baked into the old token
	rec = s.do(t, http.MethodPost, "/courses", student.AccessToken, echo.Map{
		"course_code": "bio1", "course_name": "Biology", "department": "Bio",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, studentPath+"/role?role=emperor", admin.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/users?skip=1&limit=1", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page []model.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page, 1)
	assert.Equal(t, "pupil", page[0].Username)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", admin.User.ID), admin.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", student.User.ID), admin.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", student.User.ID), admin.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/auth/me", student.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordReset(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "gina", "")

	known := s.do(t, http.MethodPost, "/auth/forgot-password", "", echo.Map{"email": "gina@example.com"})
	unknown := s.do(t, http.MethodPost, "/auth/forgot-password", "", echo.Map{"email": "ghost@example.com"})
	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	s.auth.Wait()
	events := s.notifier.sent()
	require.Len(t, events, 1)
	assert.Equal(t, "gina@example.com", events[0].Email)
	resetToken := events[0].Token

	access, err := s.tokens.IssueAccess(events[0].UserID, model.RoleStudent)
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		password string
		wantCode int
		wantMsg  string
	}{
		{"access token", access, "NewPassw0rd!", http.StatusBadRequest, "Invalid reset token"},
		{"garbage token", "not-a-token", "NewPassw0rd!", http.StatusBadRequest, "Invalid or expired reset token"},
		{"short password", resetToken, "short", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/auth/reset-password", "", echo.Map{"token": tt.token, "new_password": tt.password})
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errorBody(t, rec).Error)
			}
		})
	}

	rec := s.do(t, http.MethodPost, "/auth/reset-password", "", echo.Map{"token": resetToken, "new_password": "NewPassw0rd!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Password has been reset successfully"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "gina@example.com", "password": "Passw0rd!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "gina@example.com", "password": "NewPassw0rd!"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	result := s.register(t, "hank", "")

	rec := s.do(t, http.MethodPost, "/auth/logout", result.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Successfully logged out"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClientIPIgnoresForwardingHeaders(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "9.9.9.9:4321"
	req.Header.Set(echo.HeaderXForwardedFor, "1.1.1.1")
	req.Header.Set(echo.HeaderXRealIP, "2.2.2.2")
	c := s.e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "9.9.9.9", c.RealIP())
}
