package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"studentms/docs"
	"studentms/internal/auth"
	"studentms/internal/cache"
	"studentms/internal/config"
	"studentms/internal/db"
	"studentms/internal/handler"
	"studentms/internal/logging"
	"studentms/internal/notify"
	"studentms/internal/repository"
	"studentms/internal/router"
	"studentms/internal/service"
)

// @title Student Management System API
// @version 1.0.0
// @description Student management API with JWT authentication and role based access control.
// @host localhost:8005
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		fatal(logger, "database init", err)
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			fatal(logger, "reset database", err)
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		fatal(logger, "auto-migrate", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, caching and rate limiting disabled", "addr", cfg.RedisAddr, "error", err)
	}
	cancel()

	// Resolve the signing secret up front so a broken secret file stops startup.
	secrets := auth.NewSecretManager(cfg.SecretKey, cfg.SecretKeyFile)
	if _, err := secrets.SigningSecret(); err != nil {
		fatal(logger, "signing secret", err)
	}
	tokens := auth.NewTokenService(secrets, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	notifier, err := notify.New(notify.Options{
		Backend:      cfg.ResetNotifier,
		AMQPURL:      cfg.AMQPURL,
		Queue:        cfg.ResetQueue,
		KafkaBrokers: cfg.KafkaBrokers,
		Topic:        cfg.ResetTopic,
	}, logger)
	if err != nil {
		fatal(logger, "reset notifier", err)
	}
	defer notifier.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	studentRepo := repository.NewStudentRepository(gormDB)
	courseRepo := repository.NewCourseRepository(gormDB)
	enrollmentRepo := repository.NewEnrollmentRepository(gormDB)
	attendanceRepo := repository.NewAttendanceRepository(gormDB)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokens, hasher, notifier)
	userService := service.NewUserService(userRepo)
	studentService := service.NewStudentService(studentRepo, cacheClient)
	courseService := service.NewCourseService(courseRepo)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo)
	attendanceService := service.NewAttendanceService(attendanceRepo, studentRepo, courseRepo, cacheClient)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, logger, cacheClient, auth.NewGuard(tokens, userRepo), router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Users:      handler.NewUserHandler(userService),
		Students:   handler.NewStudentHandler(studentService),
		Courses:    handler.NewCourseHandler(courseService),
		Enrollment: handler.NewEnrollmentHandler(enrollmentService),
		Attendance: handler.NewAttendanceHandler(attendanceService),
	})

	swaggerURL := "http://localhost:" + cfg.ServerPort + "/swagger/index.html"
	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
		docs.SwaggerInfo.Host = host
		if strings.HasPrefix(cfg.SwaggerHost, "https://") {
			docs.SwaggerInfo.Schemes = []string{"https"}
			swaggerURL = "https://" + host + "/swagger/index.html"
		} else {
			swaggerURL = "http://" + host + "/swagger/index.html"
		}
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.ServerPort
	}
	logger.Info("swagger documentation available", "url", swaggerURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info("server starting", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server start", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	authService.Wait()
	logger.Info("server stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
