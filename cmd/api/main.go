package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/dayflow/internal/config"
	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	appHTTP "github.com/cmlabs-hris/dayflow/internal/handler/http"
	"github.com/cmlabs-hris/dayflow/internal/pkg/clock"
	"github.com/cmlabs-hris/dayflow/internal/pkg/cron"
	"github.com/cmlabs-hris/dayflow/internal/pkg/database"
	"github.com/cmlabs-hris/dayflow/internal/pkg/jwt"
	"github.com/cmlabs-hris/dayflow/internal/pkg/recordstore"
	"github.com/cmlabs-hris/dayflow/internal/pkg/storage"
	"github.com/cmlabs-hris/dayflow/internal/repository/store"
	attendanceService "github.com/cmlabs-hris/dayflow/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/dayflow/internal/service/auth"
	dashboardService "github.com/cmlabs-hris/dayflow/internal/service/dashboard"
	employeeService "github.com/cmlabs-hris/dayflow/internal/service/employee"
	"github.com/cmlabs-hris/dayflow/internal/service/file"
	leaveService "github.com/cmlabs-hris/dayflow/internal/service/leave"
	"golang.org/x/crypto/bcrypt"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Invalid time zone: ", err)
	}
	clk := clock.New(loc)

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open record store: ", err)
	}
	recordStore := recordstore.New(backend, recordstore.WithLockTimeout(cfg.Store.LockTimeout))
	defer recordStore.Close()
	recordStore.Bootstrap(ctx, store.Collections()...)

	employeeRepo := store.NewEmployeeRepository(recordStore)
	attendanceRepo := store.NewAttendanceRepository(recordStore)
	leaveRequestRepo := store.NewLeaveRequestRepository(recordStore)

	fileStorage, err := storage.NewLocalStorage(cfg.Upload.BasePath, cfg.Upload.BaseURL)
	if err != nil {
		log.Fatal("Failed to initialize local storage: ", err)
	}
	fileService := file.NewFileService(fileStorage)

	hasher := serviceAuth.NewBcryptHasher(bcrypt.DefaultCost)
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	authService := serviceAuth.NewAuthService(employeeRepo, attendanceRepo, hasher, JWTService, clk)
	employeeService := employeeService.NewEmployeeService(employeeRepo, attendanceRepo, hasher, fileService, clk)
	attendanceService := attendanceService.NewAttendanceService(attendanceRepo, employeeRepo, clk)
	leaveService := leaveService.NewLeaveService(leaveRequestRepo, employeeRepo, clk)
	dashboardSvc := dashboardService.NewDashboardService(employeeRepo, attendanceRepo, leaveRequestRepo, clk)

	if _, err := authService.SeedAdmin(ctx, auth.SeedAdminRequest{
		EmployeeID: cfg.Seed.AdminID,
		Email:      cfg.Seed.AdminEmail,
		Password:   cfg.Seed.AdminPassword,
		Name:       cfg.Seed.AdminName,
	}); err != nil {
		slog.Error("Failed to seed admin account", "error", err)
	}

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceService, cfg.App.ReconcileInterval).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Env:            cfg.App.Env,
		Version:        version,
		AllowedOrigins: strings.Split(cfg.App.FrontendURL, ","),
		UploadDir:      cfg.Upload.BasePath,
		UploadURL:      cfg.Upload.BaseURL,
	}, JWTService, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(authService),
		Dashboard:  appHTTP.NewDashboardHandler(dashboardSvc),
		Profile:    appHTTP.NewProfileHandler(employeeService),
		Attendance: appHTTP.NewAttendanceHandler(attendanceService),
		Leave:      appHTTP.NewLeaveHandler(leaveService),
		Employee:   appHTTP.NewEmployeeHandler(employeeService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "store", cfg.Store.Backend, "time_zone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (recordstore.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return recordstore.NewFileBackend(cfg.Store.DataDir)
	case config.BackendSQLite:
		return recordstore.OpenSQLite(cfg.Store.SQLitePath)
	case config.BackendPostgres:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		backend, err := recordstore.NewPostgresBackend(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
