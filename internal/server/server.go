package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dhearn/rollcall/internal/attendance"
	"github.com/dhearn/rollcall/internal/export"
	"github.com/dhearn/rollcall/internal/handler"
	"github.com/dhearn/rollcall/internal/middleware"
	"github.com/dhearn/rollcall/internal/store"
	ws "github.com/dhearn/rollcall/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	studentH     *handler.StudentHandler
	teacherH     *handler.TeacherHandler
	sessionH     *handler.ClassSessionHandler
	scanH        *handler.ScanHandler
	exportH      *handler.ExportHandler
	dashboardH   *handler.DashboardHandler
	sessionStore *store.SessionStore
	tokenStore   *store.QRTokenStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

type Config struct {
	BaseURL       string
	TokenValidity time.Duration
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	studentStore := store.NewStudentStore(db)
	teacherStore := store.NewTeacherStore(db)
	adminStore := store.NewAdminStore(db)
	classSessionStore := store.NewClassSessionStore(db)
	tokenStore := store.NewQRTokenStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	sessionStore := store.NewSessionStore(db)

	svc := attendance.NewService(tokenStore, classSessionStore, studentStore, attendanceStore, cfg.TokenValidity)
	exporter := export.NewExporter(classSessionStore, attendanceStore)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(adminStore, teacherStore, sessionStore, logger.With("component", "auth")),
		studentH:     handler.NewStudentHandler(studentStore, logger.With("component", "student")),
		teacherH:     handler.NewTeacherHandler(teacherStore, logger.With("component", "teacher")),
		sessionH:     handler.NewClassSessionHandler(classSessionStore, teacherStore, attendanceStore, logger.With("component", "class_session")),
		scanH:        handler.NewScanHandler(svc, classSessionStore, hub, cfg.BaseURL, logger.With("component", "scan")),
		exportH:      handler.NewExportHandler(exporter, classSessionStore, logger.With("component", "export")),
		dashboardH:   handler.NewDashboardHandler(studentStore, teacherStore, classSessionStore, attendanceStore, logger.With("component", "dashboard")),
		sessionStore: sessionStore,
		tokenStore:   tokenStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the auth session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// QRTokenStore returns the token store for cleanup tasks.
func (s *Server) QRTokenStore() *store.QRTokenStore {
	return s.tokenStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes. The scan endpoints carry their own credential, the
	// token pair, so they stay outside the session gate.
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /api/scan", s.rateLimitedHandler(s.scanH.Validate))
	outerMux.HandleFunc("POST /api/scan", s.rateLimitedHandler(s.scanH.CheckIn))
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 30, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Admin management routes
	mux.Handle("POST /api/students", middleware.RequireAdmin(http.HandlerFunc(s.studentH.Create)))
	mux.Handle("GET /api/students", middleware.RequireAdmin(http.HandlerFunc(s.studentH.List)))
	mux.Handle("PUT /api/students/{id}", middleware.RequireAdmin(http.HandlerFunc(s.studentH.Update)))
	mux.Handle("DELETE /api/students/{id}", middleware.RequireAdmin(http.HandlerFunc(s.studentH.Delete)))

	mux.Handle("POST /api/teachers", middleware.RequireAdmin(http.HandlerFunc(s.teacherH.Create)))
	mux.Handle("GET /api/teachers", middleware.RequireAdmin(http.HandlerFunc(s.teacherH.List)))

	mux.Handle("POST /api/sessions", middleware.RequireAdmin(http.HandlerFunc(s.sessionH.Create)))
	mux.Handle("GET /api/sessions", middleware.RequireAdmin(http.HandlerFunc(s.sessionH.List)))

	mux.Handle("GET /api/dashboard", middleware.RequireAdmin(http.HandlerFunc(s.dashboardH.Stats)))
	mux.Handle("GET /api/export/sessions/{id}", middleware.RequireAdmin(http.HandlerFunc(s.exportH.Session)))
	mux.Handle("GET /api/export/all", middleware.RequireAdmin(http.HandlerFunc(s.exportH.All)))

	// Teacher routes
	mux.Handle("GET /api/sessions/mine/today", middleware.RequireTeacher(http.HandlerFunc(s.sessionH.ListMineToday)))

	// Shared routes. Admins see everything; a teacher's access to someone
	// else's session is rejected in the handler.
	mux.HandleFunc("POST /api/sessions/{id}/token", s.scanH.Issue)
	mux.HandleFunc("GET /api/sessions/{id}/qr", s.scanH.QRImage)
	mux.HandleFunc("GET /api/sessions/{id}/attendance", s.sessionH.Attendance)
}
