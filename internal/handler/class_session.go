package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dhearn/rollcall/internal/auth"
	"github.com/dhearn/rollcall/internal/model"
	"github.com/dhearn/rollcall/internal/store"
)

type ClassSessionHandler struct {
	sessions   *store.ClassSessionStore
	teachers   *store.TeacherStore
	attendance *store.AttendanceStore
	logger     *slog.Logger
}

func NewClassSessionHandler(cs *store.ClassSessionStore, ts *store.TeacherStore, as *store.AttendanceStore, logger *slog.Logger) *ClassSessionHandler {
	return &ClassSessionHandler{sessions: cs, teachers: ts, attendance: as, logger: logger}
}

type classSessionRequest struct {
	Course    string `json:"course" validate:"required"`
	Batch     string `json:"batch" validate:"required"`
	Room      string `json:"room" validate:"required"`
	TeacherID int64  `json:"teacher_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

func (h *ClassSessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req classSessionRequest
	if !decodeValid(w, r, &req) {
		return
	}

	teacher, err := h.teachers.GetByID(req.TeacherID)
	if err != nil {
		h.logger.Error("get teacher", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check teacher")
		return
	}
	if teacher == nil {
		writeError(w, http.StatusBadRequest, "teacher not found")
		return
	}

	sess, err := h.sessions.Create(req.Course, req.Batch, req.Room, req.TeacherID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		h.logger.Error("create class session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create class session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *ClassSessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.List()
	if err != nil {
		h.logger.Error("list class sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list class sessions")
		return
	}
	if sessions == nil {
		sessions = []model.ClassSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// ListMineToday returns the calling teacher's sessions for today, backing
// the teacher dashboard.
func (h *ClassSessionHandler) ListMineToday(w http.ResponseWriter, r *http.Request) {
	teacherID := auth.UserID(r.Context())
	today := time.Now().UTC().Format("2006-01-02")

	sessions, err := h.sessions.ListByTeacherAndDate(teacherID, today)
	if err != nil {
		h.logger.Error("list teacher sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []model.ClassSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Attendance returns the attendance records for one class session. A
// teacher can only see their own sessions; admins can see all.
func (h *ClassSessionHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	sess, err := h.sessions.GetByID(id)
	if err != nil {
		h.logger.Error("get class session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get class session")
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "class session not found")
		return
	}
	if auth.IsTeacher(r.Context()) && sess.TeacherID != auth.UserID(r.Context()) {
		writeError(w, http.StatusForbidden, "not your session")
		return
	}

	records, err := h.attendance.ListBySession(id)
	if err != nil {
		h.logger.Error("list attendance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
