package handler

import (
	"log/slog"
	"net/http"

	"github.com/dhearn/rollcall/internal/store"
)

type DashboardHandler struct {
	students   *store.StudentStore
	teachers   *store.TeacherStore
	sessions   *store.ClassSessionStore
	attendance *store.AttendanceStore
	logger     *slog.Logger
}

func NewDashboardHandler(st *store.StudentStore, ts *store.TeacherStore, cs *store.ClassSessionStore, as *store.AttendanceStore, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{students: st, teachers: ts, sessions: cs, attendance: as, logger: logger}
}

// Stats returns the admin dashboard counters.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.Count()
	if err != nil {
		h.logger.Error("count students", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	teachers, err := h.teachers.Count()
	if err != nil {
		h.logger.Error("count teachers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	sessions, err := h.sessions.Count()
	if err != nil {
		h.logger.Error("count class sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	records, err := h.attendance.Count()
	if err != nil {
		h.logger.Error("count attendance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"students":           students,
		"teachers":           teachers,
		"class_sessions":     sessions,
		"attendance_records": records,
	})
}
