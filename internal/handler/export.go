package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dhearn/rollcall/internal/export"
	"github.com/dhearn/rollcall/internal/store"
)

type ExportHandler struct {
	exporter *export.Exporter
	sessions *store.ClassSessionStore
	logger   *slog.Logger
}

func NewExportHandler(exporter *export.Exporter, sessions *store.ClassSessionStore, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{exporter: exporter, sessions: sessions, logger: logger}
}

// Session streams one class session's attendance as a CSV attachment.
func (h *ExportHandler) Session(w http.ResponseWriter, r *http.Request) {
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

	filename := fmt.Sprintf("attendance_session_%d_%s.csv", sess.ID, sess.Date)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.exporter.WriteSession(w, id); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("export session csv", "error", err, "class_session_id", id)
	}
}

// All streams every attendance record across every session.
func (h *ExportHandler) All(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("attendance_all_%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.exporter.WriteAll(w); err != nil {
		h.logger.Error("export all csv", "error", err)
	}
}
