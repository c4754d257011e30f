package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dhearn/rollcall/internal/attendance"
	"github.com/dhearn/rollcall/internal/auth"
	"github.com/dhearn/rollcall/internal/qr"
	"github.com/dhearn/rollcall/internal/store"
	"github.com/dhearn/rollcall/internal/websocket"
)

// ScanHandler owns the token lifecycle endpoints: teachers mint and render
// tokens, students redeem them. The redeem endpoints are unauthenticated;
// the token pair itself is the credential.
type ScanHandler struct {
	service  *attendance.Service
	sessions *store.ClassSessionStore
	hub      *websocket.Hub
	baseURL  string
	logger   *slog.Logger
}

func NewScanHandler(svc *attendance.Service, cs *store.ClassSessionStore, hub *websocket.Hub, baseURL string, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{service: svc, sessions: cs, hub: hub, baseURL: baseURL, logger: logger}
}

// Issue mints a fresh token for a class session, superseding the previous
// one. Teachers may only issue for their own sessions.
func (h *ScanHandler) Issue(w http.ResponseWriter, r *http.Request) {
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

	token, err := h.service.Issue(id)
	if err != nil {
		h.logger.Error("issue token", "error", err, "class_session_id", id)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.hub.Broadcast(websocket.Event{
		Type:           websocket.EventTokenIssued,
		ClassSessionID: id,
		Timestamp:      token.CreatedAt,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"token_id":   token.ID,
		"secret":     token.Secret,
		"expires_at": token.ExpiresAt,
		"scan_url":   qr.ScanURL(h.baseURL, token.ID, token.Secret),
	})
}

// QRImage renders the session's current active token as a PNG. Issues a
// fresh token when none is active, so loading the page is enough to start
// the rotation.
func (h *ScanHandler) QRImage(w http.ResponseWriter, r *http.Request) {
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

	token, err := h.service.Current(id)
	if err != nil {
		if errors.Is(err, attendance.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "class session not found")
			return
		}
		h.logger.Error("current token", "error", err, "class_session_id", id)
		writeError(w, http.StatusInternalServerError, "failed to get token")
		return
	}

	png, err := qr.EncodePNG(h.baseURL, token.ID, token.Secret)
	if err != nil {
		h.logger.Error("encode qr", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Validate is the read-only half of a scan: the student's browser loads the
// scanned URL and learns which session it is checking into. Scanning never
// consumes the token.
func (h *ScanHandler) Validate(w http.ResponseWriter, r *http.Request) {
	tokenID, secret, ok := scanParams(w, r)
	if !ok {
		return
	}

	sess, err := h.service.Validate(tokenID, secret)
	if err != nil {
		h.scanError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"class_session_id": sess.ID,
		"course":           sess.Course,
		"batch":            sess.Batch,
		"room":             sess.Room,
		"date":             sess.Date,
		"start_time":       sess.StartTime,
		"end_time":         sess.EndTime,
	})
}

type checkInRequest struct {
	TokenID    int64  `json:"token_id" validate:"required"`
	Secret     string `json:"secret" validate:"required"`
	RollNumber string `json:"roll_number" validate:"required"`
}

// CheckIn redeems the token for an attendance record. A repeat submission
// returns 200 with already_marked set rather than an error.
func (h *ScanHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if !decodeValid(w, r, &req) {
		return
	}

	result, err := h.service.CheckIn(req.TokenID, req.Secret, req.RollNumber)
	if err != nil {
		h.scanError(w, err)
		return
	}

	if !result.AlreadyMarked {
		h.hub.Broadcast(websocket.Event{
			Type:           websocket.EventAttendanceRecorded,
			ClassSessionID: result.Record.ClassSessionID,
			RollNumber:     result.Student.RollNumber,
			StudentName:    result.Student.Name,
			Timestamp:      result.Record.Timestamp,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"record":         result.Record,
		"already_marked": result.AlreadyMarked,
	})
}

// scanParams pulls the {tid, secret} pair out of the query string the QR
// code encodes.
func scanParams(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	q := r.URL.Query()
	tokenID, err := strconv.ParseInt(q.Get("tid"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return 0, "", false
	}
	secret := q.Get("secret")
	if secret == "" {
		writeError(w, http.StatusBadRequest, "missing secret")
		return 0, "", false
	}
	return tokenID, secret, true
}

// scanError maps the check-in engine's sentinels onto HTTP statuses. A
// dead token (superseded or expired) is 410 so clients can distinguish
// "re-scan the fresh code" from a bad request.
func (h *ScanHandler) scanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrTokenNotFound):
		writeError(w, http.StatusNotFound, "token not found")
	case errors.Is(err, attendance.ErrSecretMismatch):
		writeError(w, http.StatusForbidden, "secret mismatch")
	case errors.Is(err, attendance.ErrTokenInactive):
		writeError(w, http.StatusGone, "token superseded")
	case errors.Is(err, attendance.ErrTokenExpired):
		writeError(w, http.StatusGone, "token expired")
	case errors.Is(err, attendance.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "class session not found")
	case errors.Is(err, attendance.ErrUnknownStudent):
		writeError(w, http.StatusNotFound, "unknown roll number")
	case errors.Is(err, attendance.ErrNotEligible):
		writeError(w, http.StatusForbidden, "student not enrolled in this session")
	default:
		h.logger.Error("scan", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
