package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dhearn/rollcall/internal/attendance"
	"github.com/dhearn/rollcall/internal/auth"
	"github.com/dhearn/rollcall/internal/database"
	"github.com/dhearn/rollcall/internal/model"
	"github.com/dhearn/rollcall/internal/store"
	"github.com/dhearn/rollcall/internal/websocket"
)

type scanFixture struct {
	h       *ScanHandler
	tokens  *store.QRTokenStore
	session *model.ClassSession
	owner   *model.Teacher
	other   *model.Teacher
}

func setupScanHandler(t *testing.T) *scanFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	teachers := store.NewTeacherStore(db)
	sessions := store.NewClassSessionStore(db)
	students := store.NewStudentStore(db)
	tokens := store.NewQRTokenStore(db)
	records := store.NewAttendanceStore(db)

	owner, err := teachers.Create("Ms. Rao", "mrao", "not-a-real-hash")
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	other, err := teachers.Create("Mr. Iyer", "miyer", "not-a-real-hash")
	if err != nil {
		t.Fatalf("create other teacher: %v", err)
	}
	sess, err := sessions.Create("CS101", "2025A", "B-204", owner.ID, "2026-08-26", "09:00", "10:00")
	if err != nil {
		t.Fatalf("create class session: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	svc := attendance.NewService(tokens, sessions, students, records, 30*time.Second)
	hub := websocket.NewHub(logger)
	return &scanFixture{
		h:       NewScanHandler(svc, sessions, hub, "http://localhost:8080", logger),
		tokens:  tokens,
		session: sess,
		owner:   owner,
		other:   other,
	}
}

func authedRequest(method, target string, sessionID int64, role string, userID int64) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	r.SetPathValue("id", strconv.FormatInt(sessionID, 10))
	ctx := auth.WithAuth(r.Context(), auth.AuthContext{UserID: userID, Role: role})
	return r.WithContext(ctx)
}

func TestQRImageOwnTeacher(t *testing.T) {
	f := setupScanHandler(t)

	w := httptest.NewRecorder()
	f.h.QRImage(w, authedRequest(http.MethodGet, "/api/sessions/1/qr", f.session.ID, model.RoleTeacher, f.owner.ID))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("content-type = %q, want image/png", got)
	}
}

func TestQRImageOtherTeacherForbidden(t *testing.T) {
	f := setupScanHandler(t)

	w := httptest.NewRecorder()
	f.h.QRImage(w, authedRequest(http.MethodGet, "/api/sessions/1/qr", f.session.ID, model.RoleTeacher, f.other.ID))

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// The rejected request must not have minted a token either.
	active, err := f.tokens.ListActiveBySession(f.session.ID)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active tokens = %d, want 0", len(active))
	}
}

func TestIssueOtherTeacherForbidden(t *testing.T) {
	f := setupScanHandler(t)

	w := httptest.NewRecorder()
	f.h.Issue(w, authedRequest(http.MethodPost, "/api/sessions/1/token", f.session.ID, model.RoleTeacher, f.other.ID))

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestQRImageAdminAllowed(t *testing.T) {
	f := setupScanHandler(t)

	w := httptest.NewRecorder()
	f.h.QRImage(w, authedRequest(http.MethodGet, "/api/sessions/1/qr", f.session.ID, model.RoleAdmin, 1))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
