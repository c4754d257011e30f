package handler

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dhearn/rollcall/internal/auth"
	"github.com/dhearn/rollcall/internal/model"
	"github.com/dhearn/rollcall/internal/store"
)

const sessionCookieName = "rollcall_session"

type AuthHandler struct {
	adminStore   *store.AdminStore
	teacherStore *store.TeacherStore
	sessionStore *store.SessionStore
	logger       *slog.Logger
}

func NewAuthHandler(as *store.AdminStore, ts *store.TeacherStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		adminStore:   as,
		teacherStore: ts,
		sessionStore: ss,
		logger:       logger,
	}
}

type loginRequest struct {
	Role     string `json:"role" validate:"required,oneof=admin teacher"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials for the requested role and sets the session
// cookie. The response is identical for unknown usernames and wrong
// passwords.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeValid(w, r, &req) {
		return
	}

	var userID int64
	var name string
	var hash string

	switch req.Role {
	case model.RoleAdmin:
		admin, h2, err := h.adminStore.CredentialsByUsername(req.Username)
		if err != nil {
			h.logger.Error("admin lookup", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if admin != nil {
			userID, name, hash = admin.ID, admin.Username, h2
		}
	case model.RoleTeacher:
		teacher, h2, err := h.teacherStore.CredentialsByUsername(req.Username)
		if err != nil {
			h.logger.Error("teacher lookup", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if teacher != nil {
			userID, name, hash = teacher.ID, teacher.Name, h2
		}
	}

	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := h.sessionStore.Create(req.Role, userID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"role":    req.Role,
		"user_id": userID,
		"name":    name,
	})
}

// Logout deletes the caller's session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
