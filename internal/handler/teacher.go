package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/dhearn/rollcall/internal/model"
	"github.com/dhearn/rollcall/internal/store"
)

type TeacherHandler struct {
	teachers *store.TeacherStore
	logger   *slog.Logger
}

func NewTeacherHandler(ts *store.TeacherStore, logger *slog.Logger) *TeacherHandler {
	return &TeacherHandler{teachers: ts, logger: logger}
}

type teacherRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *TeacherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req teacherRequest
	if !decodeValid(w, r, &req) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create teacher")
		return
	}

	teacher, err := h.teachers.Create(req.Name, req.Username, string(hash))
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "username already exists")
		return
	}
	if err != nil {
		h.logger.Error("create teacher", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create teacher")
		return
	}
	writeJSON(w, http.StatusCreated, teacher)
}

func (h *TeacherHandler) List(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.teachers.List()
	if err != nil {
		h.logger.Error("list teachers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list teachers")
		return
	}
	if teachers == nil {
		teachers = []model.Teacher{}
	}
	writeJSON(w, http.StatusOK, teachers)
}
