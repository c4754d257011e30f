package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dhearn/rollcall/internal/model"
	"github.com/dhearn/rollcall/internal/store"
)

type StudentHandler struct {
	students *store.StudentStore
	logger   *slog.Logger
}

func NewStudentHandler(ss *store.StudentStore, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{students: ss, logger: logger}
}

type studentRequest struct {
	RollNumber string  `json:"roll_number" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	Batch      string  `json:"batch" validate:"required"`
	Course     string  `json:"course" validate:"required"`
	Year       string  `json:"year" validate:"required"`
	DeviceID   *string `json:"device_id"`
}

func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !decodeValid(w, r, &req) {
		return
	}
	req.RollNumber = strings.TrimSpace(req.RollNumber)

	student, err := h.students.Create(req.RollNumber, req.Name, req.Batch, req.Course, req.Year, req.DeviceID)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "roll number already exists")
		return
	}
	if err != nil {
		h.logger.Error("create student", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create student")
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List()
	if err != nil {
		h.logger.Error("list students", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list students")
		return
	}
	if students == nil {
		students = []model.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.students.GetByID(id)
	if err != nil {
		h.logger.Error("get student", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "student not found")
		return
	}

	var req studentRequest
	if !decodeValid(w, r, &req) {
		return
	}
	req.RollNumber = strings.TrimSpace(req.RollNumber)

	student, err := h.students.Update(id, req.RollNumber, req.Name, req.Batch, req.Course, req.Year, req.DeviceID)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "another student has that roll number")
		return
	}
	if err != nil {
		h.logger.Error("update student", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.students.GetByID(id)
	if err != nil {
		h.logger.Error("get student", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "student not found")
		return
	}

	if err := h.students.Delete(id); err != nil {
		h.logger.Error("delete student", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete student")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
