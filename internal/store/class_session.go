package store

import (
	"database/sql"
	"fmt"

	"github.com/dhearn/rollcall/internal/model"
)

type ClassSessionStore struct {
	db *sql.DB
}

func NewClassSessionStore(db *sql.DB) *ClassSessionStore {
	return &ClassSessionStore{db: db}
}

func scanClassSession(scanner interface{ Scan(...any) error }) (*model.ClassSession, error) {
	var cs model.ClassSession
	err := scanner.Scan(
		&cs.ID, &cs.Course, &cs.Batch, &cs.Room, &cs.TeacherID,
		&cs.Date, &cs.StartTime, &cs.EndTime, &cs.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

const classSessionCols = `id, course, batch, room, teacher_id, date, start_time, end_time, created_at`

func (s *ClassSessionStore) Create(course, batch, room string, teacherID int64, date, startTime, endTime string) (*model.ClassSession, error) {
	result, err := s.db.Exec(
		`INSERT INTO class_sessions (course, batch, room, teacher_id, date, start_time, end_time) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		course, batch, room, teacherID, date, startTime, endTime,
	)
	if err != nil {
		return nil, fmt.Errorf("insert class session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ClassSessionStore) GetByID(id int64) (*model.ClassSession, error) {
	row := s.db.QueryRow(`SELECT `+classSessionCols+` FROM class_sessions WHERE id = ?`, id)
	cs, err := scanClassSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get class session: %w", err)
	}
	return cs, nil
}

func (s *ClassSessionStore) List() ([]model.ClassSession, error) {
	rows, err := s.db.Query(`SELECT ` + classSessionCols + ` FROM class_sessions ORDER BY date DESC, start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("list class sessions: %w", err)
	}
	defer rows.Close()
	return collectClassSessions(rows)
}

// ListByTeacherAndDate returns a teacher's sessions on a given "YYYY-MM-DD"
// date, in start-time order. Backs the teacher's today view.
func (s *ClassSessionStore) ListByTeacherAndDate(teacherID int64, date string) ([]model.ClassSession, error) {
	rows, err := s.db.Query(
		`SELECT `+classSessionCols+` FROM class_sessions WHERE teacher_id = ? AND date = ? ORDER BY start_time`,
		teacherID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list class sessions by teacher and date: %w", err)
	}
	defer rows.Close()
	return collectClassSessions(rows)
}

func collectClassSessions(rows *sql.Rows) ([]model.ClassSession, error) {
	var sessions []model.ClassSession
	for rows.Next() {
		cs, err := scanClassSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class session: %w", err)
		}
		sessions = append(sessions, *cs)
	}
	return sessions, rows.Err()
}

func (s *ClassSessionStore) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM class_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count class sessions: %w", err)
	}
	return n, nil
}
