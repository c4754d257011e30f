package store

import (
	"database/sql"
	"fmt"

	"github.com/dhearn/rollcall/internal/model"
)

type TeacherStore struct {
	db *sql.DB
}

func NewTeacherStore(db *sql.DB) *TeacherStore {
	return &TeacherStore{db: db}
}

func scanTeacher(scanner interface{ Scan(...any) error }) (*model.Teacher, error) {
	var t model.Teacher
	err := scanner.Scan(&t.ID, &t.Name, &t.Username, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const teacherCols = `id, name, username, created_at`

// Create inserts a teacher. ErrDuplicate signals an already-taken username.
// The password hash never leaves the store except through CredentialsByUsername.
func (s *TeacherStore) Create(name, username, passwordHash string) (*model.Teacher, error) {
	result, err := s.db.Exec(
		`INSERT INTO teachers (name, username, password_hash) VALUES (?, ?, ?)`,
		name, username, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert teacher: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TeacherStore) GetByID(id int64) (*model.Teacher, error) {
	row := s.db.QueryRow(`SELECT `+teacherCols+` FROM teachers WHERE id = ?`, id)
	t, err := scanTeacher(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return t, nil
}

// CredentialsByUsername returns the teacher and their bcrypt hash for login,
// or (nil, "") when the username is unknown.
func (s *TeacherStore) CredentialsByUsername(username string) (*model.Teacher, string, error) {
	var t model.Teacher
	var hash string
	err := s.db.QueryRow(
		`SELECT id, name, username, created_at, password_hash FROM teachers WHERE username = ?`,
		username,
	).Scan(&t.ID, &t.Name, &t.Username, &t.CreatedAt, &hash)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get teacher credentials: %w", err)
	}
	return &t, hash, nil
}

func (s *TeacherStore) List() ([]model.Teacher, error) {
	rows, err := s.db.Query(`SELECT ` + teacherCols + ` FROM teachers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []model.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, *t)
	}
	return teachers, rows.Err()
}

func (s *TeacherStore) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM teachers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return n, nil
}
