package store

import (
	"database/sql"
	"fmt"

	"github.com/dhearn/rollcall/internal/model"
)

type StudentStore struct {
	db *sql.DB
}

func NewStudentStore(db *sql.DB) *StudentStore {
	return &StudentStore{db: db}
}

func scanStudent(scanner interface{ Scan(...any) error }) (*model.Student, error) {
	var st model.Student
	var deviceID sql.NullString
	err := scanner.Scan(
		&st.ID, &st.RollNumber, &st.Name, &st.Batch, &st.Course, &st.Year,
		&st.CreatedAt, &deviceID,
	)
	if err != nil {
		return nil, err
	}
	if deviceID.Valid {
		st.DeviceID = &deviceID.String
	}
	return &st, nil
}

const studentCols = `id, roll_number, name, batch, course, year, created_at, device_id`

// Create inserts a student. ErrDuplicate signals an already-taken roll number.
func (s *StudentStore) Create(rollNumber, name, batch, course, year string, deviceID *string) (*model.Student, error) {
	var dev sql.NullString
	if deviceID != nil {
		dev = sql.NullString{String: *deviceID, Valid: true}
	}
	result, err := s.db.Exec(
		`INSERT INTO students (roll_number, name, batch, course, year, device_id) VALUES (?, ?, ?, ?, ?, ?)`,
		rollNumber, name, batch, course, year, dev,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert student: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *StudentStore) GetByID(id int64) (*model.Student, error) {
	row := s.db.QueryRow(`SELECT `+studentCols+` FROM students WHERE id = ?`, id)
	st, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return st, nil
}

func (s *StudentStore) GetByRoll(rollNumber string) (*model.Student, error) {
	row := s.db.QueryRow(`SELECT `+studentCols+` FROM students WHERE roll_number = ?`, rollNumber)
	st, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student by roll: %w", err)
	}
	return st, nil
}

func (s *StudentStore) List() ([]model.Student, error) {
	rows, err := s.db.Query(`SELECT ` + studentCols + ` FROM students ORDER BY roll_number`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *st)
	}
	return students, rows.Err()
}

func (s *StudentStore) Update(id int64, rollNumber, name, batch, course, year string, deviceID *string) (*model.Student, error) {
	var dev sql.NullString
	if deviceID != nil {
		dev = sql.NullString{String: *deviceID, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE students SET roll_number = ?, name = ?, batch = ?, course = ?, year = ?, device_id = ? WHERE id = ?`,
		rollNumber, name, batch, course, year, dev, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update student: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a student and their attendance records.
func (s *StudentStore) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM attendance_records WHERE student_id = ?`, id); err != nil {
		return fmt.Errorf("delete student attendance: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM students WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return tx.Commit()
}

func (s *StudentStore) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM students`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return n, nil
}
