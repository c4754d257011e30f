package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dhearn/rollcall/internal/model"
)

type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

func scanAttendance(scanner interface{ Scan(...any) error }) (*model.AttendanceRecord, error) {
	var a model.AttendanceRecord
	err := scanner.Scan(&a.ID, &a.StudentID, &a.ClassSessionID, &a.Timestamp, &a.Status)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const attendanceCols = `id, student_id, class_session_id, timestamp, status`

// Create inserts one attendance record. The UNIQUE(student_id,
// class_session_id) index is the serialization point for concurrent
// duplicate submissions: the loser of a race gets ErrDuplicate, never a
// second row.
func (s *AttendanceStore) Create(studentID, classSessionID int64, ts time.Time) (*model.AttendanceRecord, error) {
	result, err := s.db.Exec(
		`INSERT INTO attendance_records (student_id, class_session_id, timestamp, status) VALUES (?, ?, ?, ?)`,
		studentID, classSessionID, ts, model.StatusPresent,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+attendanceCols+` FROM attendance_records WHERE id = ?`, id)
	return scanAttendance(row)
}

// Get returns the record for a (student, class session) pair, or nil.
func (s *AttendanceStore) Get(studentID, classSessionID int64) (*model.AttendanceRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+attendanceCols+` FROM attendance_records WHERE student_id = ? AND class_session_id = ?`,
		studentID, classSessionID,
	)
	a, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return a, nil
}

func (s *AttendanceStore) ListBySession(classSessionID int64) ([]model.AttendanceRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+attendanceCols+` FROM attendance_records WHERE class_session_id = ? ORDER BY timestamp`,
		classSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendance by session: %w", err)
	}
	defer rows.Close()
	return collectAttendance(rows)
}

func (s *AttendanceStore) ListAll() ([]model.AttendanceRecord, error) {
	rows, err := s.db.Query(
		`SELECT ` + attendanceCols + ` FROM attendance_records ORDER BY timestamp DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()
	return collectAttendance(rows)
}

func collectAttendance(rows *sql.Rows) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, *a)
	}
	return records, rows.Err()
}

// ReportRow is one attendance record joined with its student and class
// session, as the CSV exports consume it.
type ReportRow struct {
	RollNumber    string
	StudentName   string
	StudentBatch  string
	StudentCourse string
	Timestamp     time.Time
	Status        string
	SessionID     int64
	SessionCourse string
	SessionBatch  string
	Room          string
	SessionDate   string
}

const reportQuery = `
	SELECT s.roll_number, s.name, s.batch, s.course,
	       a.timestamp, a.status,
	       c.id, c.course, c.batch, c.room, c.date
	FROM attendance_records a
	JOIN students s ON s.id = a.student_id
	JOIN class_sessions c ON c.id = a.class_session_id`

// SessionReport returns one session's records with student and session
// details in a single query, oldest first.
func (s *AttendanceStore) SessionReport(classSessionID int64) ([]ReportRow, error) {
	rows, err := s.db.Query(
		reportQuery+` WHERE a.class_session_id = ? ORDER BY a.timestamp`,
		classSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("session report: %w", err)
	}
	defer rows.Close()
	return collectReportRows(rows)
}

// FullReport returns every record with student and session details, newest
// first.
func (s *AttendanceStore) FullReport() ([]ReportRow, error) {
	rows, err := s.db.Query(reportQuery + ` ORDER BY a.timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("full report: %w", err)
	}
	defer rows.Close()
	return collectReportRows(rows)
}

func collectReportRows(rows *sql.Rows) ([]ReportRow, error) {
	var report []ReportRow
	for rows.Next() {
		var r ReportRow
		err := rows.Scan(
			&r.RollNumber, &r.StudentName, &r.StudentBatch, &r.StudentCourse,
			&r.Timestamp, &r.Status,
			&r.SessionID, &r.SessionCourse, &r.SessionBatch, &r.Room, &r.SessionDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		report = append(report, r)
	}
	return report, rows.Err()
}

func (s *AttendanceStore) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM attendance_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return n, nil
}
