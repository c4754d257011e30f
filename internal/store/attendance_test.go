package store

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dhearn/rollcall/internal/database"
)

// File-backed rather than :memory: so concurrent tests can exercise the
// UNIQUE index across multiple pooled connections.
func setupAttendanceTestDB(t *testing.T) (*AttendanceStore, int64, int64) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "rollcall_test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	teachers := NewTeacherStore(db)
	sessions := NewClassSessionStore(db)
	students := NewStudentStore(db)

	teacher, err := teachers.Create("Ms. Rao", "mrao", "not-a-real-hash")
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	sess, err := sessions.Create("CS101", "2025A", "B-204", teacher.ID, "2026-08-26", "09:00", "10:00")
	if err != nil {
		t.Fatalf("create class session: %v", err)
	}
	student, err := students.Create("21CS042", "Asha Verma", "2025A", "CS101", "3", nil)
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	return NewAttendanceStore(db), student.ID, sess.ID
}

func TestAttendanceCreate(t *testing.T) {
	as, studentID, sessionID := setupAttendanceTestDB(t)

	ts := time.Now().UTC()
	record, err := as.Create(studentID, sessionID, ts)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if record.Status != "Present" {
		t.Errorf("status = %q, want %q", record.Status, "Present")
	}
	if record.StudentID != studentID {
		t.Errorf("student_id = %d, want %d", record.StudentID, studentID)
	}
}

func TestAttendanceDuplicateRejected(t *testing.T) {
	as, studentID, sessionID := setupAttendanceTestDB(t)

	if _, err := as.Create(studentID, sessionID, time.Now().UTC()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := as.Create(studentID, sessionID, time.Now().UTC())
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second create err = %v, want ErrDuplicate", err)
	}

	n, err := as.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
}

func TestAttendanceConcurrentCreateSinglePair(t *testing.T) {
	as, studentID, sessionID := setupAttendanceTestDB(t)

	const workers = 50
	var wg sync.WaitGroup
	created := make(chan struct{}, workers)
	duplicate := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := as.Create(studentID, sessionID, time.Now().UTC())
			switch {
			case err == nil:
				created <- struct{}{}
			case errors.Is(err, ErrDuplicate):
				duplicate <- struct{}{}
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	close(created)
	close(duplicate)

	if len(created) != 1 {
		t.Errorf("created = %d, want exactly 1", len(created))
	}
	if len(duplicate) != workers-1 {
		t.Errorf("duplicates = %d, want %d", len(duplicate), workers-1)
	}

	n, err := as.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
}

func TestAttendanceGet(t *testing.T) {
	as, studentID, sessionID := setupAttendanceTestDB(t)

	got, err := as.Get(studentID, sessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil before any check-in")
	}

	created, err := as.Create(studentID, sessionID, time.Now().UTC())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err = as.Get(studentID, sessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Errorf("got %+v, want record %d", got, created.ID)
	}
}

func TestAttendanceListBySession(t *testing.T) {
	as, studentID, sessionID := setupAttendanceTestDB(t)

	if _, err := as.Create(studentID, sessionID, time.Now().UTC()); err != nil {
		t.Fatalf("create: %v", err)
	}

	records, err := as.ListBySession(sessionID)
	if err != nil {
		t.Fatalf("list by session: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	records, err = as.ListBySession(sessionID + 1)
	if err != nil {
		t.Fatalf("list by other session: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records for other session = %d, want 0", len(records))
	}
}

func TestAttendanceSessionReport(t *testing.T) {
	as, studentID, sessionID := setupAttendanceTestDB(t)

	ts := time.Date(2026, 8, 26, 9, 5, 0, 0, time.UTC)
	if _, err := as.Create(studentID, sessionID, ts); err != nil {
		t.Fatalf("create: %v", err)
	}

	report, err := as.SessionReport(sessionID)
	if err != nil {
		t.Fatalf("session report: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("rows = %d, want 1", len(report))
	}
	row := report[0]
	if row.RollNumber != "21CS042" || row.StudentName != "Asha Verma" {
		t.Errorf("student = %q/%q, want 21CS042/Asha Verma", row.RollNumber, row.StudentName)
	}
	if row.SessionCourse != "CS101" || row.Room != "B-204" || row.SessionDate != "2026-08-26" {
		t.Errorf("session fields = %q/%q/%q", row.SessionCourse, row.Room, row.SessionDate)
	}
	if !row.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", row.Timestamp, ts)
	}

	empty, err := as.SessionReport(9999)
	if err != nil {
		t.Fatalf("empty report: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown session rows = %d, want 0", len(empty))
	}
}

func TestAttendanceFullReportOrder(t *testing.T) {
	as, studentID, sessionID := setupAttendanceTestDB(t)

	first := time.Date(2026, 8, 26, 9, 5, 0, 0, time.UTC)
	if _, err := as.Create(studentID, sessionID, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	db := as.db
	students := NewStudentStore(db)
	later, err := students.Create("21CS007", "Ravi Nair", "2025A", "CS101", "3", nil)
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	if _, err := as.Create(later.ID, sessionID, first.Add(time.Minute)); err != nil {
		t.Fatalf("create second record: %v", err)
	}

	report, err := as.FullReport()
	if err != nil {
		t.Fatalf("full report: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("rows = %d, want 2", len(report))
	}
	// Newest first
	if report[0].RollNumber != "21CS007" || report[1].RollNumber != "21CS042" {
		t.Errorf("order = %q, %q", report[0].RollNumber, report[1].RollNumber)
	}
}
