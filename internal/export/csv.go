// Package export writes attendance data as CSV for the admin screens.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dhearn/rollcall/internal/store"
)

type Exporter struct {
	sessions *store.ClassSessionStore
	records  *store.AttendanceStore
}

func NewExporter(sessions *store.ClassSessionStore, records *store.AttendanceStore) *Exporter {
	return &Exporter{sessions: sessions, records: records}
}

// WriteSession writes one class session's attendance.
func (e *Exporter) WriteSession(w io.Writer, classSessionID int64) error {
	cs, err := e.sessions.GetByID(classSessionID)
	if err != nil {
		return err
	}
	if cs == nil {
		return fmt.Errorf("export: class session %d not found", classSessionID)
	}

	report, err := e.records.SessionReport(classSessionID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"Roll Number", "Student Name", "Batch", "Course",
		"Timestamp", "Status", "Session Course", "Session Batch",
		"Room", "Date",
	}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range report {
		if err := cw.Write([]string{
			r.RollNumber,
			r.StudentName,
			r.StudentBatch,
			r.StudentCourse,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Status,
			r.SessionCourse,
			r.SessionBatch,
			r.Room,
			r.SessionDate,
		}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAll writes every attendance record, newest first.
func (e *Exporter) WriteAll(w io.Writer) error {
	report, err := e.records.FullReport()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"SessionID", "Session Course", "Session Batch", "Room", "Session Date",
		"Roll Number", "Student Name", "Timestamp", "Status",
	}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range report {
		if err := cw.Write([]string{
			fmt.Sprintf("%d", r.SessionID),
			r.SessionCourse,
			r.SessionBatch,
			r.Room,
			r.SessionDate,
			r.RollNumber,
			r.StudentName,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Status,
		}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
