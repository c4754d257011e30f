package model

import "time"

// StatusPresent is the only status the check-in path writes. The column
// exists so exports can carry other statuses entered by other means.
const StatusPresent = "Present"

// AttendanceRecord ties a student to a class session. The store enforces at
// most one record per (student, class session) pair.
type AttendanceRecord struct {
	ID             int64     `json:"id"`
	StudentID      int64     `json:"student_id"`
	ClassSessionID int64     `json:"class_session_id"`
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status"`
}
