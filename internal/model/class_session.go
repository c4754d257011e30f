package model

import "time"

// ClassSession is one scheduled occurrence of a course for a batch, owned by
// a teacher. Date is "YYYY-MM-DD"; start and end times are "HH:MM".
type ClassSession struct {
	ID        int64     `json:"id"`
	Course    string    `json:"course"`
	Batch     string    `json:"batch"`
	Room      string    `json:"room"`
	TeacherID int64     `json:"teacher_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}
