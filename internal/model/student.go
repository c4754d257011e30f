package model

import "time"

// Student is identified by a unique roll number. Batch and course act as
// the eligibility filter against a class session's cohort.
type Student struct {
	ID         int64     `json:"id"`
	RollNumber string    `json:"roll_number"`
	Name       string    `json:"name"`
	Batch      string    `json:"batch"`
	Course     string    `json:"course"`
	Year       string    `json:"year"`
	DeviceID   *string   `json:"device_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
