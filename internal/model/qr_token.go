package model

import "time"

// QRToken is one issuance cycle of the rotating check-in credential for a
// class session. Possession of {ID, Secret} is what a scanned QR code
// grants; whether the pair is usable depends on Active and ExpiresAt.
// At most one token per class session is active at any time.
type QRToken struct {
	ID             int64     `json:"id"`
	ClassSessionID int64     `json:"class_session_id"`
	Secret         string    `json:"secret"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	Active         bool      `json:"active"`
}
