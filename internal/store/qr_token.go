package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dhearn/rollcall/internal/model"
)

type QRTokenStore struct {
	db *sql.DB
}

func NewQRTokenStore(db *sql.DB) *QRTokenStore {
	return &QRTokenStore{db: db}
}

func scanQRToken(scanner interface{ Scan(...any) error }) (*model.QRToken, error) {
	var t model.QRToken
	err := scanner.Scan(
		&t.ID, &t.ClassSessionID, &t.Secret, &t.CreatedAt, &t.ExpiresAt, &t.Active,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const qrTokenCols = `id, class_session_id, secret, created_at, expires_at, active`

// generateSecret returns 16 crypto-random bytes (128 bits) URL-safe encoded,
// so the pair can ride in a QR-embedded query string unescaped.
func generateSecret() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue deactivates every active token for the class session and inserts a
// fresh one, in a single transaction. Immediately after Issue returns, the
// new token is the only active one for that session; a stale QR still on a
// projector stops validating even before its expiry passes.
func (s *QRTokenStore) Issue(classSessionID int64, now time.Time, validity time.Duration) (*model.QRToken, error) {
	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin issue: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE qr_tokens SET active = 0 WHERE class_session_id = ? AND active = 1`,
		classSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("deactivate previous tokens: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO qr_tokens (class_session_id, secret, created_at, expires_at, active) VALUES (?, ?, ?, ?, 1)`,
		classSessionID, secret, now, now.Add(validity),
	)
	if err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit issue: %w", err)
	}

	return s.GetByID(id)
}

// GetByID returns the token regardless of its active flag or expiry; the
// validator applies those checks itself so it can report which one failed.
func (s *QRTokenStore) GetByID(id int64) (*model.QRToken, error) {
	row := s.db.QueryRow(`SELECT `+qrTokenCols+` FROM qr_tokens WHERE id = ?`, id)
	t, err := scanQRToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

// ListActiveBySession returns the active tokens for a class session, newest
// first. The issuance invariant keeps this at one row at most.
func (s *QRTokenStore) ListActiveBySession(classSessionID int64) ([]model.QRToken, error) {
	rows, err := s.db.Query(
		`SELECT `+qrTokenCols+` FROM qr_tokens WHERE class_session_id = ? AND active = 1 ORDER BY created_at DESC`,
		classSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.QRToken
	for rows.Next() {
		t, err := scanQRToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

func (s *QRTokenStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM qr_tokens WHERE expires_at <= datetime('now') AND active = 0`)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
