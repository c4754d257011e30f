package store

import (
	"database/sql"
	"fmt"

	"github.com/dhearn/rollcall/internal/model"
)

type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) Create(username, passwordHash string) (*model.Admin, error) {
	result, err := s.db.Exec(
		`INSERT INTO admins (username, password_hash) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AdminStore) GetByID(id int64) (*model.Admin, error) {
	row := s.db.QueryRow(`SELECT id, username, created_at FROM admins WHERE id = ?`, id)
	var a model.Admin
	err := row.Scan(&a.ID, &a.Username, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &a, nil
}

// CredentialsByUsername returns the admin and their bcrypt hash for login,
// or (nil, "") when the username is unknown.
func (s *AdminStore) CredentialsByUsername(username string) (*model.Admin, string, error) {
	var a model.Admin
	var hash string
	err := s.db.QueryRow(
		`SELECT id, username, created_at, password_hash FROM admins WHERE username = ?`,
		username,
	).Scan(&a.ID, &a.Username, &a.CreatedAt, &hash)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get admin credentials: %w", err)
	}
	return &a, hash, nil
}

func (s *AdminStore) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
