// Package attendance implements the QR token lifecycle and the check-in
// engine: minting the rotating session credential, validating a presented
// pair against clock and identity constraints, and committing attendance
// records exactly once per (student, class session) pair.
package attendance

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/dhearn/rollcall/internal/model"
	"github.com/dhearn/rollcall/internal/store"
)

// DefaultValidity is how long an issued token accepts check-ins unless the
// service is configured otherwise.
const DefaultValidity = 30 * time.Second

type Service struct {
	tokens   *store.QRTokenStore
	sessions *store.ClassSessionStore
	students *store.StudentStore
	records  *store.AttendanceStore
	validity time.Duration
	now      func() time.Time
}

func NewService(
	tokens *store.QRTokenStore,
	sessions *store.ClassSessionStore,
	students *store.StudentStore,
	records *store.AttendanceStore,
	validity time.Duration,
) *Service {
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &Service{
		tokens:   tokens,
		sessions: sessions,
		students: students,
		records:  records,
		validity: validity,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue mints a new token for the class session, superseding any prior
// active one. The returned token carries the secret the presentation layer
// must render into the scannable code.
func (s *Service) Issue(classSessionID int64) (*model.QRToken, error) {
	cs, err := s.sessions.GetByID(classSessionID)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, ErrSessionNotFound
	}
	return s.tokens.Issue(classSessionID, s.now(), s.validity)
}

// Current returns the class session's active, unexpired token, issuing a
// fresh one when there is none. Display surfaces call this on each refresh
// so rotation happens without a background ticker.
func (s *Service) Current(classSessionID int64) (*model.QRToken, error) {
	active, err := s.tokens.ListActiveBySession(classSessionID)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 && s.now().Before(active[0].ExpiresAt) {
		return &active[0], nil
	}
	return s.Issue(classSessionID)
}

// Validate checks whether the presented {tokenID, secret} pair is usable
// right now and returns the owning class session. It is read-only: scanning
// never consumes the token. Checks run in a fixed order so the caller gets
// the most specific failure: existence, secret, supersession, expiry.
func (s *Service) Validate(tokenID int64, secret string) (*model.ClassSession, error) {
	token, err := s.tokens.GetByID(tokenID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}
	if subtle.ConstantTimeCompare([]byte(token.Secret), []byte(secret)) != 1 {
		return nil, ErrSecretMismatch
	}
	if !token.Active {
		return nil, ErrTokenInactive
	}
	// Expiry is lazy: a pure comparison against the stored timestamp, no
	// sweeper. A never-superseded token can be active yet expired.
	if s.now().After(token.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	cs, err := s.sessions.GetByID(token.ClassSessionID)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, ErrSessionNotFound
	}
	return cs, nil
}

// CheckInResult is the outcome of a successful check-in. AlreadyMarked
// means the student had a record for this session before the call; Record
// then carries the existing row, not a new one.
type CheckInResult struct {
	Record        *model.AttendanceRecord
	Student       *model.Student
	AlreadyMarked bool
}

// CheckIn redeems a token for an attendance record. A repeat submission is
// a benign confirmation, not an error. The UNIQUE index behind the record
// store makes the existence-check-then-insert race safe: a concurrent loser
// re-reads the winner's row.
func (s *Service) CheckIn(tokenID int64, secret, rollNumber string) (*CheckInResult, error) {
	cs, err := s.Validate(tokenID, secret)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetByRoll(rollNumber)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrUnknownStudent
	}
	if student.Batch != cs.Batch || student.Course != cs.Course {
		return nil, ErrNotEligible
	}

	existing, err := s.records.Get(student.ID, cs.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &CheckInResult{Record: existing, Student: student, AlreadyMarked: true}, nil
	}

	record, err := s.records.Create(student.ID, cs.ID, s.now())
	if errors.Is(err, store.ErrDuplicate) {
		existing, err := s.records.Get(student.ID, cs.ID)
		if err != nil {
			return nil, err
		}
		return &CheckInResult{Record: existing, Student: student, AlreadyMarked: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &CheckInResult{Record: record, Student: student}, nil
}
